package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/logging"
)

type UserService struct {
	users userRepository
}

func NewUserService(users userRepository) *UserService {
	return &UserService{users: users}
}

// Register is the public sign-up path; new users always get ROLE_USER.
func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.addUser(ctx, username, password, domain.RoleUser)
}

// AddUser is the admin path where the role comes in as raw input.
func (s *UserService) AddUser(ctx context.Context, username, password, role string) (*domain.User, error) {
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("AddUser: %w", err)
	}
	return s.addUser(ctx, username, password, parsed)
}

func (s *UserService) addUser(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("addUser: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("addUser: %w", domain.ErrUserAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("addUser: hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("addUser: %w", err)
	}

	logging.FromContext(ctx).Info("user created", "username", username, "role", role)
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, username, password, role string) error {
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return fmt.Errorf("UpdateUser: %w", err)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("UpdateUser: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("UpdateUser: hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.Role = parsed
	if err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("UpdateUser: %w", err)
	}
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAllUsers: %w", err)
	}
	return users, nil
}
