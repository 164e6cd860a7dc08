package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/repository"
	"github.com/g-orlov/card-system/internal/service"
	"github.com/g-orlov/card-system/internal/testutil"
)

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := service.NewUserService(userRepo)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))

	_, err = svc.Register(ctx, "alice", "another")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestAddUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	admin, err := svc.AddUser(ctx, "root", "secret123", "ROLE_ADMIN")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	_, err = svc.AddUser(ctx, "bob", "secret123", "ROLE_SUPERUSER")
	require.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestUpdateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := service.NewUserService(userRepo)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "alice", domain.RoleUser)

	require.NoError(t, svc.UpdateUser(ctx, "alice", "newpassword", "ROLE_ADMIN"))

	user, err := userRepo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword")))

	err = svc.UpdateUser(ctx, "ghost", "whatever", "ROLE_USER")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := service.NewUserService(userRepo)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "alice", domain.RoleUser)

	require.NoError(t, svc.DeleteUser(ctx, "alice"))

	_, err := userRepo.GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	err = svc.DeleteUser(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteUser_CascadesCards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "alice", domain.RoleUser)
	testutil.SeedTestCard(t, db, user.Username, encodeNumber(t, "4000000000000001"), domain.CardStatusActive, 0)

	require.NoError(t, svc.DeleteUser(ctx, "alice"))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cards WHERE cardholder = 'alice'`).Scan(&count))
	assert.Equal(t, 0, count)
}
