package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("ParseRole: %q: %w", s, ErrInvalidRole)
	}
}

type User struct {
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
