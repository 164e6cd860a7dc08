package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrCardNotFound      = errors.New("card not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrCardAccessDenied  = errors.New("card does not belong to user")
	ErrCardNotInService  = errors.New("card not in active status")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCardAlreadyExists = errors.New("card number already taken")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidStatus     = errors.New("card status not found")
	ErrInvalidRole       = errors.New("role not found")
	ErrVersionConflict   = errors.New("optimistic lock conflict")
)
