package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Insufficient privileges"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrCardAccessDenied    = &AppError{http.StatusForbidden, "CARD_ACCESS_DENIED", "Card does not belong to user"}
	ErrCardNotFound        = &AppError{http.StatusNotFound, "CARD_NOT_FOUND", "Card not found"}
	ErrUserNotFound        = &AppError{http.StatusNotFound, "USER_NOT_FOUND", "User not found"}
	ErrCardNotInService    = &AppError{http.StatusBadRequest, "CARD_NOT_IN_SERVICE", "Card not in active status"}
	ErrInsufficientFunds   = &AppError{http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrCardAlreadyExists   = &AppError{http.StatusBadRequest, "CARD_ALREADY_EXISTS", "Card number already taken"}
	ErrUserAlreadyExists   = &AppError{http.StatusBadRequest, "USER_ALREADY_EXISTS", "User already exists"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidStatus       = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Card status not found"}
	ErrInvalidRole         = &AppError{http.StatusBadRequest, "INVALID_ROLE", "Role not found"}
	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
