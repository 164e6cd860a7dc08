package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/logging"
	"github.com/g-orlov/card-system/internal/money"
	"github.com/g-orlov/card-system/internal/service"
)

type cardAdmin interface {
	GetAllCards(ctx context.Context) ([]service.CardView, error)
	IssueCard(ctx context.Context, cardNumber, cardholder string, expiry time.Time) (*domain.Card, error)
	UpdateCard(ctx context.Context, cardID uuid.UUID, cardNumber string, expiry time.Time, status string, balance int64) error
	DeleteCard(ctx context.Context, cardID uuid.UUID) error
}

type userAdmin interface {
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	AddUser(ctx context.Context, username, password, role string) (*domain.User, error)
	UpdateUser(ctx context.Context, username, password, role string) error
	DeleteUser(ctx context.Context, username string) error
}

type AdminHandler struct {
	cards cardAdmin
	users userAdmin
}

func NewAdminHandler(cards cardAdmin, users userAdmin) *AdminHandler {
	return &AdminHandler{cards: cards, users: users}
}

type cardRequest struct {
	CardID     string      `json:"card_id,omitempty"`
	CardNumber string      `json:"card_number"`
	Cardholder string      `json:"cardholder"`
	Expiry     string      `json:"expiry"`
	Status     string      `json:"status,omitempty"`
	Balance    json.Number `json:"balance,omitempty"`
}

func (h *AdminHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	views, err := h.cards.GetAllCards(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list all cards", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]cardDTO, len(views))
	for i := range views {
		dtos[i] = toCardDTO(&views[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AdminHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var fields []FieldError
	if len(req.CardNumber) != 16 {
		fields = append(fields, FieldError{Field: "card_number", Message: "must be 16 digits"})
	}
	if req.Cardholder == "" {
		fields = append(fields, FieldError{Field: "cardholder", Message: "required"})
	}
	expiry, err := time.Parse(time.DateOnly, req.Expiry)
	if err != nil {
		fields = append(fields, FieldError{Field: "expiry", Message: "must be a date in YYYY-MM-DD form"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	card, err := h.cards.IssueCard(r.Context(), req.CardNumber, req.Cardholder, expiry)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to issue card", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]any{"id": card.ID})
}

func (h *AdminHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var fields []FieldError
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		fields = append(fields, FieldError{Field: "card_id", Message: "must be a card id"})
	}
	if len(req.CardNumber) != 16 {
		fields = append(fields, FieldError{Field: "card_number", Message: "must be 16 digits"})
	}
	expiry, err := time.Parse(time.DateOnly, req.Expiry)
	if err != nil {
		fields = append(fields, FieldError{Field: "expiry", Message: "must be a date in YYYY-MM-DD form"})
	}
	balance, err := money.ToMinorUnitsNonNegative(req.Balance.String())
	if err != nil {
		fields = append(fields, FieldError{Field: "balance", Message: "must be a non-negative amount with at most two decimal places"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.cards.UpdateCard(r.Context(), cardID, req.CardNumber, expiry, req.Status, balance); err != nil {
		logging.FromContext(r.Context()).Error("failed to update card", "error", err, "card_id", cardID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "Card updated")
}

func (h *AdminHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrCardNotFound, nil)
		return
	}

	if err := h.cards.DeleteCard(r.Context(), cardID); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete card", "error", err, "card_id", cardID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "Card successfully deleted")
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r userRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	if r.Role == "" {
		errs = append(errs, FieldError{Field: "role", Message: "required"})
	}
	return errs
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list users", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]userDTO, len(users))
	for i, u := range users {
		dtos[i] = userDTO{Username: u.Username, Role: string(u.Role)}
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.users.AddUser(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to add user", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, userDTO{Username: user.Username, Role: string(user.Role)})
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.users.UpdateUser(r.Context(), req.Username, req.Password, req.Role); err != nil {
		logging.FromContext(r.Context()).Error("failed to update user", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "User successfully updated")
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	if err := h.users.DeleteUser(r.Context(), username); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete user", "error", err, "username", username)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "User successfully deleted")
}
