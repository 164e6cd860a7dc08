package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/g-orlov/card-system/internal/auth"
	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/logging"
	"github.com/g-orlov/card-system/internal/money"
	"github.com/g-orlov/card-system/internal/service"
)

type cardLifecycle interface {
	ListOwned(ctx context.Context, username string) ([]service.CardView, error)
	BlockCard(ctx context.Context, cardID uuid.UUID, username string) error
}

type transferEngine interface {
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, username string) error
	History(ctx context.Context, cardID uuid.UUID, username string, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type CardHandler struct {
	cards     cardLifecycle
	transfers transferEngine
}

func NewCardHandler(cards cardLifecycle, transfers transferEngine) *CardHandler {
	return &CardHandler{cards: cards, transfers: transfers}
}

type cardDTO struct {
	ID      uuid.UUID `json:"id"`
	Number  string    `json:"number"`
	Owner   string    `json:"cardholder"`
	Expiry  string    `json:"expiry"`
	Status  string    `json:"status"`
	Balance string    `json:"balance"`
}

func toCardDTO(v *service.CardView) cardDTO {
	return cardDTO{
		ID:      v.ID,
		Number:  v.MaskedNumber,
		Owner:   v.Cardholder,
		Expiry:  v.Expiry.Format(time.DateOnly),
		Status:  string(v.Status),
		Balance: money.FromMinorUnits(v.Balance),
	}
}

func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	views, err := h.cards.ListOwned(r.Context(), principal.Username)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list cards", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]cardDTO, len(views))
	for i := range views {
		dtos[i] = toCardDTO(&views[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *CardHandler) Block(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	cardID, err := uuid.Parse(r.PathValue("card_id"))
	if err != nil {
		RespondAppError(w, ErrCardNotFound, nil)
		return
	}

	if err := h.cards.BlockCard(r.Context(), cardID, principal.Username); err != nil {
		logging.FromContext(r.Context()).Error("failed to block card", "error", err, "card_id", cardID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "Card successfully blocked")
}

type transferRequest struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount json.Number `json:"amount"`
}

func (req transferRequest) parse() (from, to uuid.UUID, amount int64, fields []FieldError) {
	var err error

	if from, err = uuid.Parse(req.From); err != nil {
		fields = append(fields, FieldError{Field: "from", Message: "must be a card id"})
	}
	if to, err = uuid.Parse(req.To); err != nil {
		fields = append(fields, FieldError{Field: "to", Message: "must be a card id"})
	}
	if amount, err = money.ToMinorUnits(req.Amount.String()); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			fields = append(fields, FieldError{Field: "amount", Message: "must be a positive amount with at most two decimal places"})
		} else {
			fields = append(fields, FieldError{Field: "amount", Message: "invalid"})
		}
	}
	return from, to, amount, fields
}

func (h *CardHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	from, to, amount, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.transfers.Transfer(r.Context(), from, to, amount, principal.Username); err != nil {
		logging.FromContext(r.Context()).Error("transfer failed", "error", err, "from_card", from, "to_card", to)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, "Transfer completed")
}

type ledgerEntryDTO struct {
	ID            uuid.UUID `json:"id"`
	TransferID    uuid.UUID `json:"transfer_id"`
	EntryType     string    `json:"entry_type"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

type historyResponse struct {
	Transactions []ledgerEntryDTO `json:"transactions"`
	Total        int              `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

func (h *CardHandler) History(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	cardID, err := uuid.Parse(r.PathValue("card_id"))
	if err != nil {
		RespondAppError(w, ErrCardNotFound, nil)
		return
	}

	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.transfers.History(r.Context(), cardID, principal.Username, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load card history", "error", err, "card_id", cardID)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ledgerEntryDTO{
			ID:            e.ID,
			TransferID:    e.TransferID,
			EntryType:     string(e.EntryType),
			Amount:        money.FromMinorUnits(e.Amount),
			BalanceBefore: money.FromMinorUnits(e.BalanceBefore),
			BalanceAfter:  money.FromMinorUnits(e.BalanceAfter),
			CreatedAt:     e.CreatedAt,
		}
	}

	RespondSuccess(w, http.StatusOK, historyResponse{
		Transactions: dtos,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
