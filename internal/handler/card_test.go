package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-orlov/card-system/internal/auth"
	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/service"
)

type stubCardService struct {
	views    []service.CardView
	listErr  error
	blockErr error

	blockedCard uuid.UUID
	blockedBy   string
}

func (s *stubCardService) ListOwned(_ context.Context, _ string) ([]service.CardView, error) {
	return s.views, s.listErr
}

func (s *stubCardService) BlockCard(_ context.Context, cardID uuid.UUID, username string) error {
	s.blockedCard = cardID
	s.blockedBy = username
	return s.blockErr
}

type stubTransferService struct {
	err     error
	entries []domain.LedgerEntry
	total   int

	from     uuid.UUID
	to       uuid.UUID
	amount   int64
	username string
	called   bool

	historyCard   uuid.UUID
	historyLimit  int
	historyOffset int
}

func (s *stubTransferService) Transfer(_ context.Context, fromID, toID uuid.UUID, amount int64, username string) error {
	s.called = true
	s.from = fromID
	s.to = toID
	s.amount = amount
	s.username = username
	return s.err
}

func (s *stubTransferService) History(_ context.Context, cardID uuid.UUID, _ string, limit, offset int) ([]domain.LedgerEntry, int, error) {
	s.historyCard = cardID
	s.historyLimit = limit
	s.historyOffset = offset
	return s.entries, s.total, s.err
}

func asUser(r *http.Request, username string) *http.Request {
	ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{Username: username, Role: domain.RoleUser})
	return r.WithContext(ctx)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCardHandler_List(t *testing.T) {
	cards := &stubCardService{views: []service.CardView{
		{
			ID:           uuid.New(),
			MaskedNumber: "************1234",
			Cardholder:   "alice",
			Expiry:       time.Date(2029, 9, 1, 0, 0, 0, 0, time.UTC),
			Status:       domain.CardStatusActive,
			Balance:      10050,
		},
	}}
	h := NewCardHandler(cards, &stubTransferService{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/card/cards", nil), "alice")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	body := rec.Body.String()
	assert.Contains(t, body, "************1234")
	assert.Contains(t, body, "100.50")
	assert.Contains(t, body, "2029-09-01")
	assert.NotContains(t, body, "4000")
}

func TestCardHandler_List_Unauthenticated(t *testing.T) {
	h := NewCardHandler(&stubCardService{}, &stubTransferService{})

	req := httptest.NewRequest(http.MethodGet, "/api/card/cards", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "MISSING_TOKEN", resp.Error.Code)
}

func TestCardHandler_Block(t *testing.T) {
	cards := &stubCardService{}
	h := NewCardHandler(cards, &stubTransferService{})
	cardID := uuid.New()

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/card/cards/block/"+cardID.String(), nil), "alice")
	req.SetPathValue("card_id", cardID.String())
	rec := httptest.NewRecorder()
	h.Block(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cardID, cards.blockedCard)
	assert.Equal(t, "alice", cards.blockedBy)
}

func TestCardHandler_Block_BadID(t *testing.T) {
	h := NewCardHandler(&stubCardService{}, &stubTransferService{})

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/card/cards/block/nope", nil), "alice")
	req.SetPathValue("card_id", "nope")
	rec := httptest.NewRecorder()
	h.Block(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardHandler_Block_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not owned", domain.ErrCardAccessDenied, http.StatusForbidden, "CARD_ACCESS_DENIED"},
		{"already blocked", domain.ErrCardNotInService, http.StatusBadRequest, "CARD_NOT_IN_SERVICE"},
		{"not found", domain.ErrCardNotFound, http.StatusNotFound, "CARD_NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCardHandler(&stubCardService{blockErr: fmt.Errorf("BlockCard: %w", tc.err)}, &stubTransferService{})
			cardID := uuid.New()

			req := asUser(httptest.NewRequest(http.MethodGet, "/api/card/cards/block/"+cardID.String(), nil), "alice")
			req.SetPathValue("card_id", cardID.String())
			rec := httptest.NewRecorder()
			h.Block(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestCardHandler_Transfer(t *testing.T) {
	transfers := &stubTransferService{}
	h := NewCardHandler(&stubCardService{}, transfers)
	from, to := uuid.New(), uuid.New()

	body := fmt.Sprintf(`{"from":%q,"to":%q,"amount":100.50}`, from, to)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/card/cards/transfer", strings.NewReader(body)), "alice")
	rec := httptest.NewRecorder()
	h.Transfer(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, transfers.called)
	assert.Equal(t, from, transfers.from)
	assert.Equal(t, to, transfers.to)
	assert.Equal(t, int64(10050), transfers.amount)
	assert.Equal(t, "alice", transfers.username)
}

func TestCardHandler_Transfer_NumericAmount(t *testing.T) {
	transfers := &stubTransferService{}
	h := NewCardHandler(&stubCardService{}, transfers)
	from, to := uuid.New(), uuid.New()

	body := fmt.Sprintf(`{"from":%q,"to":%q,"amount":25}`, from, to)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/card/cards/transfer", strings.NewReader(body)), "alice")
	rec := httptest.NewRecorder()
	h.Transfer(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2500), transfers.amount)
}

func TestCardHandler_Transfer_Validation(t *testing.T) {
	from, to := uuid.New(), uuid.New()

	tests := []struct {
		name string
		body string
	}{
		{"bad from id", fmt.Sprintf(`{"from":"nope","to":%q,"amount":10}`, to)},
		{"bad to id", fmt.Sprintf(`{"from":%q,"to":"nope","amount":10}`, from)},
		{"zero amount", fmt.Sprintf(`{"from":%q,"to":%q,"amount":0}`, from, to)},
		{"negative amount", fmt.Sprintf(`{"from":%q,"to":%q,"amount":-5}`, from, to)},
		{"sub-cent amount", fmt.Sprintf(`{"from":%q,"to":%q,"amount":1.005}`, from, to)},
		{"missing fields", `{}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transfers := &stubTransferService{}
			h := NewCardHandler(&stubCardService{}, transfers)

			req := asUser(httptest.NewRequest(http.MethodPost, "/api/card/cards/transfer", strings.NewReader(tc.body)), "alice")
			rec := httptest.NewRecorder()
			h.Transfer(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeResponse(t, rec)
			assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
			assert.False(t, transfers.called)
		})
	}
}

func TestCardHandler_History(t *testing.T) {
	transferID := uuid.New()
	cardID := uuid.New()
	transfers := &stubTransferService{
		entries: []domain.LedgerEntry{
			{
				ID:            uuid.New(),
				TransferID:    transferID,
				CardID:        cardID,
				EntryType:     domain.EntryTypeDebit,
				Amount:        3000,
				BalanceBefore: 10000,
				BalanceAfter:  7000,
				CreatedAt:     time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		total: 1,
	}
	h := NewCardHandler(&stubCardService{}, transfers)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/card/cards/"+cardID.String()+"/transactions?limit=5&offset=10", nil), "alice")
	req.SetPathValue("card_id", cardID.String())
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cardID, transfers.historyCard)
	assert.Equal(t, 5, transfers.historyLimit)
	assert.Equal(t, 10, transfers.historyOffset)

	body := rec.Body.String()
	assert.Contains(t, body, `"entry_type":"debit"`)
	assert.Contains(t, body, `"amount":"30.00"`)
	assert.Contains(t, body, `"balance_after":"70.00"`)
	assert.Contains(t, body, `"total":1`)
}

func TestCardHandler_History_ClampsPaging(t *testing.T) {
	transfers := &stubTransferService{}
	h := NewCardHandler(&stubCardService{}, transfers)
	cardID := uuid.New()

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/card/cards/"+cardID.String()+"/transactions?limit=9999&offset=-3", nil), "alice")
	req.SetPathValue("card_id", cardID.String())
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, transfers.historyLimit)
	assert.Equal(t, 0, transfers.historyOffset)
}

func TestCardHandler_Transfer_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
		{"not in service", domain.ErrCardNotInService, http.StatusBadRequest, "CARD_NOT_IN_SERVICE"},
		{"access denied", domain.ErrCardAccessDenied, http.StatusForbidden, "CARD_ACCESS_DENIED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCardHandler(&stubCardService{}, &stubTransferService{err: fmt.Errorf("Transfer: %w", tc.err)})
			from, to := uuid.New(), uuid.New()

			body := fmt.Sprintf(`{"from":%q,"to":%q,"amount":10}`, from, to)
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/card/cards/transfer", strings.NewReader(body)), "alice")
			rec := httptest.NewRecorder()
			h.Transfer(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}
