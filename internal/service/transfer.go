package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/logging"
)

// TransferService moves money between two cards of the same cardholder.
// Both balance writes happen inside one transaction with the card rows
// locked, so a transfer can never half-apply and two transfers draining the
// same card serialize on the row lock.
type TransferService struct {
	cards     cardRepository
	transfers transferRepository
	db        *sql.DB
}

func NewTransferService(cards cardRepository, transfers transferRepository, db *sql.DB) *TransferService {
	return &TransferService{cards: cards, transfers: transfers, db: db}
}

func (s *TransferService) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, username string) error {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return fmt.Errorf("Transfer: %w", domain.ErrInvalidAmount)
	}

	if err := s.checkOwnership(ctx, username, fromID); err != nil {
		return fmt.Errorf("Transfer: from: %w", err)
	}
	if err := s.checkOwnership(ctx, username, toID); err != nil {
		return fmt.Errorf("Transfer: to: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.lockCardsInOrder(ctx, tx, fromID, toID)
	if err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}
	from, to := locked[fromID], locked[toID]

	if err := validateTransfer(from, to, amount); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	now := time.Now().UTC()
	transfer := &domain.Transfer{
		ID:         uuid.New(),
		FromCardID: fromID,
		ToCardID:   toID,
		Amount:     amount,
		CreatedAt:  now,
	}
	if err := s.transfers.Create(ctx, tx, transfer); err != nil {
		return fmt.Errorf("Transfer: create record: %w", err)
	}

	if err := s.writeLedgerEntries(ctx, tx, transfer, from, to); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}

	if fromID == toID {
		// Same card on both sides nets to zero; one write keeps the version
		// chain consistent.
		if err := s.cards.UpdateBalance(ctx, tx, fromID, from.Balance, from.Version+1); err != nil {
			return fmt.Errorf("Transfer: update card: %w", err)
		}
	} else {
		if err := s.cards.UpdateBalance(ctx, tx, fromID, from.Balance-amount, from.Version+1); err != nil {
			return fmt.Errorf("Transfer: update source: %w", err)
		}
		if err := s.cards.UpdateBalance(ctx, tx, toID, to.Balance+amount, to.Version+1); err != nil {
			return fmt.Errorf("Transfer: update destination: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Transfer: commit: %w", err)
	}

	log.Info("transfer completed",
		"transfer_id", transfer.ID,
		"from_card", fromID,
		"to_card", toID,
		"amount", amount,
	)
	return nil
}

// History returns the card's ledger entries newest first, with the total
// count for pagination.
func (s *TransferService) History(ctx context.Context, cardID uuid.UUID, username string, limit, offset int) ([]domain.LedgerEntry, int, error) {
	if err := s.checkOwnership(ctx, username, cardID); err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}

	entries, total, err := s.transfers.GetLedgerByCardID(ctx, cardID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return entries, total, nil
}

func (s *TransferService) checkOwnership(ctx context.Context, username string, cardID uuid.UUID) error {
	owned, err := s.cards.ExistsOwnedBy(ctx, username, cardID)
	if err != nil {
		return err
	}
	if !owned {
		return domain.ErrCardAccessDenied
	}
	return nil
}

// validateTransfer checks the status and balance gates on already-locked
// rows; the caller holds the row locks until commit, so the checks cannot go
// stale.
func validateTransfer(from, to *domain.Card, amount int64) error {
	if from.Status != domain.CardStatusActive {
		return fmt.Errorf("source: %w", domain.ErrCardNotInService)
	}
	if to.Status != domain.CardStatusActive {
		return fmt.Errorf("destination: %w", domain.ErrCardNotInService)
	}
	if from.Balance < amount {
		return fmt.Errorf("balance %d below %d: %w", from.Balance, amount, domain.ErrInsufficientFunds)
	}
	return nil
}

// lockCardsInOrder takes FOR UPDATE locks in byte order of the IDs so two
// opposing transfers cannot deadlock on each other.
func (s *TransferService) lockCardsInOrder(ctx context.Context, tx *sql.Tx, a, b uuid.UUID) (map[uuid.UUID]*domain.Card, error) {
	first, second := a, b
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	result := make(map[uuid.UUID]*domain.Card, 2)

	card, err := s.cards.GetForUpdate(ctx, tx, first)
	if err != nil {
		return nil, fmt.Errorf("lockCardsInOrder: %w", err)
	}
	result[first] = card

	if second != first {
		card, err = s.cards.GetForUpdate(ctx, tx, second)
		if err != nil {
			return nil, fmt.Errorf("lockCardsInOrder: %w", err)
		}
		result[second] = card
	}
	return result, nil
}

func (s *TransferService) writeLedgerEntries(ctx context.Context, tx *sql.Tx, transfer *domain.Transfer, from, to *domain.Card) error {
	debit := &domain.LedgerEntry{
		ID:            uuid.New(),
		TransferID:    transfer.ID,
		CardID:        from.ID,
		EntryType:     domain.EntryTypeDebit,
		Amount:        transfer.Amount,
		BalanceBefore: from.Balance,
		BalanceAfter:  from.Balance - transfer.Amount,
		CreatedAt:     transfer.CreatedAt,
	}
	if err := s.transfers.CreateLedgerEntry(ctx, tx, debit); err != nil {
		return fmt.Errorf("writeLedgerEntries: debit: %w", err)
	}

	creditBefore := to.Balance
	if from.ID == to.ID {
		creditBefore = from.Balance - transfer.Amount
	}
	credit := &domain.LedgerEntry{
		ID:            uuid.New(),
		TransferID:    transfer.ID,
		CardID:        to.ID,
		EntryType:     domain.EntryTypeCredit,
		Amount:        transfer.Amount,
		BalanceBefore: creditBefore,
		BalanceAfter:  creditBefore + transfer.Amount,
		CreatedAt:     transfer.CreatedAt,
	}
	if err := s.transfers.CreateLedgerEntry(ctx, tx, credit); err != nil {
		return fmt.Errorf("writeLedgerEntries: credit: %w", err)
	}

	return nil
}
