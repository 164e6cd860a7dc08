package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/g-orlov/card-system/internal/domain"
)

const ledgerColumns = `id, transfer_id, card_id, entry_type, amount,
	balance_before, balance_after, created_at`

type TransferRepository struct {
	db *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create runs inside the transfer transaction so the audit row commits or
// rolls back together with the balance writes.
func (r *TransferRepository) Create(ctx context.Context, tx *sql.Tx, transfer *domain.Transfer) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (id, from_card_id, to_card_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		transfer.ID, transfer.FromCardID, transfer.ToCardID, transfer.Amount, transfer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransferRepository) CreateLedgerEntry(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TransferID, entry.CardID, entry.EntryType,
		entry.Amount, entry.BalanceBefore, entry.BalanceAfter, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateLedgerEntry: %w", err)
	}
	return nil
}

func (r *TransferRepository) GetLedgerByCardID(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE card_id = $1`, cardID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetLedgerByCardID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE card_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		cardID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetLedgerByCardID: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetLedgerByCardID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetLedgerByCardID: rows: %w", err)
	}
	return entries, total, nil
}

func (r *TransferRepository) GetLedgerByTransferID(ctx context.Context, transferID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE transfer_id = $1 ORDER BY created_at`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetLedgerByTransferID: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("GetLedgerByTransferID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetLedgerByTransferID: rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.TransferID, &e.CardID, &e.EntryType,
		&e.Amount, &e.BalanceBefore, &e.BalanceAfter, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
