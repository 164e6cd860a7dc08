package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/g-orlov/card-system/internal/domain"
)

const cardColumns = `id, cardholder, encrypted_number, expiry, status, balance, version, created_at`

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, id,
	)
	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrCardNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (r *CardRepository) GetByCardholder(ctx context.Context, username string) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE cardholder = $1 ORDER BY created_at`, username,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByCardholder: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByCardholder: scan: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByCardholder: rows: %w", err)
	}
	return cards, nil
}

func (r *CardRepository) GetAll(ctx context.Context) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("GetAll: scan: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetAll: rows: %w", err)
	}
	return cards, nil
}

// ExistsOwnedBy is the ownership gate both the lifecycle and transfer
// services check before touching a card.
func (r *CardRepository) ExistsOwnedBy(ctx context.Context, username string, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE cardholder = $1 AND id = $2)`,
		username, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsOwnedBy: %w", err)
	}
	return exists, nil
}

func (r *CardRepository) ExistsByEncryptedNumber(ctx context.Context, encrypted string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE encrypted_number = $1)`, encrypted,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsByEncryptedNumber: %w", err)
	}
	return exists, nil
}

func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (`+cardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		card.ID, card.Cardholder, card.EncryptedNumber, card.Expiry,
		card.Status, card.Balance, card.Version, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// Save is the admin full-replace path. Cardholder is immutable, so it is
// deliberately absent from the SET list.
func (r *CardRepository) Save(ctx context.Context, card *domain.Card) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cards
		SET encrypted_number = $1, expiry = $2, status = $3, balance = $4, version = version + 1
		WHERE id = $5`,
		card.EncryptedNumber, card.Expiry, card.Status, card.Balance, card.ID,
	)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Save: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Save: %w", domain.ErrCardNotFound)
	}
	return nil
}

func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrCardNotFound)
	}
	return nil
}

// SetBlocked transitions an ACTIVE card to BLOCKED in a single conditional
// update, so only one of two racing calls can succeed.
func (r *CardRepository) SetBlocked(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cards SET status = $1, version = version + 1 WHERE id = $2 AND status = $3`,
		domain.CardStatusBlocked, id, domain.CardStatusActive,
	)
	if err != nil {
		return fmt.Errorf("SetBlocked: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetBlocked: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetBlocked: %w", domain.ErrCardNotInService)
	}
	return nil
}

func (r *CardRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Card, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrCardNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

func (r *CardRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE cards SET balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func scanCard(s scanner) (*domain.Card, error) {
	var c domain.Card
	err := s.Scan(
		&c.ID, &c.Cardholder, &c.EncryptedNumber, &c.Expiry,
		&c.Status, &c.Balance, &c.Version, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
