package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/g-orlov/card-system/internal/domain"
)

type cardRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByCardholder(ctx context.Context, username string) ([]domain.Card, error)
	GetAll(ctx context.Context) ([]domain.Card, error)
	ExistsOwnedBy(ctx context.Context, username string, id uuid.UUID) (bool, error)
	ExistsByEncryptedNumber(ctx context.Context, encrypted string) (bool, error)
	Create(ctx context.Context, card *domain.Card) error
	Save(ctx context.Context, card *domain.Card) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetBlocked(ctx context.Context, id uuid.UUID) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Card, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
}

type userRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error
}

type transferRepository interface {
	Create(ctx context.Context, tx *sql.Tx, transfer *domain.Transfer) error
	CreateLedgerEntry(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetLedgerByCardID(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}
