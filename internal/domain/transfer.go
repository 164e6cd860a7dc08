package domain

import (
	"time"

	"github.com/google/uuid"
)

type Transfer struct {
	ID         uuid.UUID
	FromCardID uuid.UUID
	ToCardID   uuid.UUID
	Amount     int64
	CreatedAt  time.Time
}

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry records one side of a transfer together with the balance it
// observed, so every balance mutation stays reconstructable after the fact.
type LedgerEntry struct {
	ID            uuid.UUID
	TransferID    uuid.UUID
	CardID        uuid.UUID
	EntryType     EntryType
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	CreatedAt     time.Time
}
