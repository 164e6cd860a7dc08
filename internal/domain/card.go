package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// ParseCardStatus maps raw input onto the status enum. Admin card updates
// carry the status as a string, so invalid values must fail before any write.
func ParseCardStatus(s string) (CardStatus, error) {
	switch CardStatus(s) {
	case CardStatusActive, CardStatusBlocked, CardStatusExpired:
		return CardStatus(s), nil
	default:
		return "", fmt.Errorf("ParseCardStatus: %q: %w", s, ErrInvalidStatus)
	}
}

// Card balances are stored in minor units. The only writers of Balance are
// the paired transfer deltas and the admin full-replace path.
type Card struct {
	ID              uuid.UUID
	Cardholder      string
	EncryptedNumber string
	Expiry          time.Time
	Status          CardStatus
	Balance         int64
	Version         int64
	CreatedAt       time.Time
}
