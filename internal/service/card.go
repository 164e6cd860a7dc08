package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/g-orlov/card-system/internal/codec"
	"github.com/g-orlov/card-system/internal/domain"
	"github.com/g-orlov/card-system/internal/logging"
)

// CardView is a card projected for display: the number is decoded and
// masked, never returned in full.
type CardView struct {
	ID           uuid.UUID
	MaskedNumber string
	Cardholder   string
	Expiry       time.Time
	Status       domain.CardStatus
	Balance      int64
}

// CardService covers card issuance, blocking and ownership-scoped reads.
type CardService struct {
	cards cardRepository
	users userRepository
	codec *codec.Codec
}

func NewCardService(cards cardRepository, users userRepository, c *codec.Codec) *CardService {
	return &CardService{cards: cards, users: users, codec: c}
}

// ValidateOwnership reports whether the card belongs to the user. Pure
// predicate, shared gate for blocking and transfers.
func (s *CardService) ValidateOwnership(ctx context.Context, username string, cardID uuid.UUID) (bool, error) {
	owned, err := s.cards.ExistsOwnedBy(ctx, username, cardID)
	if err != nil {
		return false, fmt.Errorf("ValidateOwnership: %w", err)
	}
	return owned, nil
}

// BlockCard transitions an ACTIVE card to BLOCKED. The transition is
// one-way: a repeat call finds the card no longer ACTIVE and fails.
func (s *CardService) BlockCard(ctx context.Context, cardID uuid.UUID, username string) error {
	owned, err := s.ValidateOwnership(ctx, username, cardID)
	if err != nil {
		return fmt.Errorf("BlockCard: %w", err)
	}
	if !owned {
		return fmt.Errorf("BlockCard: %w", domain.ErrCardAccessDenied)
	}

	if err := s.cards.SetBlocked(ctx, cardID); err != nil {
		return fmt.Errorf("BlockCard: %w", err)
	}

	logging.FromContext(ctx).Info("card blocked", "card_id", cardID)
	return nil
}

// ListOwned returns the user's cards in display form. No cards is an empty
// slice, not an error.
func (s *CardService) ListOwned(ctx context.Context, username string) ([]CardView, error) {
	cards, err := s.cards.GetByCardholder(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ListOwned: %w", err)
	}

	views := make([]CardView, 0, len(cards))
	for i := range cards {
		view, err := s.toView(&cards[i])
		if err != nil {
			return nil, fmt.Errorf("ListOwned: %w", err)
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *CardService) GetAllCards(ctx context.Context) ([]CardView, error) {
	cards, err := s.cards.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAllCards: %w", err)
	}

	views := make([]CardView, 0, len(cards))
	for i := range cards {
		view, err := s.toView(&cards[i])
		if err != nil {
			return nil, fmt.Errorf("GetAllCards: %w", err)
		}
		views = append(views, *view)
	}
	return views, nil
}

// IssueCard creates a card for an existing user. The encoded number is the
// uniqueness key, which works because the codec is deterministic.
func (s *CardService) IssueCard(ctx context.Context, cardNumber, cardholder string, expiry time.Time) (*domain.Card, error) {
	exists, err := s.users.Exists(ctx, cardholder)
	if err != nil {
		return nil, fmt.Errorf("IssueCard: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("IssueCard: %w", domain.ErrUserNotFound)
	}

	encrypted := s.codec.Encode(cardNumber)
	taken, err := s.cards.ExistsByEncryptedNumber(ctx, encrypted)
	if err != nil {
		return nil, fmt.Errorf("IssueCard: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("IssueCard: %w", domain.ErrCardAlreadyExists)
	}

	card := &domain.Card{
		ID:              uuid.New(),
		Cardholder:      cardholder,
		EncryptedNumber: encrypted,
		Expiry:          expiry,
		Status:          domain.CardStatusActive,
		Balance:         0,
		Version:         1,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("IssueCard: %w", err)
	}

	logging.FromContext(ctx).Info("card issued", "card_id", card.ID, "cardholder", cardholder)
	return card, nil
}

// UpdateCard is the admin full-replace path, the only writer of expiry and
// the only direct writer of balance outside a transfer.
func (s *CardService) UpdateCard(ctx context.Context, cardID uuid.UUID, cardNumber string, expiry time.Time, status string, balance int64) error {
	parsed, err := domain.ParseCardStatus(status)
	if err != nil {
		return fmt.Errorf("UpdateCard: %w", err)
	}
	if balance < 0 {
		return fmt.Errorf("UpdateCard: %w", domain.ErrInvalidAmount)
	}

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return fmt.Errorf("UpdateCard: %w", err)
	}

	encrypted := s.codec.Encode(cardNumber)
	if encrypted != card.EncryptedNumber {
		taken, err := s.cards.ExistsByEncryptedNumber(ctx, encrypted)
		if err != nil {
			return fmt.Errorf("UpdateCard: %w", err)
		}
		if taken {
			return fmt.Errorf("UpdateCard: %w", domain.ErrCardAlreadyExists)
		}
	}

	card.EncryptedNumber = encrypted
	card.Expiry = expiry
	card.Status = parsed
	card.Balance = balance

	if err := s.cards.Save(ctx, card); err != nil {
		return fmt.Errorf("UpdateCard: %w", err)
	}
	return nil
}

func (s *CardService) DeleteCard(ctx context.Context, cardID uuid.UUID) error {
	if err := s.cards.Delete(ctx, cardID); err != nil {
		return fmt.Errorf("DeleteCard: %w", err)
	}
	return nil
}

func (s *CardService) toView(card *domain.Card) (*CardView, error) {
	number, err := s.codec.Decode(card.EncryptedNumber)
	if err != nil {
		return nil, fmt.Errorf("toView: card %s: %w", card.ID, err)
	}
	return &CardView{
		ID:           card.ID,
		MaskedNumber: codec.Mask(number),
		Cardholder:   card.Cardholder,
		Expiry:       card.Expiry,
		Status:       card.Status,
		Balance:      card.Balance,
	}, nil
}
