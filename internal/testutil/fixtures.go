package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/g-orlov/card-system/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, username string, role domain.Role) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (username, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username) DO NOTHING`,
		u.Username, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", username, err)
	}
	return u
}

func SeedTestCard(t *testing.T, db *sql.DB, cardholder, encryptedNumber string, status domain.CardStatus, balance int64) *domain.Card {
	t.Helper()

	c := &domain.Card{
		ID:              uuid.New(),
		Cardholder:      cardholder,
		EncryptedNumber: encryptedNumber,
		Expiry:          time.Now().UTC().AddDate(3, 0, 0),
		Status:          status,
		Balance:         balance,
		Version:         1,
		CreatedAt:       time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO cards (id, cardholder, encrypted_number, expiry, status, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Cardholder, c.EncryptedNumber, c.Expiry, c.Status, c.Balance, c.Version, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test card for %s: %v", cardholder, err)
	}
	return c
}

func GetCardBalance(t *testing.T, db *sql.DB, cardID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM cards WHERE id = $1`, cardID).Scan(&balance)
	if err != nil {
		t.Fatalf("get card balance %s: %v", cardID, err)
	}
	return balance
}

func GetCardStatus(t *testing.T, db *sql.DB, cardID uuid.UUID) string {
	t.Helper()

	var status string
	err := db.QueryRow(`SELECT status FROM cards WHERE id = $1`, cardID).Scan(&status)
	if err != nil {
		t.Fatalf("get card status %s: %v", cardID, err)
	}
	return status
}

func CountLedgerEntries(t *testing.T, db *sql.DB, transferID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE transfer_id = $1`, transferID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for transfer %s: %v", transferID, err)
	}
	return count
}

func CountTransfers(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transfers`).Scan(&count); err != nil {
		t.Fatalf("count transfers: %v", err)
	}
	return count
}
