// Package codec provides the at-rest obfuscation of card numbers. The
// encoding is reversible and deterministic so the stored form can double as a
// uniqueness key; it is display obfuscation, not a secrecy boundary.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const nonceSize = 12

// Codec encrypts card numbers with AES-GCM. The nonce is derived from the
// plaintext via HMAC under a separate subkey, so encoding the same number
// always yields the same ciphertext.
type Codec struct {
	aead     cipher.AEAD
	nonceKey []byte
}

// New builds a Codec from the configured key. A key of the wrong length is a
// deployment fault and must abort startup.
func New(key string) (*Codec, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("codec.New: key must be 16, 24 or 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("codec.New: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("codec.New: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte("card-number-nonce"))

	return &Codec{aead: aead, nonceKey: mac.Sum(nil)}, nil
}

// Encode returns the obfuscated form of a card number. Deterministic: the
// repository relies on equal plaintexts encoding identically for its
// existence check.
func (c *Codec) Encode(plaintext string) string {
	mac := hmac.New(sha256.New, c.nonceKey)
	mac.Write([]byte(plaintext))
	nonce := mac.Sum(nil)[:nonceSize]

	out := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(out)
}

// Decode reverses Encode. Failure here means the stored value was written
// under a different key, which is a configuration fault rather than a
// business error.
func (c *Codec) Decode(encoded string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("codec.Decode: %w", err)
	}
	if len(raw) < nonceSize {
		return "", fmt.Errorf("codec.Decode: ciphertext too short")
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("codec.Decode: %w", err)
	}
	return string(plaintext), nil
}

// Mask hides all but the last four characters of a decoded card number
// behind a fixed-length run of asterisks.
func Mask(number string) string {
	last4 := number
	if len(number) > 4 {
		last4 = number[len(number)-4:]
	}
	return "************" + last4
}
