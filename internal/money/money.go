// Package money converts between the decimal amounts the API speaks and the
// int64 minor units the store keeps.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/g-orlov/card-system/internal/domain"
)

var centsPerUnit = decimal.NewFromInt(100)

// ToMinorUnits parses an amount like "100.50" into cents. Non-positive
// amounts and amounts with sub-cent precision are rejected.
func ToMinorUnits(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("money.ToMinorUnits: %q: %w", amount, domain.ErrInvalidAmount)
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("money.ToMinorUnits: %w", domain.ErrInvalidAmount)
	}

	cents := d.Mul(centsPerUnit)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("money.ToMinorUnits: %q has sub-cent precision: %w", amount, domain.ErrInvalidAmount)
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("money.ToMinorUnits: %q is not representable in minor units: %w", amount, domain.ErrInvalidAmount)
	}
	return cents.IntPart(), nil
}

// ToMinorUnitsNonNegative is the admin-path variant: zero is a legal stored
// balance even though it is not a legal transfer amount.
func ToMinorUnitsNonNegative(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("money.ToMinorUnitsNonNegative: %q: %w", amount, domain.ErrInvalidAmount)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("money.ToMinorUnitsNonNegative: %w", domain.ErrInvalidAmount)
	}

	cents := d.Mul(centsPerUnit)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("money.ToMinorUnitsNonNegative: %q has sub-cent precision: %w", amount, domain.ErrInvalidAmount)
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("money.ToMinorUnitsNonNegative: %q is not representable in minor units: %w", amount, domain.ErrInvalidAmount)
	}
	return cents.IntPart(), nil
}

// FromMinorUnits formats cents back into a decimal string with two places.
func FromMinorUnits(cents int64) string {
	return decimal.NewFromInt(cents).Div(centsPerUnit).StringFixed(2)
}
