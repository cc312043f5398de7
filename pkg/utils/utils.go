// Package utils holds amount conversion helpers shared across the SDK
// boundary. Amounts cross the wire as integral smallest-unit strings; users
// supply and read major display units.
package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ToSmallestUnit converts a major-unit decimal string into an integral
// smallest-unit string. Amounts with more fractional digits than the chain
// supports are rejected rather than rounded.
func ToSmallestUnit(amount string, decimals int32) (string, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if value.IsNegative() {
		return "", fmt.Errorf("amount must be positive: %s", amount)
	}

	shifted := value.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return "", fmt.Errorf("amount %s exceeds %d decimal places", amount, decimals)
	}
	return shifted.Truncate(0).String(), nil
}

// FromSmallestUnit converts an integral smallest-unit string back to the
// major display unit.
func FromSmallestUnit(amount string, decimals int32) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return value.Shift(-decimals), nil
}
