// Package core holds the domain model of the ledger and settlement
// engine: money, transactions, ledgers, shared expenses, friendships
// and the netting computation. Everything here is pure; persistence
// and transport live elsewhere.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed amount in cents. All arithmetic in the engine is
// integer arithmetic; decimal strings only appear at the boundary.
type Money int64

// ParseMoney converts a decimal string such as "12.34" into cents.
// At most two fractional digits are accepted; anything else, including
// the empty string, fails with ErrValidation.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, Validationf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, Validationf("invalid amount %q", s)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, Validationf("amount %q has more than two decimal places", s)
	}
	bi := cents.BigInt()
	if !bi.IsInt64() {
		return 0, Validationf("amount %q out of range", s)
	}
	return Money(bi.Int64()), nil
}

// Validate enforces the positive-amount rule shared by transactions,
// shared expenses and splits.
func (m Money) Validate() error {
	if m <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount with two decimals, e.g. "12.34" or "-0.05".
func (m Money) String() string {
	return m.decimal().StringFixed(2)
}

// MarshalJSON emits the amount as a plain JSON number ("12.34"), the
// wire shape the clients of this API expect.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.decimal().String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal
// string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
