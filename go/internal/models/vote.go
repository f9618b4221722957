package models

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amount is a money value. Decoding never fails: null, missing and
// non-numeric inputs read as zero.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a float.
func NewAmount(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount reads a numeric string, returning zero when it is not a number.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{Decimal: decimal.Zero}
	}
	return Amount{Decimal: d}
}

// UnmarshalJSON accepts JSON numbers and numeric strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(data), `"`)
	if string(raw) == "null" {
		raw = nil
	}
	*a = ParseAmount(string(raw))
	return nil
}

// NonNegative returns the amount clamped at zero.
func (a Amount) NonNegative() decimal.Decimal {
	if a.IsNegative() {
		return decimal.Zero
	}
	return a.Decimal
}

// Vote is a paid vote transaction
type Vote struct {
	ID            uuid.UUID `json:"id"`
	CompetitionID uuid.UUID `json:"competition_id"`
	ContestantID  uuid.UUID `json:"contestant_id"`
	AmountPaid    Amount    `json:"amount_paid"`
	VoteCount     int       `json:"vote_count"`
	CreatedAt     time.Time `json:"created_at"`
}
