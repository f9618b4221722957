package sqlutil

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting nullable column types to Go types

// FromTimestamptz converts a nullable timestamp to a Go time pointer
func FromTimestamptz(val pgtype.Timestamptz) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time
	return &t
}

// ToTimestamptz converts a Go time pointer to a nullable timestamp
func ToTimestamptz(val *time.Time) pgtype.Timestamptz {
	if val == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *val, Valid: true}
}

// FromText converts nullable text to a Go string with default
func FromText(val pgtype.Text, defaultVal string) string {
	if !val.Valid {
		return defaultVal
	}
	return val.String
}

// FromInt4 converts a nullable int4 to a Go int, 0 when null
func FromInt4(val pgtype.Int4) int {
	if !val.Valid {
		return 0
	}
	return int(val.Int32)
}

// FromInt8 converts a nullable int8 to a Go int64, 0 when null
func FromInt8(val pgtype.Int8) int64 {
	if !val.Valid {
		return 0
	}
	return val.Int64
}

// FromDecimalText parses a numeric column selected as text. Null and
// unparseable values return nil.
func FromDecimalText(val pgtype.Text) *decimal.Decimal {
	if !val.Valid {
		return nil
	}
	d, err := decimal.NewFromString(val.String)
	if err != nil {
		return nil
	}
	return &d
}

// FromRawMessage decodes a JSON object column into its top-level fields.
// Null, non-object and malformed values return nil.
func FromRawMessage(val pqtype.NullRawMessage) map[string]json.RawMessage {
	if !val.Valid || len(val.RawMessage) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(val.RawMessage, &fields); err != nil {
		return nil
	}
	return fields
}
