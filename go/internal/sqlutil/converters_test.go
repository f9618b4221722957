package sqlutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamptzRoundTrip(t *testing.T) {
	assert.Nil(t, FromTimestamptz(pgtype.Timestamptz{}))
	assert.False(t, ToTimestamptz(nil).Valid)

	now := time.Date(2025, time.May, 1, 9, 30, 0, 0, time.UTC)
	got := FromTimestamptz(ToTimestamptz(&now))
	require.NotNil(t, got)
	assert.True(t, now.Equal(*got))
}

func TestFromDecimalText(t *testing.T) {
	assert.Nil(t, FromDecimalText(pgtype.Text{}))
	assert.Nil(t, FromDecimalText(pgtype.Text{String: "abc", Valid: true}))

	d := FromDecimalText(pgtype.Text{String: "1250.50", Valid: true})
	require.NotNil(t, d)
	assert.Equal(t, "1250.5", d.String())
}

func TestFromRawMessage(t *testing.T) {
	assert.Nil(t, FromRawMessage(pqtype.NullRawMessage{}))
	assert.Nil(t, FromRawMessage(pqtype.NullRawMessage{RawMessage: json.RawMessage(`[1,2]`), Valid: true}))

	fields := FromRawMessage(pqtype.NullRawMessage{RawMessage: json.RawMessage(`{"city":"Accra","age":31}`), Valid: true})
	require.Len(t, fields, 2)
	assert.JSONEq(t, `"Accra"`, string(fields["city"]))
}

func TestNullableScalars(t *testing.T) {
	assert.Equal(t, "fallback", FromText(pgtype.Text{}, "fallback"))
	assert.Equal(t, "x", FromText(pgtype.Text{String: "x", Valid: true}, "fallback"))
	assert.Zero(t, FromInt4(pgtype.Int4{}))
	assert.Equal(t, 3, FromInt4(pgtype.Int4{Int32: 3, Valid: true}))
	assert.EqualValues(t, 9, FromInt8(pgtype.Int8{Int64: 9, Valid: true}))
}
