package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]CompetitionStatus{
		"draft":       CompetitionStatusDraft,
		"publish":     CompetitionStatusComingSoon,
		"Published":   CompetitionStatusComingSoon,
		"coming-soon": CompetitionStatusComingSoon,
		"coming_soon": CompetitionStatusComingSoon,
		" LIVE ":      CompetitionStatusLive,
		"completed":   CompetitionStatusCompleted,
		"canceled":    CompetitionStatusCancelled,
		"cancelled":   CompetitionStatusCancelled,
		"archive":     CompetitionStatusArchived,
		"archived":    CompetitionStatusArchived,
		"":            CompetitionStatusUnknown,
		"paused":      CompetitionStatusUnknown,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseStatus(raw), raw)
	}
}

func TestCompetitionStatusFromJSON(t *testing.T) {
	var c Competition
	require.NoError(t, json.Unmarshal([]byte(`{"status":"publish"}`), &c))
	assert.Equal(t, CompetitionStatusComingSoon, c.Status)
}

func TestAmountDecodingIsLenient(t *testing.T) {
	tests := map[string]string{
		`{"amount_paid":12.5}`:    "12.5",
		`{"amount_paid":"7.25"}`:  "7.25",
		`{"amount_paid":null}`:    "0",
		`{}`:                      "0",
		`{"amount_paid":"n/a"}`:   "0",
		`{"amount_paid":"-3"}`:    "-3",
		`{"amount_paid":"1e2"}`:   "100",
	}
	for in, want := range tests {
		var v Vote
		require.NoError(t, json.Unmarshal([]byte(in), &v), in)
		assert.Equal(t, want, v.AmountPaid.String(), in)
	}
}

func TestAmountNonNegative(t *testing.T) {
	assert.True(t, ParseAmount("-3").NonNegative().IsZero())
	assert.Equal(t, "4", ParseAmount("4").NonNegative().String())
}

func TestVotingRoundOrderDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, VotingRound{}.Order())
	assert.Equal(t, 3, VotingRound{RoundOrder: 3}.Order())
}
