package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/config"
)

func TestPrizes(t *testing.T) {
	out, err := prizes("", "200", 2)
	require.NoError(t, err)
	// 0.15 * 200 + 0.3 * 1000
	assert.True(t, decimal.NewFromInt(330).Equal(out.Breakdown.SecondPrize))
	require.NotNil(t, out.Prize)
	assert.Equal(t, "2nd Place", out.Prize.Label)
	assert.Equal(t, "$330", out.Prize.Formatted)

	out, err = prizes("0", "10", 5)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(out.Breakdown.Total))
	assert.Nil(t, out.Prize)

	_, err = prizes("lots", "0", 0)
	assert.ErrorContains(t, err, "--host-minimum")
	_, err = prizes("", "", 0)
	assert.ErrorContains(t, err, "--revenue")
}

func TestVoteEnvelope(t *testing.T) {
	competition, contestant := uuid.New(), uuid.New()

	env, err := voteEnvelope(competition.String(), contestant.String(), 2.5, 3)
	require.NoError(t, err)
	assert.Equal(t, competition, env.CompetitionID)
	assert.Equal(t, events.KindVoteInserted, env.Kind)

	payload, err := events.ParsePayload(env)
	require.NoError(t, err)
	vote := payload.(events.VoteInserted)
	assert.Equal(t, contestant, vote.ContestantID)
	assert.Equal(t, 3, vote.VoteCount)
	assert.NotEqual(t, uuid.Nil, vote.VoteID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(vote.AmountPaid.Decimal))

	_, err = voteEnvelope("x", contestant.String(), 1, 1)
	assert.Error(t, err)
	_, err = voteEnvelope(competition.String(), "y", 1, 1)
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	require.NoError(t, setupLogging(config.LoggingConfig{Level: "WARN"}))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	require.NoError(t, setupLogging(config.LoggingConfig{}))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	assert.Error(t, setupLogging(config.LoggingConfig{Level: "loud"}))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got["a"])
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeLink bool

func (l fakeLink) Connected() bool { return bool(l) }

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name      string
		checker   healthChecker
		code      int
		healthy   bool
		transport bool
	}{
		{"all up", healthChecker{db: fakePinger{}, transport: fakeLink(true)}, http.StatusOK, true, true},
		{"in-process transport", healthChecker{db: fakePinger{}, transport: struct{}{}}, http.StatusOK, true, true},
		{"database down", healthChecker{db: fakePinger{err: errors.New("refused")}, transport: fakeLink(true)}, http.StatusServiceUnavailable, false, true},
		{"transport down", healthChecker{db: fakePinger{}, transport: fakeLink(false)}, http.StatusServiceUnavailable, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.code, rec.Code)

			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.healthy, status.Healthy)
			assert.Equal(t, tt.transport, status.TransportConnected)
		})
	}
}
