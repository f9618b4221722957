package phase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/votearena/go/internal/models"
)

func TestNextTransition(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	rounds := []models.VotingRound{
		round(1, -time.Hour, 2*time.Hour, "", ""),
		round(2, 5*time.Hour, 9*time.Hour, "", ""),
	}
	periods := []models.NominationPeriod{{StartDate: at(-3 * time.Hour), EndDate: at(-2 * time.Hour)}}

	next := NextTransition(c, rounds, periods, now)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(2*time.Hour+time.Nanosecond), *next)

	// after the transition the round has ended
	assert.NotEqual(t, KindRound, Resolve(c, rounds[:1], nil, *next).Kind)
}

func TestNextTransitionNone(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	rounds := []models.VotingRound{round(1, -3*time.Hour, -time.Hour, "", "")}
	assert.Nil(t, NextTransition(c, rounds, nil, now))
}

func TestOverlappingRounds(t *testing.T) {
	rounds := []models.VotingRound{
		round(1, 0, 2*time.Hour, "", ""),
		round(2, 2*time.Hour, 4*time.Hour, "", ""),
		round(3, 5*time.Hour, 6*time.Hour, "", ""),
		{RoundOrder: 4},
	}
	overlaps := OverlappingRounds(rounds)
	require.Len(t, overlaps, 1)
	assert.Equal(t, 1, overlaps[0].First.RoundOrder)
	assert.Equal(t, 2, overlaps[0].Second.RoundOrder)
}

func TestResultAtRecomputesCountdown(t *testing.T) {
	c := competition(models.CompetitionStatusLive)

	voting := Resolve(c, []models.VotingRound{round(1, -time.Hour, 2*time.Hour, "", "")}, nil, now)
	require.NotNil(t, voting.Countdown)
	assert.Equal(t, "2h 0m", voting.Countdown.Formatted)

	later := voting.At(now.Add(90 * time.Minute))
	assert.Equal(t, "30m", later.Countdown.Formatted)
	assert.Equal(t, voting.Phase, later.Phase)
	assert.Equal(t, "2h 0m", voting.Countdown.Formatted, "original is untouched")

	between := Resolve(c, []models.VotingRound{round(2, 3*time.Hour, 5*time.Hour, "", "")}, nil, now)
	require.Equal(t, KindBetweenRounds, between.Kind)
	assert.Equal(t, "1h 0m", between.At(now.Add(2*time.Hour)).Countdown.Formatted)
}
