package phase

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/votearena/go/internal/models"
)

var now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func competition(status models.CompetitionStatus) models.Competition {
	return models.Competition{ID: uuid.New(), Title: "Best Voice", Status: status}
}

func round(order int, start, end time.Duration, roundType, title string) models.VotingRound {
	return models.VotingRound{
		ID:         uuid.New(),
		RoundOrder: order,
		StartDate:  at(start),
		EndDate:    at(end),
		RoundType:  roundType,
		Title:      title,
	}
}

func TestResolveTerminalStatusesShortCircuit(t *testing.T) {
	active := []models.VotingRound{round(1, -time.Hour, time.Hour, "standard", "")}
	activePeriod := []models.NominationPeriod{{StartDate: at(-time.Hour), EndDate: at(time.Hour)}}

	tests := []struct {
		status   models.CompetitionStatus
		kind     Kind
		public   bool
		complete bool
	}{
		{models.CompetitionStatusCancelled, KindCancelled, false, false},
		{models.CompetitionStatusCompleted, KindResults, true, true},
		{models.CompetitionStatusDraft, KindDraft, false, false},
		{models.CompetitionStatusArchived, KindArchived, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			res := Resolve(competition(tt.status), active, activePeriod, now)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.public, res.IsPublic)
			assert.Equal(t, tt.complete, res.IsComplete)
			assert.False(t, res.IsVoting)
			assert.False(t, res.CanNominate)
		})
	}
}

func TestResolveActiveRound(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	rounds := []models.VotingRound{round(1, -24*time.Hour, 24*time.Hour, "standard", "")}

	res := Resolve(c, rounds, nil, now)

	assert.Equal(t, KindRound, res.Kind)
	assert.Equal(t, "round1", res.Phase)
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, "Round 1", res.Label)
	assert.True(t, res.IsVoting)
	assert.True(t, res.IsPublic)
	assert.False(t, res.CanNominate)
	require.NotNil(t, res.Countdown)
	assert.Equal(t, "1d 0h", res.Countdown.Formatted)
	require.NotNil(t, res.VotingRound)
	assert.Equal(t, rounds[0].ID, res.VotingRound.ID)
}

func TestResolveRoundClassification(t *testing.T) {
	tests := []struct {
		name      string
		order     int
		roundType string
		title     string
		kind      Kind
		phase     string
	}{
		{"default order", 0, "standard", "", KindRound, "round1"},
		{"explicit order", 3, "standard", "Quarter", KindRound, "round3"},
		{"resurrection by type", 2, "Resurrection", "", KindResurrection, "resurrection"},
		{"resurrection by title", 2, "", "The Resurrection Round", KindResurrection, "resurrection"},
		{"finals by type", 4, "final", "", KindFinals, "finals"},
		{"finals by title", 4, "standard", "Grand Finale", KindFinals, "finals"},
		{"semi final title", 3, "", "Semi-Finals", KindFinals, "finals"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rounds := []models.VotingRound{round(tt.order, -time.Hour, time.Hour, tt.roundType, tt.title)}
			res := Resolve(competition(models.CompetitionStatusLive), rounds, nil, now)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.phase, res.Phase)
			assert.True(t, res.IsVoting)
		})
	}
}

func TestResolveRoundWindowIsInclusive(t *testing.T) {
	c := competition(models.CompetitionStatusLive)

	startsNow := []models.VotingRound{round(1, 0, time.Hour, "", "")}
	assert.Equal(t, KindRound, Resolve(c, startsNow, nil, now).Kind)

	endsNow := []models.VotingRound{round(1, -time.Hour, 0, "", "")}
	assert.Equal(t, KindRound, Resolve(c, endsNow, nil, now).Kind)

	ended := []models.VotingRound{round(1, -time.Hour, -time.Nanosecond, "", "")}
	assert.Equal(t, KindUnknown, Resolve(c, ended, nil, now).Kind)
}

func TestResolveFirstOverlappingRoundWins(t *testing.T) {
	rounds := []models.VotingRound{
		round(2, -2*time.Hour, 2*time.Hour, "standard", ""),
		round(3, -time.Hour, time.Hour, "final", ""),
	}
	res := Resolve(competition(models.CompetitionStatusLive), rounds, nil, now)
	assert.Equal(t, "round2", res.Phase)
	assert.Len(t, OverlappingRounds(rounds), 1)
}

func TestResolveMissingDatesNeverMatch(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	rounds := []models.VotingRound{
		{RoundOrder: 1, StartDate: at(-time.Hour)},
		{RoundOrder: 2, EndDate: at(time.Hour)},
		{RoundOrder: 3, StartDate: &time.Time{}, EndDate: at(time.Hour)},
		{RoundOrder: 4, StartDate: at(time.Hour), EndDate: at(-time.Hour)},
	}
	res := Resolve(c, rounds, nil, now)
	assert.NotEqual(t, KindRound, res.Kind)
}

func TestResolveNominationPeriod(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	periods := []models.NominationPeriod{{
		ID:        uuid.New(),
		Title:     "Open Call",
		StartDate: at(-time.Hour),
		EndDate:   at(time.Hour),
	}}

	res := Resolve(c, nil, periods, now)

	assert.Equal(t, KindNominations, res.Kind)
	assert.Equal(t, "nominations", res.Phase)
	assert.Equal(t, "Open Call", res.Label)
	assert.True(t, res.CanNominate)
	assert.True(t, res.IsPublic)
	assert.False(t, res.IsVoting)
	require.NotNil(t, res.EndsAt)
	assert.Equal(t, *periods[0].EndDate, *res.EndsAt)
	assert.Equal(t, "1h 0m", res.Countdown.Formatted)
}

func TestResolveActiveRoundBeatsNominations(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	rounds := []models.VotingRound{round(1, -time.Hour, time.Hour, "", "")}
	periods := []models.NominationPeriod{{StartDate: at(-time.Hour), EndDate: at(time.Hour)}}

	assert.Equal(t, KindRound, Resolve(c, rounds, periods, now).Kind)
}

func TestResolveFlatNominationFallback(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	c.NominationStart = at(-time.Hour)
	c.NominationEnd = at(30 * time.Minute)

	res := Resolve(c, nil, nil, now)
	assert.Equal(t, KindNominations, res.Kind)
	assert.True(t, res.CanNominate)
	assert.Equal(t, "30m", res.Countdown.Formatted)

	// flat window is only honoured for live competitions
	c.Status = models.CompetitionStatusComingSoon
	assert.Equal(t, KindComingSoon, Resolve(c, nil, nil, now).Kind)
}

func TestResolveComingSoon(t *testing.T) {
	for _, raw := range []string{"publish", "coming-soon", "coming_soon"} {
		t.Run(raw, func(t *testing.T) {
			c := competition(models.ParseStatus(raw))
			c.NominationStart = at(50 * time.Hour)

			res := Resolve(c, nil, nil, now)

			assert.Equal(t, KindComingSoon, res.Kind)
			assert.Equal(t, "comingSoon", res.Phase)
			assert.True(t, res.IsPublic)
			assert.False(t, res.IsVoting)
			require.NotNil(t, res.Countdown)
			assert.Equal(t, "2d 2h", res.Countdown.Formatted)
		})
	}
}

func TestResolveBetweenRounds(t *testing.T) {
	c := competition(models.CompetitionStatusLive)
	rounds := []models.VotingRound{
		round(1, -48*time.Hour, -24*time.Hour, "", ""),
		round(3, 72*time.Hour, 96*time.Hour, "", "Finals Week"),
		round(2, 3*time.Hour, 24*time.Hour, "", "Round Two"),
	}

	res := Resolve(c, rounds, nil, now)

	assert.Equal(t, KindBetweenRounds, res.Kind)
	assert.Equal(t, "betweenRounds", res.Phase)
	assert.False(t, res.IsVoting)
	assert.True(t, res.IsPublic)
	require.NotNil(t, res.StartsAt)
	assert.Equal(t, *rounds[2].StartDate, *res.StartsAt)
	assert.Equal(t, "3h 0m", res.Countdown.Formatted)
	assert.Equal(t, "Up Next: Round Two", res.Label)
}

func TestResolveUnknown(t *testing.T) {
	live := Resolve(competition(models.CompetitionStatusLive), nil, nil, now)
	assert.Equal(t, KindUnknown, live.Kind)
	assert.True(t, live.IsPublic)

	other := Resolve(competition(models.ParseStatus("paused")), nil, nil, now)
	assert.Equal(t, KindUnknown, other.Kind)
	assert.False(t, other.IsPublic)
}

func TestResolveNeverUnknownWithSingleActiveRound(t *testing.T) {
	statuses := []models.CompetitionStatus{
		models.CompetitionStatusLive,
		models.CompetitionStatusComingSoon,
		models.CompetitionStatusUnknown,
	}
	for _, status := range statuses {
		rounds := []models.VotingRound{round(1, -time.Minute, time.Minute, "", "")}
		res := Resolve(competition(status), rounds, nil, now)
		assert.NotEqual(t, KindUnknown, res.Kind, string(status))
	}
}
