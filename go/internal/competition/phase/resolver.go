// Package phase derives a competition's lifecycle phase from its configured
// date windows. Everything here is a pure function of its inputs and the
// supplied instant; nothing reads the wall clock.
package phase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mcdev12/votearena/go/internal/models"
)

// Resolve determines which phase c is in at now. The first matching rule wins:
// terminal statuses, then an active voting round, then an active nomination
// window, then the coming-soon and between-rounds states, then unknown.
// Missing or inverted date windows never match; Resolve cannot fail.
func Resolve(
	c models.Competition,
	rounds []models.VotingRound,
	periods []models.NominationPeriod,
	now time.Time,
) Result {
	switch c.Status {
	case models.CompetitionStatusCancelled:
		return newResult(KindCancelled, "Cancelled")
	case models.CompetitionStatusCompleted:
		res := newResult(KindResults, "Results")
		res.IsPublic = true
		res.IsComplete = true
		return res
	case models.CompetitionStatusDraft:
		return newResult(KindDraft, "Draft")
	case models.CompetitionStatusArchived:
		return newResult(KindArchived, "Archived")
	}

	// Overlapping rounds: the first in iteration order wins.
	for i := range rounds {
		if within(rounds[i].StartDate, rounds[i].EndDate, now) {
			return roundResult(rounds[i], now)
		}
	}

	for i := range periods {
		if within(periods[i].StartDate, periods[i].EndDate, now) {
			return periodResult(periods[i], now)
		}
	}

	if c.Status == models.CompetitionStatusLive && within(c.NominationStart, c.NominationEnd, now) {
		res := newResult(KindNominations, "Nominations Open")
		res.IsPublic = true
		res.CanNominate = true
		res.StartsAt = c.NominationStart
		res.EndsAt = c.NominationEnd
		res.Countdown = countdownTo(c.NominationEnd, now)
		return res
	}

	switch c.Status {
	case models.CompetitionStatusComingSoon:
		res := newResult(KindComingSoon, "Coming Soon")
		res.IsPublic = true
		if valid(c.NominationStart) {
			res.StartsAt = c.NominationStart
			res.Countdown = countdownTo(c.NominationStart, now)
		}
		return res

	case models.CompetitionStatusLive:
		if next := nextRound(rounds, now); next != nil {
			res := newResult(KindBetweenRounds, "Between Rounds")
			res.IsPublic = true
			res.StartsAt = next.StartDate
			res.Countdown = countdownTo(next.StartDate, now)
			res.VotingRound = next
			if next.Title != "" {
				res.Label = "Up Next: " + next.Title
			}
			return res
		}
	}

	res := newResult(KindUnknown, "")
	res.IsPublic = c.Status == models.CompetitionStatusLive || c.Status == models.CompetitionStatusComingSoon
	return res
}

// Classify returns the phase kind for an active round. roundType is checked
// before title.
func Classify(r models.VotingRound) Kind {
	for _, s := range []string{r.RoundType, r.Title} {
		s = strings.ToLower(s)
		if strings.Contains(s, "resurrection") {
			return KindResurrection
		}
		if strings.Contains(s, "final") {
			return KindFinals
		}
	}
	return KindRound
}

func roundResult(r models.VotingRound, now time.Time) Result {
	kind := Classify(r)
	res := newResult(kind, r.Title)
	res.IsPublic = true
	res.StartsAt = r.StartDate
	res.EndsAt = r.EndDate
	res.Countdown = countdownTo(r.EndDate, now)
	round := r
	res.VotingRound = &round

	switch kind {
	case KindRound:
		res.Round = r.Order()
		res.Phase = phaseName(KindRound, res.Round)
		if res.Label == "" {
			res.Label = fmt.Sprintf("Round %d", res.Round)
		}
	case KindResurrection:
		if res.Label == "" {
			res.Label = "Resurrection Round"
		}
	case KindFinals:
		if res.Label == "" {
			res.Label = "Finals"
		}
	}
	return res
}

func periodResult(p models.NominationPeriod, now time.Time) Result {
	label := p.Title
	if label == "" {
		label = "Nominations Open"
	}
	res := newResult(KindNominations, label)
	res.IsPublic = true
	res.CanNominate = true
	res.StartsAt = p.StartDate
	res.EndsAt = p.EndDate
	res.Countdown = countdownTo(p.EndDate, now)
	period := p
	res.Period = &period
	return res
}

// nextRound returns the earliest round starting strictly after now.
func nextRound(rounds []models.VotingRound, now time.Time) *models.VotingRound {
	var upcoming []models.VotingRound
	for _, r := range rounds {
		if valid(r.StartDate) && r.StartDate.After(now) {
			upcoming = append(upcoming, r)
		}
	}
	if len(upcoming) == 0 {
		return nil
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartDate.Before(*upcoming[j].StartDate)
	})
	return &upcoming[0]
}

// within reports whether now lies in the inclusive window [start, end].
func within(start, end *time.Time, now time.Time) bool {
	if !valid(start) || !valid(end) {
		return false
	}
	return !now.Before(*start) && !now.After(*end)
}

func valid(t *time.Time) bool {
	return t != nil && !t.IsZero()
}
