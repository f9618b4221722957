package phase

import (
	"time"

	"github.com/mcdev12/votearena/go/internal/models"
)

// NextTransition returns the earliest configured window boundary strictly
// after now, or nil when no boundary remains. End dates are inclusive, so the
// phase changes just after an end date; the returned instant accounts for that.
func NextTransition(
	c models.Competition,
	rounds []models.VotingRound,
	periods []models.NominationPeriod,
	now time.Time,
) *time.Time {
	var next *time.Time
	consider := func(t *time.Time, inclusiveEnd bool) {
		if !valid(t) {
			return
		}
		at := *t
		if inclusiveEnd {
			at = at.Add(time.Nanosecond)
		}
		if !at.After(now) {
			return
		}
		if next == nil || at.Before(*next) {
			next = &at
		}
	}

	for _, r := range rounds {
		consider(r.StartDate, false)
		consider(r.EndDate, true)
	}
	for _, p := range periods {
		consider(p.StartDate, false)
		consider(p.EndDate, true)
	}
	consider(c.NominationStart, false)
	consider(c.NominationEnd, true)
	return next
}

// Overlap is a pair of voting rounds whose windows intersect
type Overlap struct {
	First  models.VotingRound
	Second models.VotingRound
}

// OverlappingRounds reports every pair of rounds with intersecting windows.
// Resolve still picks the first active round; callers use this to surface the
// configuration problem.
func OverlappingRounds(rounds []models.VotingRound) []Overlap {
	var out []Overlap
	for i := 0; i < len(rounds); i++ {
		a := rounds[i]
		if !valid(a.StartDate) || !valid(a.EndDate) {
			continue
		}
		for j := i + 1; j < len(rounds); j++ {
			b := rounds[j]
			if !valid(b.StartDate) || !valid(b.EndDate) {
				continue
			}
			if !a.StartDate.After(*b.EndDate) && !b.StartDate.After(*a.EndDate) {
				out = append(out, Overlap{First: a, Second: b})
			}
		}
	}
	return out
}
