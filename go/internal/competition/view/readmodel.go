package view

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/competition/leaderboard"
	"github.com/mcdev12/votearena/go/internal/competition/phase"
	"github.com/mcdev12/votearena/go/internal/competition/prizepool"
	"github.com/mcdev12/votearena/go/internal/competition/revenue"
	"github.com/mcdev12/votearena/go/internal/models"
)

// ReadModel is an immutable snapshot of a competition's public state.
// Callers must not modify it.
type ReadModel struct {
	CompetitionID uuid.UUID                `json:"competition_id"`
	Title         string                   `json:"title"`
	Status        models.CompetitionStatus `json:"status"`
	Phase         phase.Result             `json:"phase"`
	PrizePool     prizepool.Breakdown      `json:"prize_pool"`
	Prizes        []prizepool.PrizeInfo    `json:"prizes"`
	Contestants   []models.Contestant      `json:"contestants"`
	VoteCount     int                      `json:"vote_count"`
	Live          bool                     `json:"live"`
	Stale         bool                     `json:"stale"`

	// Version increases with every publish of a competition's model. It is
	// seeded from the load time, so a rebuilt view continues past the
	// versions of the one it replaced.
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`

	// ValidUntil is the next window boundary, after which Phase no longer
	// holds. Nil when no boundary remains.
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// Build composes a one-shot read model from a snapshot without subscribing
// to anything.
func Build(snap *models.Snapshot, now time.Time) *ReadModel {
	st := newState(snap, now)
	st.resolve(now)
	return st.model(now)
}

// FreshAt reports whether the model's phase still holds at now.
func (m *ReadModel) FreshAt(now time.Time) bool {
	return m.ValidUntil == nil || now.Before(*m.ValidUntil)
}

// At returns a copy of m with the countdown recomputed for now. The copy is
// not live: nothing keeps it current. Callers check FreshAt first.
func (m *ReadModel) At(now time.Time) *ReadModel {
	out := *m
	out.Phase = m.Phase.At(now)
	out.Live = false
	return &out
}

// state is the mutable read model owned by a view's loop goroutine.
type state struct {
	competition models.Competition
	rounds      []models.VotingRound
	periods     []models.NominationPeriod
	revenue     *revenue.Aggregator
	board       *leaderboard.Sync
	phase       phase.Result

	live    bool
	stale   bool
	resync  bool
	version uint64
}

func newState(snap *models.Snapshot, now time.Time) *state {
	return &state{
		competition: snap.Competition,
		rounds:      snap.Rounds,
		periods:     snap.Periods,
		revenue:     revenue.NewAggregator(snap.Votes),
		board:       leaderboard.New(snap.Contestants, snap.Votes),
		version:     uint64(max(now.UnixMicro(), 0)),
	}
}

func (st *state) id() uuid.UUID {
	return st.competition.ID
}

// resolve re-evaluates the phase and reports whether it changed.
func (st *state) resolve(now time.Time) bool {
	next := phase.Resolve(st.competition, st.rounds, st.periods, now)
	changed := next.Phase != st.phase.Phase || next.IsVoting != st.phase.IsVoting
	st.phase = next
	return changed
}

// apply routes one envelope and reports whether the read model changed.
func (st *state) apply(env events.Envelope) (bool, error) {
	payload, err := events.ParsePayload(env)
	if err != nil {
		return false, err
	}
	switch p := payload.(type) {
	case events.VoteInserted:
		if p.VoteID == uuid.Nil {
			p.VoteID = env.EventID
		}
		counted := st.revenue.Apply(p.Vote(st.id()))
		bumped := st.board.ApplyVote(p)
		return counted || bumped, nil
	case events.ContestantUpdated:
		return st.board.ApplyUpdate(p), nil
	}
	return false, nil
}

func (st *state) prizePool() prizepool.Breakdown {
	return prizepool.Calculate(prizepool.HostMinimum(st.competition.PrizePoolMinimum), st.revenue.Total())
}

func (st *state) model(now time.Time) *ReadModel {
	pool := st.prizePool()
	prizes := make([]prizepool.PrizeInfo, 0, 3)
	for rank := 1; rank <= 3; rank++ {
		if p := prizepool.ForRank(rank, pool); p != nil {
			prizes = append(prizes, *p)
		}
	}
	st.version++
	return &ReadModel{
		CompetitionID: st.competition.ID,
		Title:         st.competition.Title,
		Status:        st.competition.Status,
		Phase:         st.phase,
		PrizePool:     pool,
		Prizes:        prizes,
		Contestants:   st.board.Standings(),
		VoteCount:     st.revenue.Count(),
		Live:          st.live,
		Stale:         st.stale,
		Version:       st.version,
		UpdatedAt:     now,
		ValidUntil:    phase.NextTransition(st.competition, st.rounds, st.periods, now),
	}
}
