package view

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/competition/phase"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

// subscriptions holds the two feeds a voting competition listens to.
type subscriptions struct {
	votes       realtime.Subscription
	contestants realtime.Subscription
}

func (s *subscriptions) open() bool {
	return s.votes != nil && s.contestants != nil
}

func (s *subscriptions) count() int {
	n := 0
	if s.votes != nil {
		n++
	}
	if s.contestants != nil {
		n++
	}
	return n
}

// a nil channel blocks forever in select, which disables that case.
func (s *subscriptions) voteEvents() <-chan events.Envelope {
	if s.votes == nil {
		return nil
	}
	return s.votes.Events()
}

func (s *subscriptions) contestantEvents() <-chan events.Envelope {
	if s.contestants == nil {
		return nil
	}
	return s.contestants.Events()
}

func (s *subscriptions) get(kind events.Kind) *realtime.Subscription {
	if kind == events.KindVoteInserted {
		return &s.votes
	}
	return &s.contestants
}

// run is the view's single consumer loop. Every exit path unsubscribes.
func (v *View) run(ctx context.Context, st *state, done chan struct{}, logger zerolog.Logger) {
	defer close(done)

	subs := &subscriptions{}
	defer v.closeSubscriptions(subs, logger)

	ticker := v.clock.NewTicker(v.tick)
	defer ticker.Stop()

	var transition clockwork.Timer
	defer func() {
		if transition != nil {
			transition.Stop()
		}
	}()
	armTransition := func(now time.Time) {
		if transition != nil {
			transition.Stop()
			transition = nil
		}
		if next := phase.NextTransition(st.competition, st.rounds, st.periods, now); next != nil {
			transition = v.clock.NewTimer(next.Sub(now))
		}
	}
	transitionCh := func() <-chan time.Time {
		if transition == nil {
			return nil
		}
		return transition.Chan()
	}

	if v.syncSubscriptions(ctx, st, subs, logger) {
		v.publish(st.model(v.clock.Now()))
	}
	armTransition(v.clock.Now())

	for {
		select {
		case <-ctx.Done():
			return

		case env, ok := <-subs.voteEvents():
			v.handle(ctx, st, subs, events.KindVoteInserted, env, ok, logger)

		case env, ok := <-subs.contestantEvents():
			v.handle(ctx, st, subs, events.KindContestantUpdated, env, ok, logger)

		case <-ticker.Chan():
			v.reevaluate(ctx, st, subs, logger)

		case <-transitionCh():
			v.reevaluate(ctx, st, subs, logger)
			armTransition(v.clock.Now())
		}
	}
}

// handle applies one event or reacts to a dropped feed.
func (v *View) handle(
	ctx context.Context,
	st *state,
	subs *subscriptions,
	kind events.Kind,
	env events.Envelope,
	ok bool,
	logger zerolog.Logger,
) {
	// select picks randomly among ready cases; never apply after cancellation.
	if ctx.Err() != nil {
		return
	}

	if !ok {
		logger.Warn().Str("kind", string(kind)).Msg("real-time feed dropped; keeping last read model")
		v.metrics.transportError()
		v.metrics.subscriptionDelta(-1)
		*subs.get(kind) = nil
		st.live = false
		st.stale = true
		st.resync = true
		v.publish(st.model(v.clock.Now()))
		return
	}

	if env.CompetitionID != st.id() {
		return
	}

	changed, err := st.apply(env)
	if err != nil {
		logger.Error().Err(err).
			Str("event_id", env.EventID.String()).
			Str("kind", string(kind)).
			Msg("failed to apply event")
		v.metrics.eventError(kind)
		return
	}
	v.metrics.eventApplied(kind, changed)
	if changed {
		v.publish(st.model(v.clock.Now()))
	}
}

// reevaluate re-resolves the phase and reconciles subscriptions with it.
func (v *View) reevaluate(ctx context.Context, st *state, subs *subscriptions, logger zerolog.Logger) {
	now := v.clock.Now()
	prevCountdown := countdownText(st.phase)
	changed := st.resolve(now)
	if changed {
		logger.Info().Str("phase", st.phase.Phase).Bool("voting", st.phase.IsVoting).Msg("phase changed")
	}
	if v.syncSubscriptions(ctx, st, subs, logger) {
		changed = true
	}
	if changed || countdownText(st.phase) != prevCountdown {
		v.publish(st.model(now))
	}
}

// syncSubscriptions opens both feeds while voting and closes them otherwise.
// It reports whether the live or stale flags changed.
func (v *View) syncSubscriptions(ctx context.Context, st *state, subs *subscriptions, logger zerolog.Logger) bool {
	wasLive, wasStale := st.live, st.stale

	if !st.phase.IsVoting {
		if subs.count() > 0 {
			v.closeSubscriptions(subs, logger)
		}
		st.live = false
		st.stale = false
		st.resync = false
		return wasLive != st.live || wasStale != st.stale
	}

	for _, kind := range events.Kinds {
		slot := subs.get(kind)
		if *slot != nil {
			continue
		}
		sub, err := v.transport.Subscribe(ctx, st.id(), kind)
		if err != nil {
			logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to subscribe; will retry")
			v.metrics.transportError()
			st.stale = true
			st.resync = true
			continue
		}
		*slot = sub
		v.metrics.subscriptionDelta(1)
		logger.Debug().Str("kind", string(kind)).Msg("subscribed")
	}

	st.live = subs.open()
	if st.live && st.resync {
		v.resync(ctx, st, logger)
	}
	return wasLive != st.live || wasStale != st.stale
}

// resync refetches the snapshot once the feeds open, initially and after a
// gap. Both feeds are already open, so anything persisted after the fetch
// still arrives as an event and anything before it is de-duplicated by vote
// ID.
func (v *View) resync(ctx context.Context, st *state, logger zerolog.Logger) {
	snap, err := v.store.LoadSnapshot(ctx, st.id())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to refresh snapshot; will retry")
		return
	}
	fresh := newState(snap, v.clock.Now())
	st.competition = fresh.competition
	st.rounds = fresh.rounds
	st.periods = fresh.periods
	st.revenue = fresh.revenue
	st.board = fresh.board
	st.resolve(v.clock.Now())
	st.stale = false
	st.resync = false
	logger.Info().Msg("read model refreshed from snapshot")
}

func (v *View) closeSubscriptions(subs *subscriptions, logger zerolog.Logger) {
	n := subs.count()
	if n == 0 {
		return
	}
	if subs.votes != nil {
		subs.votes.Unsubscribe()
		subs.votes = nil
	}
	if subs.contestants != nil {
		subs.contestants.Unsubscribe()
		subs.contestants = nil
	}
	v.metrics.subscriptionDelta(-n)
	logger.Debug().Int("subscriptions", n).Msg("unsubscribed")
}

func countdownText(r phase.Result) string {
	if r.Countdown == nil {
		return ""
	}
	return r.Countdown.Formatted
}
