// Package memory is an in-process Transport used for local runs and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

const defaultBuffer = 256

// ErrClosed is returned once the bus has been closed.
var ErrClosed = errors.New("memory bus closed")

type key struct {
	competitionID uuid.UUID
	kind          events.Kind
}

// Bus fans published envelopes out to matching subscriptions
type Bus struct {
	mu         sync.Mutex
	subs       map[key]map[*subscription]struct{}
	buffer     int
	failures   []error
	closed     bool
	subscribes int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[key]map[*subscription]struct{}),
		buffer: defaultBuffer,
	}
}

var (
	_ realtime.Transport = (*Bus)(nil)
	_ realtime.Publisher = (*Bus)(nil)
)

// Subscribe opens a feed for one competition and kind.
func (b *Bus) Subscribe(ctx context.Context, competitionID uuid.UUID, kind events.Kind) (realtime.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribes++
	if b.closed {
		return nil, ErrClosed
	}
	if len(b.failures) > 0 {
		err := b.failures[0]
		b.failures = b.failures[1:]
		return nil, err
	}

	k := key{competitionID: competitionID, kind: kind}
	sub := &subscription{bus: b, key: k, ch: make(chan events.Envelope, b.buffer)}
	if b.subs[k] == nil {
		b.subs[k] = make(map[*subscription]struct{})
	}
	b.subs[k][sub] = struct{}{}
	return sub, nil
}

// Publish delivers env to every subscription for its competition and kind.
// A subscriber whose buffer is full misses the event.
func (b *Bus) Publish(_ context.Context, env events.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	for sub := range b.subs[key{competitionID: env.CompetitionID, kind: env.Kind}] {
		select {
		case sub.ch <- env:
		default:
			log.Warn().
				Str("competition_id", env.CompetitionID.String()).
				Str("kind", string(env.Kind)).
				Msg("subscriber buffer full, dropping event")
		}
	}
	return nil
}

// FailNextSubscribe makes the next Subscribe calls fail with the given errors, in order.
func (b *Bus) FailNextSubscribe(errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, errs...)
}

// Drop closes every live subscription for a competition and kind, as a
// broken connection would.
func (b *Bus) Drop(competitionID uuid.UUID, kind events.Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{competitionID: competitionID, kind: kind}
	for sub := range b.subs[k] {
		sub.closeLocked()
	}
}

// Subscribers returns the number of live subscriptions for a competition and kind.
func (b *Bus) Subscribers(competitionID uuid.UUID, kind events.Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key{competitionID: competitionID, kind: kind}])
}

// SubscribeCalls returns how many times Subscribe has been called.
func (b *Bus) SubscribeCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscribes
}

// Close drops every subscription and rejects further use.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for _, subs := range b.subs {
		for sub := range subs {
			sub.closeLocked()
		}
	}
}

type subscription struct {
	bus    *Bus
	key    key
	ch     chan events.Envelope
	closed bool
}

func (s *subscription) Events() <-chan events.Envelope {
	return s.ch
}

func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.closeLocked()
}

func (s *subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	subs := s.bus.subs[s.key]
	delete(subs, s)
	if len(subs) == 0 {
		delete(s.bus.subs, s.key)
	}
}
