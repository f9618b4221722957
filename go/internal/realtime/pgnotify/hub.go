package pgnotify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/events"
)

type key struct {
	competitionID uuid.UUID
	kind          events.Kind
}

// hub routes decoded notifications to the subscriptions for their
// competition and kind.
type hub struct {
	mu     sync.Mutex
	subs   map[key]map[*subscription]struct{}
	buffer int
}

func newHub(buffer int) *hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &hub{subs: make(map[key]map[*subscription]struct{}), buffer: buffer}
}

func (h *hub) add(competitionID uuid.UUID, kind events.Kind) *subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := key{competitionID: competitionID, kind: kind}
	sub := &subscription{hub: h, key: k, ch: make(chan events.Envelope, h.buffer)}
	if h.subs[k] == nil {
		h.subs[k] = make(map[*subscription]struct{})
	}
	h.subs[k][sub] = struct{}{}
	return sub
}

// dispatch never blocks. A subscriber that cannot keep up has its feed
// closed so the reader resynchronises from a fresh snapshot instead of
// silently missing events.
func (h *hub) dispatch(env events.Envelope) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := key{competitionID: env.CompetitionID, kind: env.Kind}
	delivered := 0
	for sub := range h.subs[k] {
		select {
		case sub.ch <- env:
			delivered++
		default:
			log.Warn().
				Str("competition_id", env.CompetitionID.String()).
				Str("kind", string(env.Kind)).
				Msg("subscriber buffer full, dropping feed")
			h.removeLocked(sub)
		}
	}
	return delivered
}

// dropAll closes every feed. Used when the LISTEN connection is lost and
// notifications may have been missed.
func (h *hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for sub := range set {
			h.removeLocked(sub)
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

func (h *hub) removeLocked(sub *subscription) {
	set, ok := h.subs[sub.key]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.key)
	}
	close(sub.ch)
}

type subscription struct {
	hub *hub
	key key
	ch  chan events.Envelope
}

func (s *subscription) Events() <-chan events.Envelope {
	return s.ch
}

func (s *subscription) Unsubscribe() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s)
}
