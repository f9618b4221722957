// Package leaderboard keeps an in-memory contestant standings model in step
// with real-time vote and contestant events.
package leaderboard

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/models"
)

// Sync owns the contestant read model for one competition. It is not safe
// for concurrent use.
type Sync struct {
	contestants map[uuid.UUID]models.Contestant
	seenVotes   map[uuid.UUID]struct{}
	ranked      []models.Contestant
}

// New builds the read model from persisted contestants. votes are the votes
// already reflected in the contestants' counts; their IDs are remembered so
// that replayed events are not counted twice.
func New(contestants []models.Contestant, votes []models.Vote) *Sync {
	s := &Sync{
		contestants: make(map[uuid.UUID]models.Contestant, len(contestants)),
		seenVotes:   make(map[uuid.UUID]struct{}, len(votes)),
	}
	for _, c := range contestants {
		s.contestants[c.ID] = c.Clone()
	}
	for _, v := range votes {
		if v.ID != uuid.Nil {
			s.seenVotes[v.ID] = struct{}{}
		}
	}
	s.rerank()
	return s
}

// ApplyVote increments the voted contestant. Unknown contestants and vote IDs
// already seen are ignored and reported as false.
func (s *Sync) ApplyVote(ev events.VoteInserted) bool {
	c, ok := s.contestants[ev.ContestantID]
	if !ok {
		return false
	}
	if ev.VoteID != uuid.Nil {
		if _, dup := s.seenVotes[ev.VoteID]; dup {
			return false
		}
		s.seenVotes[ev.VoteID] = struct{}{}
	}

	count := ev.VoteCount
	if count <= 0 {
		count = 1
	}
	c.Votes += int64(count)
	s.contestants[c.ID] = c
	s.rerank()
	return true
}

// ApplyUpdate merges a contestant update. Unknown contestants are ignored.
func (s *Sync) ApplyUpdate(ev events.ContestantUpdated) bool {
	c, ok := s.contestants[ev.ID]
	if !ok {
		return false
	}
	s.contestants[ev.ID] = Merge(c, ev)
	s.rerank()
	return true
}

// Standings returns the contestants ordered by rank. The slice is a copy.
func (s *Sync) Standings() []models.Contestant {
	out := make([]models.Contestant, len(s.ranked))
	for i, c := range s.ranked {
		out[i] = c.Clone()
	}
	return out
}

// Contestant looks up a single contestant.
func (s *Sync) Contestant(id uuid.UUID) (models.Contestant, bool) {
	c, ok := s.contestants[id]
	return c.Clone(), ok
}

// rerank orders contestants by votes and assigns standard competition ranks
// (1, 2, 2, 4). Ties are ordered by name, then ID.
func (s *Sync) rerank() {
	ranked := make([]models.Contestant, 0, len(s.contestants))
	for _, c := range s.contestants {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})
	for i := range ranked {
		if i > 0 && ranked[i].Votes == ranked[i-1].Votes {
			ranked[i].Rank = ranked[i-1].Rank
		} else {
			ranked[i].Rank = i + 1
		}
		s.contestants[ranked[i].ID] = ranked[i]
	}
	s.ranked = ranked
}
