package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/votearena/go/internal/models"
)

// Payload types shared by the view, the transports and the CLI publisher

// VoteInserted is emitted once per new vote row
type VoteInserted struct {
	VoteID       uuid.UUID     `json:"voteId"`
	ContestantID uuid.UUID     `json:"contestantId"`
	AmountPaid   models.Amount `json:"amountPaid"`
	VoteCount    int           `json:"voteCount,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Vote converts the payload into a vote record.
func (p VoteInserted) Vote(competitionID uuid.UUID) models.Vote {
	return models.Vote{
		ID:            p.VoteID,
		CompetitionID: competitionID,
		ContestantID:  p.ContestantID,
		AmountPaid:    p.AmountPaid,
		VoteCount:     p.VoteCount,
		CreatedAt:     p.CreatedAt,
	}
}

// ContestantUpdated carries only the fields that changed on a contestant row.
// Absent fields are nil and leave the local value untouched.
type ContestantUpdated struct {
	ID       uuid.UUID                  `json:"id"`
	Votes    *int64                     `json:"votes,omitempty"`
	Rank     *int                       `json:"rank,omitempty"`
	Name     *string                    `json:"name,omitempty"`
	ImageURL *string                    `json:"imageUrl,omitempty"`
	Bio      *string                    `json:"bio,omitempty"`
	Status   *string                    `json:"status,omitempty"`
	Extra    map[string]json.RawMessage `json:"extra,omitempty"`
}
