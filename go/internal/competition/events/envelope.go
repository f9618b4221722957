package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a real-time change stream
type Kind string

const (
	KindVoteInserted      Kind = "vote_inserted"
	KindContestantUpdated Kind = "contestant_updated"
)

// Kinds lists every stream a competition view listens to.
var Kinds = []Kind{KindVoteInserted, KindContestantUpdated}

// Envelope is the wire format shared by every transport
type Envelope struct {
	EventID       uuid.UUID       `json:"eventId"`
	Kind          Kind            `json:"kind"`
	CompetitionID uuid.UUID       `json:"competitionId"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload for publishing.
func NewEnvelope(competitionID uuid.UUID, kind Kind, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return Envelope{
		EventID:       uuid.New(),
		Kind:          kind,
		CompetitionID: competitionID,
		Timestamp:     time.Now().UTC(),
		Payload:       data,
	}, nil
}

// ParsePayload decodes the envelope payload into the struct for its kind.
// Unknown kinds return (nil, nil).
func ParsePayload(env Envelope) (any, error) {
	switch env.Kind {
	case KindVoteInserted:
		var payload VoteInserted
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode vote_inserted: %w", err)
		}
		return payload, nil

	case KindContestantUpdated:
		var payload ContestantUpdated
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode contestant_updated: %w", err)
		}
		return payload, nil

	default:
		return nil, nil
	}
}
