package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Contestant is a nominee standing in a competition
type Contestant struct {
	ID            uuid.UUID                  `json:"id"`
	CompetitionID uuid.UUID                  `json:"competition_id"`
	Name          string                     `json:"name"`
	ImageURL      string                     `json:"image_url,omitempty"`
	Bio           string                     `json:"bio,omitempty"`
	Status        string                     `json:"status,omitempty"`
	Votes         int64                      `json:"votes"`
	Rank          int                        `json:"rank"`
	Extra         map[string]json.RawMessage `json:"extra,omitempty"`
}

// Clone returns a copy that shares no mutable state with c.
func (c Contestant) Clone() Contestant {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
