package leaderboard

import (
	"encoding/json"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/models"
)

// Merge applies the fields present in patch to c and returns the result.
// Fields absent from the patch keep their current value, so two updates that
// touch different fields never overwrite each other. The vote count never
// moves backward.
func Merge(c models.Contestant, patch events.ContestantUpdated) models.Contestant {
	out := c.Clone()
	if patch.Votes != nil && *patch.Votes > out.Votes {
		out.Votes = *patch.Votes
	}
	if patch.Rank != nil {
		out.Rank = *patch.Rank
	}
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.ImageURL != nil {
		out.ImageURL = *patch.ImageURL
	}
	if patch.Bio != nil {
		out.Bio = *patch.Bio
	}
	if patch.Status != nil {
		out.Status = *patch.Status
	}
	if len(patch.Extra) > 0 && out.Extra == nil {
		out.Extra = make(map[string]json.RawMessage, len(patch.Extra))
	}
	for k, v := range patch.Extra {
		out.Extra[k] = v
	}
	return out
}
