package phase

import (
	"fmt"
	"time"

	"github.com/mcdev12/votearena/go/internal/models"
)

// Kind is the closed set of lifecycle phases a competition can be in
type Kind string

const (
	KindDraft         Kind = "draft"
	KindCancelled     Kind = "cancelled"
	KindArchived      Kind = "archived"
	KindComingSoon    Kind = "coming_soon"
	KindNominations   Kind = "nominations"
	KindRound         Kind = "round"
	KindResurrection  Kind = "resurrection"
	KindFinals        Kind = "finals"
	KindBetweenRounds Kind = "between_rounds"
	KindResults       Kind = "results"
	KindUnknown       Kind = "unknown"
)

// Voting reports whether the phase accepts paid votes.
func (k Kind) Voting() bool {
	switch k {
	case KindRound, KindResurrection, KindFinals:
		return true
	}
	return false
}

// Result is the resolved phase of a competition at an instant
type Result struct {
	Kind        Kind                     `json:"kind"`
	Phase       string                   `json:"phase"`
	Round       int                      `json:"round,omitempty"`
	Label       string                   `json:"label"`
	IsPublic    bool                     `json:"is_public"`
	IsVoting    bool                     `json:"is_voting"`
	CanNominate bool                     `json:"can_nominate"`
	IsComplete  bool                     `json:"is_complete"`
	StartsAt    *time.Time               `json:"starts_at,omitempty"`
	EndsAt      *time.Time               `json:"ends_at,omitempty"`
	Countdown   *TimeRemaining           `json:"countdown,omitempty"`
	VotingRound *models.VotingRound      `json:"voting_round,omitempty"`
	Period      *models.NominationPeriod `json:"nomination_period,omitempty"`
}

// phaseName renders the public phase identifier, e.g. "round2" or "betweenRounds".
func phaseName(k Kind, round int) string {
	switch k {
	case KindRound:
		return fmt.Sprintf("round%d", round)
	case KindComingSoon:
		return "comingSoon"
	case KindBetweenRounds:
		return "betweenRounds"
	default:
		return string(k)
	}
}

func newResult(k Kind, label string) Result {
	return Result{
		Kind:     k,
		Phase:    phaseName(k, 0),
		Label:    label,
		IsVoting: k.Voting(),
	}
}
