package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompetitionStatus is the administrative status of a competition
type CompetitionStatus string

const (
	CompetitionStatusDraft      CompetitionStatus = "draft"
	CompetitionStatusComingSoon CompetitionStatus = "coming_soon"
	CompetitionStatusLive       CompetitionStatus = "live"
	CompetitionStatusCompleted  CompetitionStatus = "completed"
	CompetitionStatusCancelled  CompetitionStatus = "cancelled"
	CompetitionStatusArchived   CompetitionStatus = "archived"
	CompetitionStatusUnknown    CompetitionStatus = "unknown"
)

// ParseStatus maps a raw status string onto the closed status set.
// Unrecognised values map to CompetitionStatusUnknown.
func ParseStatus(raw string) CompetitionStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "draft":
		return CompetitionStatusDraft
	case "publish", "published", "coming-soon", "coming_soon":
		return CompetitionStatusComingSoon
	case "live":
		return CompetitionStatusLive
	case "completed":
		return CompetitionStatusCompleted
	case "cancelled", "canceled":
		return CompetitionStatusCancelled
	case "archive", "archived":
		return CompetitionStatusArchived
	default:
		return CompetitionStatusUnknown
	}
}

// UnmarshalText accepts any of the raw spellings understood by ParseStatus.
func (s *CompetitionStatus) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// Competition is a public voting competition
type Competition struct {
	ID               uuid.UUID         `json:"id"`
	Title            string            `json:"title"`
	Status           CompetitionStatus `json:"status"`
	NominationStart  *time.Time        `json:"nomination_start,omitempty"`
	NominationEnd    *time.Time        `json:"nomination_end,omitempty"`
	PrizePoolMinimum *decimal.Decimal  `json:"prize_pool_minimum,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// VotingRound is a dated voting window within a competition
type VotingRound struct {
	ID            uuid.UUID  `json:"id"`
	CompetitionID uuid.UUID  `json:"competition_id"`
	RoundOrder    int        `json:"round_order"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	RoundType     string     `json:"round_type"`
	Title         string     `json:"title"`
}

// Order returns the round order, defaulting to 1 when unset.
func (r VotingRound) Order() int {
	if r.RoundOrder <= 0 {
		return 1
	}
	return r.RoundOrder
}

// NominationPeriod is a dated window during which nominations are accepted
type NominationPeriod struct {
	ID             uuid.UUID  `json:"id"`
	CompetitionID  uuid.UUID  `json:"competition_id"`
	PeriodOrder    int        `json:"period_order"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Title          string     `json:"title"`
	MaxSubmissions int        `json:"max_submissions"`
}

// Snapshot is everything needed to derive a competition's public state,
// as returned by a single store fetch.
type Snapshot struct {
	Competition Competition        `json:"competition"`
	Rounds      []VotingRound      `json:"rounds"`
	Periods     []NominationPeriod `json:"periods"`
	Votes       []Vote             `json:"votes"`
	Contestants []Contestant       `json:"contestants"`
}
