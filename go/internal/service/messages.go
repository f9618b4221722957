package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/votearena/go/internal/competition/phase"
	"github.com/mcdev12/votearena/go/internal/competition/prizepool"
	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/models"
)

// ResolvePhaseRequest resolves either a stored competition (CompetitionID)
// or the inline competition, rounds and periods. Now defaults to the server
// clock.
type ResolvePhaseRequest struct {
	CompetitionID *uuid.UUID                `json:"competitionId,omitempty"`
	Competition   *models.Competition       `json:"competition,omitempty"`
	Rounds        []models.VotingRound      `json:"rounds,omitempty"`
	Periods       []models.NominationPeriod `json:"periods,omitempty"`
	Now           *time.Time                `json:"now,omitempty"`
}

type ResolvePhaseResponse struct {
	Phase          phase.Result `json:"phase"`
	NextTransition *time.Time   `json:"nextTransition,omitempty"`
}

type CalculatePrizePoolRequest struct {
	// HostMinimum falls back to the default when omitted
	HostMinimum *decimal.Decimal `json:"hostMinimum,omitempty"`
	VoteRevenue decimal.Decimal  `json:"voteRevenue"`
	Rank        int              `json:"rank,omitempty"`
}

type CalculatePrizePoolResponse struct {
	Breakdown prizepool.Breakdown  `json:"breakdown"`
	Prize     *prizepool.PrizeInfo `json:"prize,omitempty"`
}

type GetReadModelRequest struct {
	CompetitionID uuid.UUID `json:"competitionId"`
}

type GetReadModelResponse struct {
	ReadModel *view.ReadModel `json:"readModel"`
}
