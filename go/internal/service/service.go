// Package service exposes the phase resolver, prize pool engine and read
// model over Connect.
package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/votearena/go/internal/clock"
	"github.com/mcdev12/votearena/go/internal/competition/phase"
	"github.com/mcdev12/votearena/go/internal/competition/prizepool"
	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/store"
)

// ReadModelSource finds the current read model of a competition.
type ReadModelSource interface {
	GetReadModel(ctx context.Context, competitionID uuid.UUID) (*view.ReadModel, error)
}

// Service implements CompetitionServiceHandler
type Service struct {
	store  view.Store
	models ReadModelSource
	clock  clock.Clock
}

var _ CompetitionServiceHandler = (*Service)(nil)

func NewService(st view.Store, models ReadModelSource, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{store: st, models: models, clock: clk}
}

func (s *Service) ResolvePhase(ctx context.Context, req *connect.Request[ResolvePhaseRequest]) (*connect.Response[ResolvePhaseResponse], error) {
	msg := req.Msg
	now := s.clock.Now()
	if msg.Now != nil {
		now = *msg.Now
	}

	var (
		competition = msg.Competition
		rounds      = msg.Rounds
		periods     = msg.Periods
	)
	if msg.CompetitionID != nil {
		snap, err := s.store.LoadSnapshot(ctx, *msg.CompetitionID)
		if err != nil {
			return nil, toConnectError(err)
		}
		competition, rounds, periods = &snap.Competition, snap.Rounds, snap.Periods
	}
	if competition == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("competitionId or competition is required"))
	}

	return connect.NewResponse(&ResolvePhaseResponse{
		Phase:          phase.Resolve(*competition, rounds, periods, now),
		NextTransition: phase.NextTransition(*competition, rounds, periods, now),
	}), nil
}

func (s *Service) CalculatePrizePool(_ context.Context, req *connect.Request[CalculatePrizePoolRequest]) (*connect.Response[CalculatePrizePoolResponse], error) {
	msg := req.Msg
	if msg.Rank < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("rank must not be negative, got %d", msg.Rank))
	}

	breakdown := prizepool.Calculate(prizepool.HostMinimum(msg.HostMinimum), msg.VoteRevenue)
	res := &CalculatePrizePoolResponse{Breakdown: breakdown}
	if msg.Rank > 0 {
		res.Prize = prizepool.ForRank(msg.Rank, breakdown)
	}
	return connect.NewResponse(res), nil
}

func (s *Service) GetReadModel(ctx context.Context, req *connect.Request[GetReadModelRequest]) (*connect.Response[GetReadModelResponse], error) {
	if req.Msg.CompetitionID == uuid.Nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("competitionId is required"))
	}

	m, err := s.models.GetReadModel(ctx, req.Msg.CompetitionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetReadModelResponse{ReadModel: m}), nil
}

func toConnectError(err error) error {
	if errors.Is(err, store.ErrCompetitionNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
