package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/votearena/go/internal/competition/phase"
	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/models"
	"github.com/mcdev12/votearena/go/internal/store"
)

var now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type snapshotStore map[uuid.UUID]*models.Snapshot

func (s snapshotStore) LoadSnapshot(_ context.Context, id uuid.UUID) (*models.Snapshot, error) {
	snap, ok := s[id]
	if !ok {
		return nil, store.ErrCompetitionNotFound
	}
	return snap, nil
}

type buildSource struct{ store snapshotStore }

func (b buildSource) GetReadModel(ctx context.Context, id uuid.UUID) (*view.ReadModel, error) {
	snap, err := b.store.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return view.Build(snap, now), nil
}

func ptr(t time.Time) *time.Time { return &t }

func finalsSnapshot() *models.Snapshot {
	id := uuid.New()
	return &models.Snapshot{
		Competition: models.Competition{ID: id, Title: "Grand Slam", Status: models.CompetitionStatusLive},
		Rounds: []models.VotingRound{{
			ID: uuid.New(), CompetitionID: id, RoundOrder: 3, RoundType: "final",
			StartDate: ptr(now.Add(-time.Hour)), EndDate: ptr(now.Add(2 * time.Hour)),
		}},
	}
}

func newClient(t *testing.T, snaps ...*models.Snapshot) *CompetitionServiceClient {
	t.Helper()
	st := snapshotStore{}
	for _, s := range snaps {
		st[s.Competition.ID] = s
	}
	svc := NewService(st, buildSource{store: st}, clockwork.NewFakeClockAt(now))

	mux := http.NewServeMux()
	mux.Handle(NewCompetitionServiceHandler(svc))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewCompetitionServiceClient(srv.Client(), srv.URL)
}

func TestResolvePhase(t *testing.T) {
	snap := finalsSnapshot()
	client := newClient(t, snap)
	ctx := context.Background()

	t.Run("stored competition", func(t *testing.T) {
		res, err := client.ResolvePhase(ctx, connect.NewRequest(&ResolvePhaseRequest{CompetitionID: &snap.Competition.ID}))
		require.NoError(t, err)
		assert.Equal(t, phase.KindFinals, res.Msg.Phase.Kind)
		assert.True(t, res.Msg.Phase.IsVoting)
		require.NotNil(t, res.Msg.NextTransition)
		assert.True(t, res.Msg.NextTransition.After(now))
	})

	t.Run("inline competition at explicit time", func(t *testing.T) {
		later := now.Add(24 * time.Hour)
		res, err := client.ResolvePhase(ctx, connect.NewRequest(&ResolvePhaseRequest{
			Competition: &models.Competition{Status: models.CompetitionStatusCompleted},
			Now:         &later,
		}))
		require.NoError(t, err)
		assert.Equal(t, phase.KindResults, res.Msg.Phase.Kind)
		assert.Nil(t, res.Msg.NextTransition)
	})

	t.Run("missing competition", func(t *testing.T) {
		_, err := client.ResolvePhase(ctx, connect.NewRequest(&ResolvePhaseRequest{}))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		id := uuid.New()
		_, err := client.ResolvePhase(ctx, connect.NewRequest(&ResolvePhaseRequest{CompetitionID: &id}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestCalculatePrizePool(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	res, err := client.CalculatePrizePool(ctx, connect.NewRequest(&CalculatePrizePoolRequest{
		VoteRevenue: decimal.NewFromInt(100),
		Rank:        1,
	}))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(525).Equal(res.Msg.Breakdown.FirstPrize), res.Msg.Breakdown.FirstPrize.String())
	assert.True(t, decimal.NewFromInt(1050).Equal(res.Msg.Breakdown.Total))
	require.NotNil(t, res.Msg.Prize)
	assert.Equal(t, "1st Place", res.Msg.Prize.Label)

	zero := decimal.Zero
	res, err = client.CalculatePrizePool(ctx, connect.NewRequest(&CalculatePrizePoolRequest{
		HostMinimum: &zero,
		VoteRevenue: decimal.NewFromInt(40),
		Rank:        4,
	}))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(res.Msg.Breakdown.ThirdPrize))
	assert.Nil(t, res.Msg.Prize)

	_, err = client.CalculatePrizePool(ctx, connect.NewRequest(&CalculatePrizePoolRequest{Rank: -1}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestGetReadModel(t *testing.T) {
	snap := finalsSnapshot()
	client := newClient(t, snap)
	ctx := context.Background()

	res, err := client.GetReadModel(ctx, connect.NewRequest(&GetReadModelRequest{CompetitionID: snap.Competition.ID}))
	require.NoError(t, err)
	require.NotNil(t, res.Msg.ReadModel)
	assert.Equal(t, "Grand Slam", res.Msg.ReadModel.Title)
	assert.Equal(t, phase.KindFinals, res.Msg.ReadModel.Phase.Kind)

	_, err = client.GetReadModel(ctx, connect.NewRequest(&GetReadModelRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.GetReadModel(ctx, connect.NewRequest(&GetReadModelRequest{CompetitionID: uuid.New()}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestHandlerPlainJSONPost(t *testing.T) {
	svc := NewService(snapshotStore{}, buildSource{}, clockwork.NewFakeClockAt(now))
	path, handler := NewCompetitionServiceHandler(svc)
	assert.Equal(t, "/votearena.v1.CompetitionService/", path)

	req := httptest.NewRequest(http.MethodPost, CalculatePrizePoolProcedure, strings.NewReader(`{"voteRevenue":"0"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"first_prize_formatted":"$500"`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/votearena.v1.CompetitionService/Nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
