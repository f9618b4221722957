// Package store loads competition snapshots from Postgres.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/votearena/go/internal/dbconfig"
	"github.com/mcdev12/votearena/go/internal/models"
	"github.com/mcdev12/votearena/go/internal/sqlutil"
)

// ErrCompetitionNotFound is returned when no competition has the requested ID.
var ErrCompetitionNotFound = errors.New("competition not found")

// Repository implements snapshot reads over a pgx pool
type Repository struct {
	db sqlutil.TxBeginner
}

// NewRepository creates a repository over db.
func NewRepository(db sqlutil.TxBeginner) *Repository {
	return &Repository{db: db}
}

// Connect opens a pool using cfg and verifies it.
func Connect(ctx context.Context, cfg dbconfig.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// LoadSnapshot reads a competition with its rounds, periods, votes and
// contestants in one repeatable-read transaction.
func (r *Repository) LoadSnapshot(ctx context.Context, competitionID uuid.UUID) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := sqlutil.Run(ctx, r.db, sqlutil.ReadOnlySnapshot,
		func(tx pgx.Tx) *Queries { return New(tx) },
		func(q *Queries) error {
			comp, err := q.GetCompetition(ctx, competitionID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrCompetitionNotFound
				}
				return fmt.Errorf("failed to get competition: %w", err)
			}
			snap.Competition = dbCompetitionToModel(comp)

			rounds, err := q.ListVotingRounds(ctx, competitionID)
			if err != nil {
				return fmt.Errorf("failed to list voting rounds: %w", err)
			}
			snap.Rounds = dbRoundsToModels(rounds)

			periods, err := q.ListNominationPeriods(ctx, competitionID)
			if err != nil {
				return fmt.Errorf("failed to list nomination periods: %w", err)
			}
			snap.Periods = dbPeriodsToModels(periods)

			votes, err := q.ListVotes(ctx, competitionID)
			if err != nil {
				return fmt.Errorf("failed to list votes: %w", err)
			}
			snap.Votes = dbVotesToModels(votes)

			contestants, err := q.ListContestants(ctx, competitionID)
			if err != nil {
				return fmt.Errorf("failed to list contestants: %w", err)
			}
			snap.Contestants = dbContestantsToModels(contestants)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// dbCompetitionToModel converts a database competition to domain model
func dbCompetitionToModel(row CompetitionRow) models.Competition {
	c := models.Competition{
		ID:               row.ID,
		Title:            sqlutil.FromText(row.Title, ""),
		Status:           models.ParseStatus(sqlutil.FromText(row.Status, "")),
		NominationStart:  sqlutil.FromTimestamptz(row.NominationStart),
		NominationEnd:    sqlutil.FromTimestamptz(row.NominationEnd),
		PrizePoolMinimum: sqlutil.FromDecimalText(row.PrizePoolMinimum),
	}
	if t := sqlutil.FromTimestamptz(row.CreatedAt); t != nil {
		c.CreatedAt = *t
	}
	if t := sqlutil.FromTimestamptz(row.UpdatedAt); t != nil {
		c.UpdatedAt = *t
	}
	return c
}

func dbRoundsToModels(rows []VotingRoundRow) []models.VotingRound {
	out := make([]models.VotingRound, len(rows))
	for i, row := range rows {
		out[i] = models.VotingRound{
			ID:            row.ID,
			CompetitionID: row.CompetitionID,
			RoundOrder:    sqlutil.FromInt4(row.RoundOrder),
			StartDate:     sqlutil.FromTimestamptz(row.StartDate),
			EndDate:       sqlutil.FromTimestamptz(row.EndDate),
			RoundType:     sqlutil.FromText(row.RoundType, ""),
			Title:         sqlutil.FromText(row.Title, ""),
		}
	}
	return out
}

func dbPeriodsToModels(rows []NominationPeriodRow) []models.NominationPeriod {
	out := make([]models.NominationPeriod, len(rows))
	for i, row := range rows {
		out[i] = models.NominationPeriod{
			ID:             row.ID,
			CompetitionID:  row.CompetitionID,
			PeriodOrder:    sqlutil.FromInt4(row.PeriodOrder),
			StartDate:      sqlutil.FromTimestamptz(row.StartDate),
			EndDate:        sqlutil.FromTimestamptz(row.EndDate),
			Title:          sqlutil.FromText(row.Title, ""),
			MaxSubmissions: sqlutil.FromInt4(row.MaxSubmissions),
		}
	}
	return out
}

func dbVotesToModels(rows []VoteRow) []models.Vote {
	out := make([]models.Vote, len(rows))
	for i, row := range rows {
		v := models.Vote{
			ID:            row.ID,
			CompetitionID: row.CompetitionID,
			ContestantID:  row.ContestantID,
			AmountPaid:    models.ParseAmount(sqlutil.FromText(row.AmountPaid, "0")),
			VoteCount:     sqlutil.FromInt4(row.VoteCount),
		}
		if t := sqlutil.FromTimestamptz(row.CreatedAt); t != nil {
			v.CreatedAt = *t
		}
		out[i] = v
	}
	return out
}

func dbContestantsToModels(rows []ContestantRow) []models.Contestant {
	out := make([]models.Contestant, len(rows))
	for i, row := range rows {
		out[i] = models.Contestant{
			ID:            row.ID,
			CompetitionID: row.CompetitionID,
			Name:          sqlutil.FromText(row.Name, ""),
			ImageURL:      sqlutil.FromText(row.ImageURL, ""),
			Bio:           sqlutil.FromText(row.Bio, ""),
			Status:        sqlutil.FromText(row.Status, ""),
			Votes:         sqlutil.FromInt8(row.Votes),
			Extra: sqlutil.FromRawMessage(pqtype.NullRawMessage{
				RawMessage: row.Metadata,
				Valid:      row.Metadata != nil,
			}),
		}
	}
	return out
}
