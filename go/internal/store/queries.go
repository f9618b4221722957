package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the snapshot reads against a connection or transaction
type Queries struct {
	db DBTX
}

// New binds queries to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Row types mirror the selected columns; nullable columns use pgtype.

type CompetitionRow struct {
	ID               uuid.UUID
	Title            pgtype.Text
	Status           pgtype.Text
	NominationStart  pgtype.Timestamptz
	NominationEnd    pgtype.Timestamptz
	PrizePoolMinimum pgtype.Text
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

type VotingRoundRow struct {
	ID            uuid.UUID
	CompetitionID uuid.UUID
	RoundOrder    pgtype.Int4
	StartDate     pgtype.Timestamptz
	EndDate       pgtype.Timestamptz
	RoundType     pgtype.Text
	Title         pgtype.Text
}

type NominationPeriodRow struct {
	ID             uuid.UUID
	CompetitionID  uuid.UUID
	PeriodOrder    pgtype.Int4
	StartDate      pgtype.Timestamptz
	EndDate        pgtype.Timestamptz
	Title          pgtype.Text
	MaxSubmissions pgtype.Int4
}

type VoteRow struct {
	ID            uuid.UUID
	CompetitionID uuid.UUID
	ContestantID  uuid.UUID
	AmountPaid    pgtype.Text
	VoteCount     pgtype.Int4
	CreatedAt     pgtype.Timestamptz
}

type ContestantRow struct {
	ID            uuid.UUID
	CompetitionID uuid.UUID
	Name          pgtype.Text
	ImageURL      pgtype.Text
	Bio           pgtype.Text
	Status        pgtype.Text
	Votes         pgtype.Int8
	Metadata      []byte
}

const getCompetition = `
SELECT id, title, status, nomination_start, nomination_end,
       prize_pool_minimum::text, created_at, updated_at
FROM competitions
WHERE id = $1`

func (q *Queries) GetCompetition(ctx context.Context, id uuid.UUID) (CompetitionRow, error) {
	var r CompetitionRow
	err := q.db.QueryRow(ctx, getCompetition, id).Scan(
		&r.ID, &r.Title, &r.Status, &r.NominationStart, &r.NominationEnd,
		&r.PrizePoolMinimum, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

const listVotingRounds = `
SELECT id, competition_id, round_order, start_date, end_date, round_type, title
FROM voting_rounds
WHERE competition_id = $1
ORDER BY round_order, start_date`

func (q *Queries) ListVotingRounds(ctx context.Context, competitionID uuid.UUID) ([]VotingRoundRow, error) {
	rows, err := q.db.Query(ctx, listVotingRounds, competitionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (VotingRoundRow, error) {
		var r VotingRoundRow
		err := row.Scan(&r.ID, &r.CompetitionID, &r.RoundOrder, &r.StartDate, &r.EndDate, &r.RoundType, &r.Title)
		return r, err
	})
}

const listNominationPeriods = `
SELECT id, competition_id, period_order, start_date, end_date, title, max_submissions
FROM nomination_periods
WHERE competition_id = $1
ORDER BY period_order, start_date`

func (q *Queries) ListNominationPeriods(ctx context.Context, competitionID uuid.UUID) ([]NominationPeriodRow, error) {
	rows, err := q.db.Query(ctx, listNominationPeriods, competitionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (NominationPeriodRow, error) {
		var r NominationPeriodRow
		err := row.Scan(&r.ID, &r.CompetitionID, &r.PeriodOrder, &r.StartDate, &r.EndDate, &r.Title, &r.MaxSubmissions)
		return r, err
	})
}

const listVotes = `
SELECT id, competition_id, contestant_id, amount_paid::text, vote_count, created_at
FROM votes
WHERE competition_id = $1
ORDER BY created_at`

func (q *Queries) ListVotes(ctx context.Context, competitionID uuid.UUID) ([]VoteRow, error) {
	rows, err := q.db.Query(ctx, listVotes, competitionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (VoteRow, error) {
		var r VoteRow
		err := row.Scan(&r.ID, &r.CompetitionID, &r.ContestantID, &r.AmountPaid, &r.VoteCount, &r.CreatedAt)
		return r, err
	})
}

const listContestants = `
SELECT id, competition_id, name, image_url, bio, status, votes, metadata
FROM contestants
WHERE competition_id = $1`

func (q *Queries) ListContestants(ctx context.Context, competitionID uuid.UUID) ([]ContestantRow, error) {
	rows, err := q.db.Query(ctx, listContestants, competitionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ContestantRow, error) {
		var r ContestantRow
		err := row.Scan(&r.ID, &r.CompetitionID, &r.Name, &r.ImageURL, &r.Bio, &r.Status, &r.Votes, &r.Metadata)
		return r, err
	})
}

const ping = `SELECT 1`

func (q *Queries) Ping(ctx context.Context) error {
	_, err := q.db.Exec(ctx, ping)
	return err
}
