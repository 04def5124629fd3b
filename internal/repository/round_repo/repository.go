package round_repo

import (
	"context"
	"errors"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"
	"time"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	table            = "rounds"
	colID            = "id"
	colScheduledFor  = "scheduled_for"
	colStatus        = "status"
	colWinningNumber = "winning_number"
	colCompletedAt   = "completed_at"
	colCreatedAt     = "created_at"

	betsTable = "bets"

	uniqueViolation = "23505"
)

var roundColumns = []string{colID, colScheduledFor, colStatus, colWinningNumber, colCompletedAt, colCreatedAt}

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewRoundRepository(dbc *pgxpool.Pool) repository.RoundRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// conn returns the transaction from ctx or the pool
func (r *repo) conn(ctx context.Context) trmpgx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.dbc)
}

// CreateRound - inserts a new pending round.
// A second pending round for the same instant violates rounds_pending_schedule_idx.
func (r *repo) CreateRound(ctx context.Context, round *model.Round) error {
	query := sq.Insert(table).
		Columns(roundColumns...).
		Values(round.ID, round.ScheduledFor, string(round.Status), round.WinningNumber, round.CompletedAt, round.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.Persistence(err)
	}

	_, err = r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrDuplicateSchedule
		}
		return model.Persistence(err)
	}

	return nil
}

// GetRound - returns the round by ID or ErrRoundNotFound
func (r *repo) GetRound(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	query := sq.Select(roundColumns...).
		From(table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	return r.getOne(ctx, query)
}

// GetRoundForUpdate - same as GetRound but locks the row
func (r *repo) GetRoundForUpdate(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	query := sq.Select(roundColumns...).
		From(table).
		Where(sq.Eq{colID: id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar)

	return r.getOne(ctx, query)
}

func (r *repo) FindPendingAt(ctx context.Context, scheduledFor time.Time) (*model.Round, error) {
	query := sq.Select(roundColumns...).
		From(table).
		Where(sq.Eq{colScheduledFor: scheduledFor, colStatus: string(model.RoundPending)}).
		Limit(1).
		PlaceholderFormat(sq.Dollar)

	round, err := r.getOne(ctx, query)
	if errors.Is(err, model.ErrRoundNotFound) {
		return nil, nil
	}
	return round, err
}

func (r *repo) ListPending(ctx context.Context) ([]*model.Round, error) {
	query := sq.Select(roundColumns...).
		From(table).
		Where(sq.Eq{colStatus: string(model.RoundPending)}).
		OrderBy(colScheduledFor).
		PlaceholderFormat(sq.Dollar)

	return r.getMany(ctx, query)
}

// ListPendingDue - pending rounds scheduled at or before now, oldest first
func (r *repo) ListPendingDue(ctx context.Context, now time.Time) ([]*model.Round, error) {
	query := sq.Select(roundColumns...).
		From(table).
		Where(sq.Eq{colStatus: string(model.RoundPending)}).
		Where(sq.LtOrEq{colScheduledFor: now}).
		OrderBy(colScheduledFor).
		PlaceholderFormat(sq.Dollar)

	return r.getMany(ctx, query)
}

// ListRecent - latest rounds with their bet count and total stake
func (r *repo) ListRecent(ctx context.Context, limit int) ([]*model.RoundOverview, error) {
	query := sq.Select(
		"r.id", "r.scheduled_for", "r.status", "r.winning_number", "r.completed_at", "r.created_at",
		"COUNT(b.id)", "COALESCE(SUM(b.stake), 0)",
	).
		From(table + " r").
		LeftJoin(betsTable + " b ON b.round_id = r.id").
		GroupBy("r.id").
		OrderBy("r.scheduled_for DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, model.Persistence(err)
	}

	rows, err := r.conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, model.Persistence(err)
	}
	defer rows.Close()

	var res []*model.RoundOverview
	for rows.Next() {
		var (
			ov     model.RoundOverview
			status string
			total  decimal.Decimal
		)
		err = rows.Scan(
			&ov.Round.ID, &ov.Round.ScheduledFor, &status, &ov.Round.WinningNumber,
			&ov.Round.CompletedAt, &ov.Round.CreatedAt, &ov.TotalBets, &total,
		)
		if err != nil {
			return nil, model.Persistence(err)
		}
		ov.Round.Status = model.RoundStatus(status)
		ov.TotalStake = total
		res = append(res, &ov)
	}
	if err = rows.Err(); err != nil {
		return nil, model.Persistence(err)
	}

	return res, nil
}

// ClaimPending - compare-and-swap pending -> running.
// Only one of several concurrent callers sees true.
func (r *repo) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := sq.Update(table).
		Set(colStatus, string(model.RoundRunning)).
		Where(sq.Eq{colID: id, colStatus: string(model.RoundPending)}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, model.Persistence(err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, model.Persistence(err)
	}

	return tag.RowsAffected() == 1, nil
}

// CompleteRound - records the winning number and closes the round
func (r *repo) CompleteRound(ctx context.Context, id uuid.UUID, winningNumber int, completedAt time.Time) error {
	query := sq.Update(table).
		Set(colStatus, string(model.RoundCompleted)).
		Set(colWinningNumber, winningNumber).
		Set(colCompletedAt, completedAt).
		Where(sq.Eq{colID: id}).
		Where(sq.NotEq{colStatus: string(model.RoundCompleted)}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.Persistence(err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return model.Persistence(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadySettled
	}

	return nil
}

// DeleteCompletedBefore - removes old completed rounds that never had bets
func (r *repo) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := sq.Delete(table).
		Where(sq.Eq{colStatus: string(model.RoundCompleted)}).
		Where(sq.Lt{colCompletedAt: cutoff}).
		Where("NOT EXISTS (SELECT 1 FROM " + betsTable + " WHERE " + betsTable + ".round_id = " + table + ".id)").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, model.Persistence(err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, model.Persistence(err)
	}

	return tag.RowsAffected(), nil
}

func (r *repo) getOne(ctx context.Context, query sq.SelectBuilder) (*model.Round, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, model.Persistence(err)
	}

	round, err := scanRound(r.conn(ctx).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRoundNotFound
		}
		return nil, model.Persistence(err)
	}

	return round, nil
}

func (r *repo) getMany(ctx context.Context, query sq.SelectBuilder) ([]*model.Round, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, model.Persistence(err)
	}

	rows, err := r.conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, model.Persistence(err)
	}
	defer rows.Close()

	var res []*model.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, model.Persistence(err)
		}
		res = append(res, round)
	}
	if err = rows.Err(); err != nil {
		return nil, model.Persistence(err)
	}

	return res, nil
}

func scanRound(row pgx.Row) (*model.Round, error) {
	var (
		round  model.Round
		status string
	)
	err := row.Scan(&round.ID, &round.ScheduledFor, &status, &round.WinningNumber, &round.CompletedAt, &round.CreatedAt)
	if err != nil {
		return nil, err
	}
	round.Status = model.RoundStatus(status)
	return &round, nil
}
