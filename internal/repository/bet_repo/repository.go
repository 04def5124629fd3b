package bet_repo

import (
	"context"
	"errors"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	table            = "bets"
	colID            = "id"
	colRoundID       = "round_id"
	colCustomerName  = "customer_name"
	colCustomerPhone = "customer_phone"
	colTicketNumber  = "ticket_number"
	colNumber        = "number"
	colStake         = "stake"
	colWon           = "won"
	colPayout        = "payout"
	colCreatedAt     = "created_at"
)

var betColumns = []string{
	colID, colRoundID, colCustomerName, colCustomerPhone, colTicketNumber,
	colNumber, colStake, colWon, colPayout, colCreatedAt,
}

type repo struct {
	dbc *pgxpool.Pool
}

func NewBetRepository(dbc *pgxpool.Pool) repository.BetRepository {
	return &repo{
		dbc: dbc,
	}
}

func (r *repo) conn(ctx context.Context) trmpgx.Tr {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, r.dbc)
}

// CreateBet - stores a physical bet, won and payout start at their defaults
func (r *repo) CreateBet(ctx context.Context, bet *model.Bet) error {
	query := sq.Insert(table).
		Columns(betColumns...).
		Values(
			bet.ID, bet.RoundID, bet.CustomerName, bet.CustomerPhone, bet.TicketNumber,
			bet.Number, bet.Stake, bet.Won, bet.Payout, bet.CreatedAt,
		).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.Persistence(err)
	}

	_, err = r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return model.Persistence(err)
	}

	return nil
}

func (r *repo) GetBet(ctx context.Context, id uuid.UUID) (*model.Bet, error) {
	query := sq.Select(betColumns...).
		From(table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, model.Persistence(err)
	}

	bet, err := scanBet(r.conn(ctx).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBetNotFound
		}
		return nil, model.Persistence(err)
	}

	return bet, nil
}

func (r *repo) DeleteBet(ctx context.Context, id uuid.UUID) error {
	query := sq.Delete(table).
		Where(sq.Eq{colID: id}).
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
		return model.ErrBetNotFound
	}

	return nil
}

// ListByRound - bets of the round in placement order
func (r *repo) ListByRound(ctx context.Context, roundID uuid.UUID) ([]*model.Bet, error) {
	query := sq.Select(betColumns...).
		From(table).
		Where(sq.Eq{colRoundID: roundID}).
		OrderBy(colCreatedAt, colID).
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

	var res []*model.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, model.Persistence(err)
		}
		res = append(res, bet)
	}
	if err = rows.Err(); err != nil {
		return nil, model.Persistence(err)
	}

	return res, nil
}

func (r *repo) CountByRound(ctx context.Context, roundID uuid.UUID) (int, error) {
	query := sq.Select("COUNT(*)").
		From(table).
		Where(sq.Eq{colRoundID: roundID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, model.Persistence(err)
	}

	var count int
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&count)
	if err != nil {
		return 0, model.Persistence(err)
	}

	return count, nil
}

// MarkWinners - one bulk update over exactly the bets on the winning number.
// Payout is computed from the stored stake, other rows are left untouched.
func (r *repo) MarkWinners(ctx context.Context, roundID uuid.UUID, winningNumber int, multiplier decimal.Decimal) (int64, error) {
	query := sq.Update(table).
		Set(colWon, true).
		Set(colPayout, sq.Expr(colStake+" * ?::numeric", multiplier)).
		Where(sq.Eq{colRoundID: roundID, colNumber: winningNumber}).
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

func scanBet(row pgx.Row) (*model.Bet, error) {
	var bet model.Bet
	err := row.Scan(
		&bet.ID, &bet.RoundID, &bet.CustomerName, &bet.CustomerPhone, &bet.TicketNumber,
		&bet.Number, &bet.Stake, &bet.Won, &bet.Payout, &bet.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}
