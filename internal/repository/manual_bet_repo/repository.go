package manual_bet_repo

import (
	"context"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table            = "manual_bets"
	colID            = "id"
	colUserID        = "user_id"
	colNumber        = "number"
	colStake         = "stake"
	colWinningNumber = "winning_number"
	colWon           = "won"
	colPayout        = "payout"
	colCreatedAt     = "created_at"
)

var columns = []string{colID, colUserID, colNumber, colStake, colWinningNumber, colWon, colPayout, colCreatedAt}

type repo struct {
	dbc *pgxpool.Pool
}

func NewManualBetRepository(dbc *pgxpool.Pool) repository.ManualBetRepository {
	return &repo{
		dbc: dbc,
	}
}

// CreateManualBet - records a resolved manual spin
func (r *repo) CreateManualBet(ctx context.Context, bet *model.ManualBet) error {
	query := sq.Insert(table).
		Columns(columns...).
		Values(bet.ID, bet.UserID, bet.Number, bet.Stake, bet.WinningNumber, bet.Won, bet.Payout, bet.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.Persistence(err)
	}

	_, err = trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	if err != nil {
		return model.Persistence(err)
	}

	return nil
}

// ListSettledByUser - full settled history, oldest first.
// seq breaks ties between bets created in the same instant.
func (r *repo) ListSettledByUser(ctx context.Context, userID int) ([]*model.ManualBet, error) {
	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{colUserID: userID}).
		Where(sq.NotEq{colWon: nil}).
		OrderBy(colCreatedAt, "seq").
		PlaceholderFormat(sq.Dollar)

	return r.list(ctx, query)
}

// ListRecentByUser - latest bets first
func (r *repo) ListRecentByUser(ctx context.Context, userID int, limit int) ([]*model.ManualBet, error) {
	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{colUserID: userID}).
		OrderBy(colCreatedAt+" DESC", "seq DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	return r.list(ctx, query)
}

func (r *repo) list(ctx context.Context, query sq.SelectBuilder) ([]*model.ManualBet, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, model.Persistence(err)
	}

	rows, err := trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, model.Persistence(err)
	}
	defer rows.Close()

	var res []*model.ManualBet
	for rows.Next() {
		var bet model.ManualBet
		err = rows.Scan(&bet.ID, &bet.UserID, &bet.Number, &bet.Stake, &bet.WinningNumber, &bet.Won, &bet.Payout, &bet.CreatedAt)
		if err != nil {
			return nil, model.Persistence(err)
		}
		res = append(res, &bet)
	}
	if err = rows.Err(); err != nil {
		return nil, model.Persistence(err)
	}

	return res, nil
}
