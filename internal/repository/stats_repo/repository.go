package stats_repo

import (
	"context"
	"errors"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table            = "user_stats"
	colUserID        = "user_id"
	colTotalGames    = "total_games"
	colTotalWins     = "total_wins"
	colTotalLosses   = "total_losses"
	colTotalWagered  = "total_wagered"
	colTotalWon      = "total_won"
	colBestWin       = "best_win"
	colCurrentStreak = "current_streak"
	colBestStreak    = "best_streak"
	colUpdatedAt     = "updated_at"
)

type repo struct {
	dbc *pgxpool.Pool
}

func NewStatsRepository(dbc *pgxpool.Pool) repository.StatsRepository {
	return &repo{
		dbc: dbc,
	}
}

// GetStats - returns nil, nil when the user has not settled a bet yet
func (r *repo) GetStats(ctx context.Context, userID int) (*model.UserStats, error) {
	query := sq.Select(
		colUserID, colTotalGames, colTotalWins, colTotalLosses, colTotalWagered,
		colTotalWon, colBestWin, colCurrentStreak, colBestStreak, colUpdatedAt,
	).
		From(table).
		Where(sq.Eq{colUserID: userID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, model.Persistence(err)
	}

	var s model.UserStats
	err = trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(
		&s.UserID, &s.TotalGames, &s.TotalWins, &s.TotalLosses, &s.TotalWagered,
		&s.TotalWon, &s.BestWin, &s.CurrentStreak, &s.BestStreak, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, model.Persistence(err)
	}

	return &s, nil
}

// UpsertStats - writes the whole stats row, creating it on the first settled bet
func (r *repo) UpsertStats(ctx context.Context, s *model.UserStats) error {
	query := sq.Insert(table).
		Columns(
			colUserID, colTotalGames, colTotalWins, colTotalLosses, colTotalWagered,
			colTotalWon, colBestWin, colCurrentStreak, colBestStreak, colUpdatedAt,
		).
		Values(
			s.UserID, s.TotalGames, s.TotalWins, s.TotalLosses, s.TotalWagered,
			s.TotalWon, s.BestWin, s.CurrentStreak, s.BestStreak, s.UpdatedAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			total_games = EXCLUDED.total_games,
			total_wins = EXCLUDED.total_wins,
			total_losses = EXCLUDED.total_losses,
			total_wagered = EXCLUDED.total_wagered,
			total_won = EXCLUDED.total_won,
			best_win = EXCLUDED.best_win,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			updated_at = EXCLUDED.updated_at`).
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
