package service

import (
	"context"
	"roulette_backend/internal/model"
	"time"

	"github.com/google/uuid"
)

// SpinService resolves interactive single-bet spins
type SpinService interface {
	Spin(ctx context.Context, userID int, req model.ManualSpin) (*model.SpinResult, error)
}

// RoundService owns the pending -> running -> completed lifecycle of scheduled rounds
type RoundService interface {
	CreateRound(ctx context.Context, scheduledFor time.Time) (*model.Round, error)
	CreateNextHourly(ctx context.Context) (*model.Round, error)
	SettleRound(ctx context.Context, id uuid.UUID) (*model.SettleResult, error)
	DrainOverdue(ctx context.Context) model.DrainResult
	Cleanup(ctx context.Context) (int64, error)

	PlaceBet(ctx context.Context, roundID uuid.UUID, req model.PlaceBet) (*model.Bet, error)
	DeleteBet(ctx context.Context, betID uuid.UUID) error
	PendingSummary(ctx context.Context) (*model.PendingSummary, error)
	ListRecent(ctx context.Context, limit int) ([]*model.RoundOverview, error)
}

type StatsService interface {
	GetUserStats(ctx context.Context, userID int) (*model.UserStats, error)
	RecentBets(ctx context.Context, userID int) ([]*model.ManualBet, error)
}
