package repository

import (
	"context"
	"roulette_backend/internal/model"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Every repository joins the transaction carried by ctx when there is one.

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (id int, err error)
	GetUser(ctx context.Context, id int) (*model.User, error)
	// GetUserForUpdate locks the user row until the surrounding transaction ends
	GetUserForUpdate(ctx context.Context, id int) (*model.User, error)
	UpdateBalance(ctx context.Context, id int, balance decimal.Decimal) error
}

type RoundRepository interface {
	CreateRound(ctx context.Context, round *model.Round) error
	GetRound(ctx context.Context, id uuid.UUID) (*model.Round, error)
	GetRoundForUpdate(ctx context.Context, id uuid.UUID) (*model.Round, error)
	// FindPendingAt returns nil without error when no pending round is scheduled for the instant
	FindPendingAt(ctx context.Context, scheduledFor time.Time) (*model.Round, error)
	ListPending(ctx context.Context) ([]*model.Round, error)
	ListPendingDue(ctx context.Context, now time.Time) ([]*model.Round, error)
	ListRecent(ctx context.Context, limit int) ([]*model.RoundOverview, error)
	// ClaimPending moves a pending round to running. False means someone else got there first.
	ClaimPending(ctx context.Context, id uuid.UUID) (bool, error)
	CompleteRound(ctx context.Context, id uuid.UUID, winningNumber int, completedAt time.Time) error
	// DeleteCompletedBefore removes completed rounds without bets that finished before the cutoff
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type BetRepository interface {
	CreateBet(ctx context.Context, bet *model.Bet) error
	GetBet(ctx context.Context, id uuid.UUID) (*model.Bet, error)
	DeleteBet(ctx context.Context, id uuid.UUID) error
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]*model.Bet, error)
	CountByRound(ctx context.Context, roundID uuid.UUID) (int, error)
	// MarkWinners pays stake*multiplier to every bet of the round on the winning number
	MarkWinners(ctx context.Context, roundID uuid.UUID, winningNumber int, multiplier decimal.Decimal) (int64, error)
}

type ManualBetRepository interface {
	CreateManualBet(ctx context.Context, bet *model.ManualBet) error
	// ListSettledByUser returns the settled history in chronological order
	ListSettledByUser(ctx context.Context, userID int) ([]*model.ManualBet, error)
	ListRecentByUser(ctx context.Context, userID int, limit int) ([]*model.ManualBet, error)
}

type StatsRepository interface {
	// GetStats returns nil without error when the user has no stats row yet
	GetStats(ctx context.Context, userID int) (*model.UserStats, error)
	UpsertStats(ctx context.Context, stats *model.UserStats) error
}
