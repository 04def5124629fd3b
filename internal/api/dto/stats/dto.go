package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StatsResponse struct {
	Stats      UserStats   `json:"stats"`
	RecentBets []ManualBet `json:"recent_bets"`
}

type UserStats struct {
	TotalGames    int             `json:"total_games"`
	TotalWins     int             `json:"total_wins"`
	TotalLosses   int             `json:"total_losses"`
	TotalWagered  decimal.Decimal `json:"total_wagered"`
	TotalWon      decimal.Decimal `json:"total_won"`
	BestWin       decimal.Decimal `json:"best_win"`
	CurrentStreak int             `json:"current_streak"` // Positive for wins, negative for losses
	BestStreak    int             `json:"best_streak"`
}

type ManualBet struct {
	ID            uuid.UUID       `json:"id"`
	Number        int             `json:"number"`
	Stake         decimal.Decimal `json:"stake"`
	WinningNumber int             `json:"winning_number"`
	Won           *bool           `json:"won"`
	Payout        decimal.Decimal `json:"payout"`
	CreatedAt     time.Time       `json:"created_at"`
}
