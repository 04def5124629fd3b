package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStats - running per-user counters.
// CurrentStreak is signed: positive for a run of wins, negative for a run of losses.
// BestStreak is the longest run of wins ever reached.
type UserStats struct {
	UserID        int
	TotalGames    int
	TotalWins     int
	TotalLosses   int
	TotalWagered  decimal.Decimal
	TotalWon      decimal.Decimal
	BestWin       decimal.Decimal
	CurrentStreak int
	BestStreak    int
	UpdatedAt     time.Time
}

func NewUserStats(userID int) *UserStats {
	return &UserStats{
		UserID:       userID,
		TotalWagered: decimal.Zero,
		TotalWon:     decimal.Zero,
		BestWin:      decimal.Zero,
	}
}

// Apply folds one settled outcome into the stats.
// stake is the wagered amount, payout the net winnings of a won bet.
func (s *UserStats) Apply(won bool, stake, payout decimal.Decimal) {
	s.TotalGames++
	s.TotalWagered = s.TotalWagered.Add(stake)

	if won {
		s.TotalWins++
		s.TotalWon = s.TotalWon.Add(payout.Add(stake))
		if payout.GreaterThan(s.BestWin) {
			s.BestWin = payout
		}
		if s.CurrentStreak > 0 {
			s.CurrentStreak++
		} else {
			s.CurrentStreak = 1
		}
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
		return
	}

	s.TotalLosses++
	if s.CurrentStreak < 0 {
		s.CurrentStreak--
	} else {
		s.CurrentStreak = -1
	}
}

// ApplyBet folds a settled manual bet into the stats. Unsettled bets are ignored.
func (s *UserStats) ApplyBet(bet *ManualBet) bool {
	if bet == nil || !bet.Settled() {
		return false
	}
	s.Apply(*bet.Won, bet.Stake, bet.Payout)
	if bet.CreatedAt.After(s.UpdatedAt) {
		s.UpdatedAt = bet.CreatedAt
	}
	return true
}

// ReplayStats rebuilds the stats of a user from the full bet history,
// which must be in chronological order.
func ReplayStats(userID int, history []*ManualBet) *UserStats {
	stats := NewUserStats(userID)
	for _, bet := range history {
		stats.ApplyBet(bet)
	}
	return stats
}
