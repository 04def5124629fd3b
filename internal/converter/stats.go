package converter

import (
	"roulette_backend/internal/api/dto/stats"
	"roulette_backend/internal/model"
)

func ToStatsResponse(s model.UserStats, recent []*model.ManualBet) stats.StatsResponse {
	bets := make([]stats.ManualBet, len(recent))
	for i, b := range recent {
		bets[i] = stats.ManualBet{
			ID:            b.ID,
			Number:        b.Number,
			Stake:         b.Stake,
			WinningNumber: b.WinningNumber,
			Won:           b.Won,
			Payout:        b.Payout,
			CreatedAt:     b.CreatedAt,
		}
	}

	return stats.StatsResponse{
		Stats: stats.UserStats{
			TotalGames:    s.TotalGames,
			TotalWins:     s.TotalWins,
			TotalLosses:   s.TotalLosses,
			TotalWagered:  s.TotalWagered,
			TotalWon:      s.TotalWon,
			BestWin:       s.BestWin,
			CurrentStreak: s.CurrentStreak,
			BestStreak:    s.BestStreak,
		},
		RecentBets: bets,
	}
}
