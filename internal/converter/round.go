package converter

import (
	"roulette_backend/internal/api/dto/round"
	"roulette_backend/internal/model"
)

func ToPlaceBet(req round.PlaceBetRequest) model.PlaceBet {
	return model.PlaceBet{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Number:        req.Number,
		Stake:         req.Stake,
	}
}

func ToRoundResponse(r model.Round) round.RoundResponse {
	return round.RoundResponse{
		ID:            r.ID,
		ScheduledFor:  r.ScheduledFor,
		Status:        string(r.Status),
		WinningNumber: r.WinningNumber,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
	}
}

func ToRoundOverviews(overviews []*model.RoundOverview) []round.RoundOverview {
	result := make([]round.RoundOverview, len(overviews))
	for i, o := range overviews {
		result[i] = round.RoundOverview{
			RoundResponse: ToRoundResponse(o.Round),
			TotalBets:     o.TotalBets,
			TotalStake:    o.TotalStake,
		}
	}
	return result
}

func ToBetResponse(b model.Bet) round.BetResponse {
	return round.BetResponse{
		ID:            b.ID,
		RoundID:       b.RoundID,
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		TicketNumber:  b.TicketNumber,
		Number:        b.Number,
		Stake:         b.Stake,
		CreatedAt:     b.CreatedAt,
	}
}

func ToSettleResponse(res model.SettleResult) round.SettleResponse {
	return round.SettleResponse{
		RoundID:         res.RoundID,
		WinningNumber:   res.WinningNumber,
		SettledBetCount: res.SettledBetCount,
		WinnerCount:     res.WinnerCount,
		TotalStaked:     res.TotalStaked,
		TotalPaid:       res.TotalPaid,
		CompletedAt:     res.CompletedAt,
	}
}

func ToDrainResponse(res model.DrainResult) round.DrainResponse {
	return round.DrainResponse{
		Attempted: res.Attempted,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}
}

func ToPendingSummaryResponse(s model.PendingSummary) round.PendingSummaryResponse {
	return round.PendingSummaryResponse{
		Total:    s.Total,
		Overdue:  toPendingRounds(s.Overdue),
		Upcoming: toPendingRounds(s.Upcoming),
	}
}

func toPendingRounds(rounds []model.PendingRound) []round.PendingRound {
	result := make([]round.PendingRound, len(rounds))
	for i, p := range rounds {
		result[i] = round.PendingRound{
			RoundResponse: ToRoundResponse(p.Round),
			Bets:          p.Bets,
			Minutes:       p.Minutes,
		}
	}
	return result
}
