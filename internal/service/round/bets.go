package round

import (
	"context"
	"fmt"
	"math"
	"roulette_backend/internal/model"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceBet attaches a physical bet to a round that is still pending
func (s *serv) PlaceBet(ctx context.Context, roundID uuid.UUID, req model.PlaceBet) (*model.Bet, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, model.ErrInvalidName
	}
	if !model.ValidNumber(req.Number) {
		return nil, model.ErrInvalidNumber
	}
	if !model.ValidStake(req.Stake) {
		return nil, model.ErrInvalidStake
	}

	var bet *model.Bet
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Settlement claims the same row, so no bet slips in after the draw
		round, err := s.roundRepo.GetRoundForUpdate(txCtx, roundID)
		if err != nil {
			return err
		}
		if round.Status != model.RoundPending {
			return model.ErrRoundClosed
		}

		now := s.now()
		bet = &model.Bet{
			ID:            uuid.New(),
			RoundID:       roundID,
			CustomerName:  name,
			CustomerPhone: normalizePhone(req.CustomerPhone),
			TicketNumber:  ticketNumber(now.UnixMilli()),
			Number:        req.Number,
			Stake:         req.Stake,
			Payout:        decimal.Zero,
			CreatedAt:     now,
		}
		return s.betRepo.CreateBet(txCtx, bet)
	})
	if err != nil {
		return nil, err
	}

	return bet, nil
}

// DeleteBet removes a bet while its round is still pending
func (s *serv) DeleteBet(ctx context.Context, betID uuid.UUID) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		bet, err := s.betRepo.GetBet(txCtx, betID)
		if err != nil {
			return err
		}

		round, err := s.roundRepo.GetRoundForUpdate(txCtx, bet.RoundID)
		if err != nil {
			return err
		}
		if round.Status != model.RoundPending {
			return model.ErrRoundClosed
		}

		return s.betRepo.DeleteBet(txCtx, betID)
	})
}

// PendingSummary splits the pending rounds into overdue and upcoming
func (s *serv) PendingSummary(ctx context.Context) (*model.PendingSummary, error) {
	now := s.now()

	pending, err := s.roundRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	summary := &model.PendingSummary{
		Total:    len(pending),
		Overdue:  []model.PendingRound{},
		Upcoming: []model.PendingRound{},
	}
	for _, round := range pending {
		count, err := s.betRepo.CountByRound(ctx, round.ID)
		if err != nil {
			return nil, err
		}

		item := model.PendingRound{Round: *round, Bets: count}
		if round.ScheduledFor.After(now) {
			item.Minutes = int(math.Ceil(round.ScheduledFor.Sub(now).Minutes()))
			summary.Upcoming = append(summary.Upcoming, item)
		} else {
			item.Minutes = int(now.Sub(round.ScheduledFor).Minutes())
			summary.Overdue = append(summary.Overdue, item)
		}
	}

	return summary, nil
}

func (s *serv) ListRecent(ctx context.Context, limit int) ([]*model.RoundOverview, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.roundRepo.ListRecent(ctx, limit)
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil
	}
	return &p
}

// ticketNumber - T<unix millis>-<5 random upper-case chars>
func ticketNumber(unixMilli int64) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:5])
	return fmt.Sprintf("T%d-%s", unixMilli, suffix)
}
