package round

import (
	"context"
	"errors"
	"roulette_backend/internal/model"
	"roulette_backend/internal/service/odds"
	"roulette_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettleRound draws the winning number of a pending round and pays its bets.
// Order: skew -> pick -> mark and pay -> complete, all in one transaction.
func (s *serv) SettleRound(ctx context.Context, id uuid.UUID) (*model.SettleResult, error) {
	var res *model.SettleResult

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		round, err := s.roundRepo.GetRound(txCtx, id)
		if err != nil {
			return err
		}
		if round.Status != model.RoundPending {
			return model.ErrAlreadySettled
		}

		// Concurrent settlers race here, only one wins the claim
		claimed, err := s.roundRepo.ClaimPending(txCtx, id)
		if err != nil {
			return err
		}
		if !claimed {
			return model.ErrAlreadySettled
		}

		bets, err := s.betRepo.ListByRound(txCtx, id)
		if err != nil {
			return err
		}

		numbers := make([]int, len(bets))
		staked := decimal.Zero
		for i, bet := range bets {
			numbers[i] = bet.Number
			staked = staked.Add(bet.Stake)
		}

		distribution := odds.Skew(numbers, s.leastBetMass)
		winning := s.picker.Pick(distribution)

		winners, err := s.betRepo.MarkWinners(txCtx, id, winning, s.multiplier)
		if err != nil {
			return err
		}

		paid := decimal.Zero
		for _, bet := range bets {
			if bet.Number == winning {
				paid = paid.Add(bet.Stake.Mul(s.multiplier))
			}
		}

		completedAt := s.now()
		if err = s.roundRepo.CompleteRound(txCtx, id, winning, completedAt); err != nil {
			return err
		}

		res = &model.SettleResult{
			RoundID:         id,
			WinningNumber:   winning,
			SettledBetCount: len(bets),
			WinnerCount:     int(winners),
			TotalStaked:     staked,
			TotalPaid:       paid,
			CompletedAt:     completedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Round settled",
		"round_id", res.RoundID,
		"winning_number", res.WinningNumber,
		"bets", res.SettledBetCount,
		"winners", res.WinnerCount,
		"paid", res.TotalPaid.String(),
	)

	if err = s.emitter.EmitRoundSettled(res); err != nil {
		logger.Warn("Failed to emit round settlement", "round_id", res.RoundID, "error", err)
	}

	return res, nil
}

// DrainOverdue settles every pending round whose time has come.
// Rounds are independent: a failure is logged and the next round is tried.
func (s *serv) DrainOverdue(ctx context.Context) model.DrainResult {
	var res model.DrainResult

	due, err := s.roundRepo.ListPendingDue(ctx, s.now())
	if err != nil {
		logger.Error("Failed to list overdue rounds", "error", err)
		return res
	}

	for _, round := range due {
		res.Attempted++

		_, err = s.SettleRound(ctx, round.ID)
		if err != nil {
			res.Failed++
			if errors.Is(err, model.ErrAlreadySettled) {
				logger.Warn("Overdue round settled elsewhere", "round_id", round.ID)
			} else {
				logger.Error("Failed to settle overdue round", "round_id", round.ID, "error", err)
			}
			continue
		}
		res.Succeeded++
	}

	if res.Attempted > 0 {
		logger.Info("Overdue rounds drained",
			"attempted", res.Attempted,
			"succeeded", res.Succeeded,
			"failed", res.Failed,
		)
	}
	return res
}

// Cleanup deletes completed rounds older than the retention window.
// Rounds that ever received bets are kept.
func (s *serv) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)

	var deleted int64
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.roundRepo.DeleteCompletedBefore(txCtx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Old rounds cleaned up", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}
