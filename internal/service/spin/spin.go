package spin

import (
	"context"
	"fmt"
	"roulette_backend/internal/model"
	"roulette_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Spin resolves a manual bet. Balance, bet record and stats are written in one transaction.
func (s *serv) Spin(ctx context.Context, userID int, req model.ManualSpin) (*model.SpinResult, error) {
	// Validate before touching anything
	if !model.ValidNumber(req.Number) {
		return nil, model.ErrInvalidNumber
	}
	if !model.ValidStake(req.Stake) {
		return nil, model.ErrInvalidStake
	}

	var res *model.SpinResult
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Lock the user, concurrent spins of the same user queue up here
		user, err := s.userRepo.GetUserForUpdate(txCtx, userID)
		if err != nil {
			return err
		}

		if req.Stake.GreaterThan(user.Balance) {
			return fmt.Errorf("%w: balance %s, stake %s", model.ErrInsufficientFunds, user.Balance, req.Stake)
		}

		winning := s.picker.Pick(req.Number)
		won := winning == req.Number

		// Stake is taken up front, a win returns it together with the winnings
		balance := user.Balance.Sub(req.Stake)
		net := decimal.Zero
		if won {
			gross := req.Stake.Mul(s.multiplier)
			net = gross.Sub(req.Stake)
			balance = balance.Add(gross)
		}

		bet := &model.ManualBet{
			ID:            uuid.New(),
			UserID:        userID,
			Number:        req.Number,
			Stake:         req.Stake,
			WinningNumber: winning,
			Won:           &won,
			Payout:        net,
			CreatedAt:     s.now(),
		}
		if err = s.manualBetRepo.CreateManualBet(txCtx, bet); err != nil {
			return err
		}

		if err = s.userRepo.UpdateBalance(txCtx, userID, balance); err != nil {
			return err
		}

		if err = s.updateStats(txCtx, bet); err != nil {
			return err
		}

		res = &model.SpinResult{
			BetID:         bet.ID,
			UserID:        userID,
			Number:        req.Number,
			Stake:         req.Stake,
			WinningNumber: winning,
			Won:           won,
			NetPayout:     net,
			NewBalance:    balance,
			CreatedAt:     bet.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Manual spin settled",
		"user_id", userID,
		"number", res.Number,
		"winning_number", res.WinningNumber,
		"won", res.Won,
		"payout", res.NetPayout.String(),
	)

	if err = s.emitter.EmitSpin(res); err != nil {
		logger.Warn("Failed to emit spin result", "bet_id", res.BetID, "error", err)
	}

	return res, nil
}

// updateStats folds the new bet into the stored stats.
// Without a stats row the whole history is replayed, the new bet included.
func (s *serv) updateStats(ctx context.Context, bet *model.ManualBet) error {
	stats, err := s.statsRepo.GetStats(ctx, bet.UserID)
	if err != nil {
		return err
	}

	if stats == nil {
		history, err := s.manualBetRepo.ListSettledByUser(ctx, bet.UserID)
		if err != nil {
			return err
		}
		stats = model.ReplayStats(bet.UserID, history)
	} else {
		stats.ApplyBet(bet)
	}

	return s.statsRepo.UpsertStats(ctx, stats)
}
