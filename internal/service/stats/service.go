package stats

import (
	"context"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"
	"roulette_backend/internal/service"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
)

// RecentBetsLimit - manual bets shown next to the aggregates
const RecentBetsLimit = 20

type serv struct {
	userRepo      repository.UserRepository
	manualBetRepo repository.ManualBetRepository
	statsRepo     repository.StatsRepository
	txManager     trm.Manager
}

func NewStatsService(
	userRepo repository.UserRepository,
	manualBetRepo repository.ManualBetRepository,
	statsRepo repository.StatsRepository,
	txManager trm.Manager,
) service.StatsService {
	return &serv{
		userRepo:      userRepo,
		manualBetRepo: manualBetRepo,
		statsRepo:     statsRepo,
		txManager:     txManager,
	}
}

// GetUserStats returns the stored stats or, when the row does not exist yet,
// rebuilds them from the settled history. The rebuilt value is not persisted.
func (s *serv) GetUserStats(ctx context.Context, userID int) (*model.UserStats, error) {
	var stats *model.UserStats

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Holding the user lock keeps a concurrent spin from updating the row mid-replay
		if _, err := s.userRepo.GetUserForUpdate(txCtx, userID); err != nil {
			return err
		}

		stored, err := s.statsRepo.GetStats(txCtx, userID)
		if err != nil {
			return err
		}
		if stored != nil {
			stats = stored
			return nil
		}

		history, err := s.manualBetRepo.ListSettledByUser(txCtx, userID)
		if err != nil {
			return err
		}
		stats = model.ReplayStats(userID, history)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// RecentBets - latest manual bets of the user, newest first
func (s *serv) RecentBets(ctx context.Context, userID int) ([]*model.ManualBet, error) {
	return s.manualBetRepo.ListRecentByUser(ctx, userID, RecentBetsLimit)
}
