package round

import (
	"context"
	"roulette_backend/internal/model"
	"roulette_backend/pkg/logger"
	"time"

	"github.com/google/uuid"
)

// CreateRound schedules a pending round at a future instant.
// Only one pending round may exist per instant.
func (s *serv) CreateRound(ctx context.Context, scheduledFor time.Time) (*model.Round, error) {
	now := s.now()
	// Postgres keeps microseconds
	scheduledFor = scheduledFor.UTC().Truncate(time.Microsecond)
	if !scheduledFor.After(now) {
		return nil, model.ErrPastSchedule
	}

	round := newRound(scheduledFor, now)
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		existing, err := s.roundRepo.FindPendingAt(txCtx, scheduledFor)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.ErrDuplicateSchedule
		}
		return s.roundRepo.CreateRound(txCtx, round)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Round scheduled", "round_id", round.ID, "scheduled_for", round.ScheduledFor)
	return round, nil
}

// CreateNextHourly makes sure a pending round exists at the start of the next interval.
// An already scheduled round is returned as is.
func (s *serv) CreateNextHourly(ctx context.Context) (*model.Round, error) {
	now := s.now()
	next := now.UTC().Truncate(s.roundInterval).Add(s.roundInterval)

	var (
		round   *model.Round
		created bool
	)
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		existing, err := s.roundRepo.FindPendingAt(txCtx, next)
		if err != nil {
			return err
		}
		if existing != nil {
			round = existing
			return nil
		}

		round = newRound(next, now)
		created = true
		return s.roundRepo.CreateRound(txCtx, round)
	})
	if err != nil {
		return nil, err
	}

	if created {
		logger.Info("Next round scheduled", "round_id", round.ID, "scheduled_for", round.ScheduledFor)
	}
	return round, nil
}

func newRound(scheduledFor, now time.Time) *model.Round {
	return &model.Round{
		ID:           uuid.New(),
		ScheduledFor: scheduledFor,
		Status:       model.RoundPending,
		CreatedAt:    now,
	}
}
