package memory

import (
	"context"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row locks are implicit: TxManager lets one transaction run at a time,
// so the ForUpdate variants behave like their plain counterparts.

type userRepo struct{ s *Store }

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepo{s: s}
}

func (r *userRepo) CreateUser(_ context.Context, user *model.User) (int, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	u := *user
	u.ID = r.s.nextUserID
	r.s.nextUserID++
	r.s.users[u.ID] = u
	return u.ID, nil
}

func (r *userRepo) GetUser(_ context.Context, id int) (*model.User, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) GetUserForUpdate(ctx context.Context, id int) (*model.User, error) {
	return r.GetUser(ctx, id)
}

func (r *userRepo) UpdateBalance(_ context.Context, id int, balance decimal.Decimal) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Balance = balance
	r.s.users[id] = u
	return nil
}

type roundRepo struct{ s *Store }

func NewRoundRepository(s *Store) repository.RoundRepository {
	return &roundRepo{s: s}
}

func (r *roundRepo) CreateRound(_ context.Context, round *model.Round) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	// Same constraint as the partial unique index in postgres
	if round.Status == model.RoundPending {
		for _, existing := range r.s.rounds {
			if existing.Status == model.RoundPending && existing.ScheduledFor.Equal(round.ScheduledFor) {
				return model.ErrDuplicateSchedule
			}
		}
	}
	r.s.rounds[round.ID] = *round
	return nil
}

func (r *roundRepo) GetRound(_ context.Context, id uuid.UUID) (*model.Round, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	round, ok := r.s.rounds[id]
	if !ok {
		return nil, model.ErrRoundNotFound
	}
	return &round, nil
}

func (r *roundRepo) GetRoundForUpdate(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	return r.GetRound(ctx, id)
}

func (r *roundRepo) FindPendingAt(_ context.Context, scheduledFor time.Time) (*model.Round, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	for _, round := range r.s.rounds {
		if round.Status == model.RoundPending && round.ScheduledFor.Equal(scheduledFor) {
			return &round, nil
		}
	}
	return nil, nil
}

func (r *roundRepo) ListPending(_ context.Context) ([]*model.Round, error) {
	return r.filter(func(round model.Round) bool {
		return round.Status == model.RoundPending
	}), nil
}

func (r *roundRepo) ListPendingDue(_ context.Context, now time.Time) ([]*model.Round, error) {
	return r.filter(func(round model.Round) bool {
		return round.Status == model.RoundPending && !round.ScheduledFor.After(now)
	}), nil
}

func (r *roundRepo) ListRecent(_ context.Context, limit int) ([]*model.RoundOverview, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	res := make([]*model.RoundOverview, 0, len(r.s.rounds))
	for _, round := range r.s.rounds {
		ov := &model.RoundOverview{Round: round, TotalStake: decimal.Zero}
		for _, row := range r.s.bets {
			if row.bet.RoundID == round.ID {
				ov.TotalBets++
				ov.TotalStake = ov.TotalStake.Add(row.bet.Stake)
			}
		}
		res = append(res, ov)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Round.ScheduledFor.After(res[j].Round.ScheduledFor)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *roundRepo) ClaimPending(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	round, ok := r.s.rounds[id]
	if !ok || round.Status != model.RoundPending {
		return false, nil
	}
	round.Status = model.RoundRunning
	r.s.rounds[id] = round
	return true, nil
}

func (r *roundRepo) CompleteRound(_ context.Context, id uuid.UUID, winningNumber int, completedAt time.Time) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	round, ok := r.s.rounds[id]
	if !ok {
		return model.ErrRoundNotFound
	}
	if round.Status == model.RoundCompleted {
		return model.ErrAlreadySettled
	}
	round.Status = model.RoundCompleted
	round.WinningNumber = &winningNumber
	round.CompletedAt = &completedAt
	r.s.rounds[id] = round
	return nil
}

func (r *roundRepo) DeleteCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	withBets := make(map[uuid.UUID]bool)
	for _, row := range r.s.bets {
		withBets[row.bet.RoundID] = true
	}

	var deleted int64
	for id, round := range r.s.rounds {
		if round.Status != model.RoundCompleted || round.CompletedAt == nil || withBets[id] {
			continue
		}
		if round.CompletedAt.Before(cutoff) {
			delete(r.s.rounds, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *roundRepo) filter(keep func(model.Round) bool) []*model.Round {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	var res []*model.Round
	for _, round := range r.s.rounds {
		if keep(round) {
			res = append(res, &round)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ScheduledFor.Before(res[j].ScheduledFor)
	})
	return res
}

type betRepo struct{ s *Store }

func NewBetRepository(s *Store) repository.BetRepository {
	return &betRepo{s: s}
}

func (r *betRepo) CreateBet(_ context.Context, bet *model.Bet) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	r.s.bets[bet.ID] = betRow{bet: *bet, seq: r.s.nextSeq()}
	return nil
}

func (r *betRepo) GetBet(_ context.Context, id uuid.UUID) (*model.Bet, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	row, ok := r.s.bets[id]
	if !ok {
		return nil, model.ErrBetNotFound
	}
	return &row.bet, nil
}

func (r *betRepo) DeleteBet(_ context.Context, id uuid.UUID) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if _, ok := r.s.bets[id]; !ok {
		return model.ErrBetNotFound
	}
	delete(r.s.bets, id)
	return nil
}

func (r *betRepo) ListByRound(_ context.Context, roundID uuid.UUID) ([]*model.Bet, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	var rows []betRow
	for _, row := range r.s.bets {
		if row.bet.RoundID == roundID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})

	res := make([]*model.Bet, len(rows))
	for i := range rows {
		res[i] = &rows[i].bet
	}
	return res, nil
}

func (r *betRepo) CountByRound(_ context.Context, roundID uuid.UUID) (int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	count := 0
	for _, row := range r.s.bets {
		if row.bet.RoundID == roundID {
			count++
		}
	}
	return count, nil
}

func (r *betRepo) MarkWinners(_ context.Context, roundID uuid.UUID, winningNumber int, multiplier decimal.Decimal) (int64, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	var marked int64
	for id, row := range r.s.bets {
		if row.bet.RoundID != roundID || row.bet.Number != winningNumber {
			continue
		}
		row.bet.Settle(winningNumber, multiplier)
		r.s.bets[id] = row
		marked++
	}
	return marked, nil
}

type manualBetRepo struct{ s *Store }

func NewManualBetRepository(s *Store) repository.ManualBetRepository {
	return &manualBetRepo{s: s}
}

func (r *manualBetRepo) CreateManualBet(_ context.Context, bet *model.ManualBet) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	stored := *bet
	if bet.Won != nil {
		won := *bet.Won
		stored.Won = &won
	}
	r.s.manualBets = append(r.s.manualBets, stored)
	return nil
}

func (r *manualBetRepo) ListSettledByUser(_ context.Context, userID int) ([]*model.ManualBet, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	var res []*model.ManualBet
	for i := range r.s.manualBets {
		bet := r.s.manualBets[i]
		if bet.UserID == userID && bet.Settled() {
			res = append(res, &bet)
		}
	}
	// Insertion order breaks ties
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (r *manualBetRepo) ListRecentByUser(_ context.Context, userID int, limit int) ([]*model.ManualBet, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	var res []*model.ManualBet
	for i := len(r.s.manualBets) - 1; i >= 0; i-- {
		bet := r.s.manualBets[i]
		if bet.UserID == userID {
			res = append(res, &bet)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

type statsRepo struct{ s *Store }

func NewStatsRepository(s *Store) repository.StatsRepository {
	return &statsRepo{s: s}
}

func (r *statsRepo) GetStats(_ context.Context, userID int) (*model.UserStats, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	stats, ok := r.s.stats[userID]
	if !ok {
		return nil, nil
	}
	return &stats, nil
}

func (r *statsRepo) UpsertStats(_ context.Context, stats *model.UserStats) error {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	r.s.stats[stats.UserID] = *stats
	return nil
}
