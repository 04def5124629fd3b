package round_repo

import (
	"context"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository/bet_repo"
	"roulette_backend/internal/repository/pgtest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRound(at time.Time) *model.Round {
	return &model.Round{
		ID:           uuid.New(),
		ScheduledFor: at,
		Status:       model.RoundPending,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRoundRepository_DuplicateSchedule(t *testing.T) {
	pool := pgtest.Connect(t)
	repo := NewRoundRepository(pool)
	ctx := context.Background()

	at := pgtest.Instant()
	first, dup, next := pendingRound(at), pendingRound(at), pendingRound(at)
	pgtest.DeleteRounds(t, pool, first.ID, dup.ID, next.ID)

	require.NoError(t, repo.CreateRound(ctx, first))
	assert.ErrorIs(t, repo.CreateRound(ctx, dup), model.ErrDuplicateSchedule)

	found, err := repo.FindPendingAt(ctx, at)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	// The instant frees up once the pending round moves on
	claimed, err := repo.ClaimPending(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, claimed)
	assert.NoError(t, repo.CreateRound(ctx, next))
}

func TestRoundRepository_ClaimAndComplete(t *testing.T) {
	pool := pgtest.Connect(t)
	repo := NewRoundRepository(pool)
	ctx := context.Background()

	round := pendingRound(pgtest.Instant())
	pgtest.DeleteRounds(t, pool, round.ID)
	require.NoError(t, repo.CreateRound(ctx, round))

	claimed, err := repo.ClaimPending(ctx, round.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimPending(ctx, round.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	completedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.CompleteRound(ctx, round.ID, 17, completedAt))
	assert.ErrorIs(t, repo.CompleteRound(ctx, round.ID, 3, completedAt), model.ErrAlreadySettled)

	got, err := repo.GetRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundCompleted, got.Status)
	require.NotNil(t, got.WinningNumber)
	assert.Equal(t, 17, *got.WinningNumber)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completedAt.Equal(*got.CompletedAt))

	_, err = repo.GetRound(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrRoundNotFound)
}

func TestRoundRepository_ConcurrentClaim(t *testing.T) {
	pool := pgtest.Connect(t)
	repo := NewRoundRepository(pool)
	ctx := context.Background()

	round := pendingRound(pgtest.Instant())
	pgtest.DeleteRounds(t, pool, round.ID)
	require.NoError(t, repo.CreateRound(ctx, round))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			ok, err := repo.ClaimPending(ctx, round.ID)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRoundRepository_DeleteCompletedBefore(t *testing.T) {
	pool := pgtest.Connect(t)
	repo := NewRoundRepository(pool)
	bets := bet_repo.NewBetRepository(pool)
	ctx := context.Background()

	empty, withBet := pendingRound(pgtest.Instant()), pendingRound(pgtest.Instant())
	pgtest.DeleteRounds(t, pool, empty.ID, withBet.ID)
	require.NoError(t, repo.CreateRound(ctx, empty))
	require.NoError(t, repo.CreateRound(ctx, withBet))
	require.NoError(t, bets.CreateBet(ctx, &model.Bet{
		ID:           uuid.New(),
		RoundID:      withBet.ID,
		CustomerName: "Ann",
		TicketNumber: "T-" + uuid.NewString(),
		Number:       4,
		Stake:        decimal.RequireFromString("5.00"),
		CreatedAt:    time.Now().UTC(),
	}))

	// Completed long ago so no other row in the table is older
	longAgo := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CompleteRound(ctx, empty.ID, 1, longAgo))
	require.NoError(t, repo.CompleteRound(ctx, withBet.ID, 1, longAgo))

	deleted, err := repo.DeleteCompletedBefore(ctx, longAgo.Add(time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	_, err = repo.GetRound(ctx, empty.ID)
	assert.ErrorIs(t, err, model.ErrRoundNotFound)
	_, err = repo.GetRound(ctx, withBet.ID)
	assert.NoError(t, err)
}
