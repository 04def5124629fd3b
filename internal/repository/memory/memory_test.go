package memory

import (
	"context"
	"errors"
	"roulette_backend/internal/model"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := NewUserRepository(store)
	tx := NewTxManager(store)

	id, err := users.CreateUser(ctx, &model.User{Name: "ann", Balance: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = tx.Do(ctx, func(txCtx context.Context) error {
		if err := users.UpdateBalance(txCtx, id, decimal.NewFromInt(1)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	user, err := users.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestTxManager_PanicRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := NewUserRepository(store)
	tx := NewTxManager(store)

	id, err := users.CreateUser(ctx, &model.User{Name: "bo", Balance: decimal.NewFromInt(500)})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "crash mid-settlement", func() {
		_ = tx.Do(ctx, func(txCtx context.Context) error {
			if err := users.UpdateBalance(txCtx, id, decimal.Zero); err != nil {
				return err
			}
			panic("crash mid-settlement")
		})
	})

	user, err := users.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(500)))

	// The lock was released, later transactions still run
	err = tx.Do(ctx, func(txCtx context.Context) error {
		return users.UpdateBalance(txCtx, id, decimal.NewFromInt(450))
	})
	require.NoError(t, err)
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rounds := NewRoundRepository(store)
	tx := NewTxManager(store)

	round := &model.Round{ID: uuid.New(), ScheduledFor: time.Now().Add(time.Hour), Status: model.RoundPending}

	err := tx.Do(ctx, func(txCtx context.Context) error {
		// Would deadlock if the inner call tried to start its own transaction
		inner := tx.Do(txCtx, func(innerCtx context.Context) error {
			return rounds.CreateRound(innerCtx, round)
		})
		require.NoError(t, inner)
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = rounds.GetRound(ctx, round.ID)
	assert.ErrorIs(t, err, model.ErrRoundNotFound)
}

func TestRoundRepository_ClaimPendingOnce(t *testing.T) {
	ctx := context.Background()
	rounds := NewRoundRepository(NewStore())
	round := &model.Round{ID: uuid.New(), ScheduledFor: time.Now(), Status: model.RoundPending}
	require.NoError(t, rounds.CreateRound(ctx, round))

	first, err := rounds.ClaimPending(ctx, round.ID)
	require.NoError(t, err)
	second, err := rounds.ClaimPending(ctx, round.ID)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestRoundRepository_DuplicatePendingSchedule(t *testing.T) {
	ctx := context.Background()
	rounds := NewRoundRepository(NewStore())
	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, rounds.CreateRound(ctx, &model.Round{ID: uuid.New(), ScheduledFor: at, Status: model.RoundPending}))
	err := rounds.CreateRound(ctx, &model.Round{ID: uuid.New(), ScheduledFor: at, Status: model.RoundPending})
	assert.ErrorIs(t, err, model.ErrDuplicateSchedule)
}

func TestBetRepository_MarkWinnersTouchesOnlyWinners(t *testing.T) {
	ctx := context.Background()
	bets := NewBetRepository(NewStore())
	roundID, otherRound := uuid.New(), uuid.New()

	win := &model.Bet{ID: uuid.New(), RoundID: roundID, Number: 5, Stake: decimal.NewFromInt(100)}
	lose := &model.Bet{ID: uuid.New(), RoundID: roundID, Number: 7, Stake: decimal.NewFromInt(50)}
	foreign := &model.Bet{ID: uuid.New(), RoundID: otherRound, Number: 5, Stake: decimal.NewFromInt(10)}
	for _, b := range []*model.Bet{win, lose, foreign} {
		require.NoError(t, bets.CreateBet(ctx, b))
	}

	marked, err := bets.MarkWinners(ctx, roundID, 5, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	got, err := bets.GetBet(ctx, win.ID)
	require.NoError(t, err)
	assert.True(t, got.Won)
	assert.True(t, got.Payout.Equal(decimal.NewFromInt(3000)))

	got, err = bets.GetBet(ctx, foreign.ID)
	require.NoError(t, err)
	assert.False(t, got.Won)
	assert.True(t, got.Payout.IsZero())
}

func TestRoundRepository_DeleteCompletedKeepsRoundsWithBets(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rounds := NewRoundRepository(store)
	bets := NewBetRepository(store)
	old := time.Now().Add(-40 * 24 * time.Hour)

	empty := &model.Round{ID: uuid.New(), ScheduledFor: old, Status: model.RoundPending}
	withBet := &model.Round{ID: uuid.New(), ScheduledFor: old.Add(time.Hour), Status: model.RoundPending}
	for _, r := range []*model.Round{empty, withBet} {
		require.NoError(t, rounds.CreateRound(ctx, r))
		require.NoError(t, rounds.CompleteRound(ctx, r.ID, 3, old))
	}
	require.NoError(t, bets.CreateBet(ctx, &model.Bet{ID: uuid.New(), RoundID: withBet.ID, Number: 3, Stake: decimal.NewFromInt(1)}))

	deleted, err := rounds.DeleteCompletedBefore(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = rounds.GetRound(ctx, empty.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = rounds.GetRound(ctx, withBet.ID)
	assert.NoError(t, err)
}
