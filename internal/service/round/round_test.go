package round

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"roulette_backend/internal/config/env"
	"roulette_backend/internal/events"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"
	"roulette_backend/internal/repository/memory"
	"roulette_backend/internal/service/odds"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mtx sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.now = t
}

// fixedPicker lands on the same number and remembers the last distribution
type fixedPicker struct {
	number int
	mtx    sync.Mutex
	last   odds.Distribution
}

func (p *fixedPicker) Pick(d odds.Distribution) int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.last = d
	return p.number
}

type countingEmitter struct {
	events.Emitter
	mtx     sync.Mutex
	settled int
}

func (e *countingEmitter) EmitRoundSettled(*model.SettleResult) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	e.settled++
	return nil
}

// flakyBets fails the chosen operations for the listed rounds
type flakyBets struct {
	repository.BetRepository
	failList map[uuid.UUID]bool
	failMark bool
}

func (b *flakyBets) ListByRound(ctx context.Context, roundID uuid.UUID) ([]*model.Bet, error) {
	if b.failList[roundID] {
		return nil, model.Persistence(errors.New("read timeout"))
	}
	return b.BetRepository.ListByRound(ctx, roundID)
}

func (b *flakyBets) MarkWinners(ctx context.Context, roundID uuid.UUID, n int, m decimal.Decimal) (int64, error) {
	if b.failMark {
		return 0, model.Persistence(errors.New("deadlock detected"))
	}
	return b.BetRepository.MarkWinners(ctx, roundID, n, m)
}

var start = time.Date(2026, 6, 1, 10, 17, 0, 0, time.UTC)

type fixture struct {
	rounds  repository.RoundRepository
	bets    *flakyBets
	tx      *memory.TxManager
	picker  *fixedPicker
	emitter *countingEmitter
	clock   *clock
	serv    *serv
}

func newFixture(t *testing.T, winning int) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		rounds:  memory.NewRoundRepository(store),
		bets:    &flakyBets{BetRepository: memory.NewBetRepository(store), failList: map[uuid.UUID]bool{}},
		tx:      memory.NewTxManager(store),
		picker:  &fixedPicker{number: winning},
		emitter: &countingEmitter{Emitter: events.NewNoopEmitter()},
		clock:   &clock{now: start},
	}

	cfg, err := env.NewGameConfigFromYAML(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	f.serv = NewRoundService(Deps{
		RoundRepo: f.rounds,
		BetRepo:   f.bets,
		TxManager: f.tx,
		GameCfg:   cfg,
		Picker:    f.picker,
		Emitter:   f.emitter,
		Now:       f.clock.Now,
	}).(*serv)
	return f
}

func (f *fixture) round(t *testing.T, in time.Duration) *model.Round {
	t.Helper()
	r, err := f.serv.CreateRound(context.Background(), f.clock.Now().Add(in))
	require.NoError(t, err)
	return r
}

func (f *fixture) bet(t *testing.T, roundID uuid.UUID, number int, stake int64) *model.Bet {
	t.Helper()
	b, err := f.serv.PlaceBet(context.Background(), roundID, model.PlaceBet{
		CustomerName: "walk-in",
		Number:       number,
		Stake:        decimal.NewFromInt(stake),
	})
	require.NoError(t, err)
	return b
}

func TestSettleRound_PaysWinners(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	r := f.round(t, time.Hour)
	winner := f.bet(t, r.ID, 5, 100)
	loser := f.bet(t, r.ID, 7, 50)

	res, err := f.serv.SettleRound(ctx, r.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, res.WinningNumber)
	assert.Equal(t, 2, res.SettledBetCount)
	assert.Equal(t, 1, res.WinnerCount)
	assert.Equal(t, "150", res.TotalStaked.String())
	assert.Equal(t, "3000", res.TotalPaid.String())

	got, err := f.bets.GetBet(ctx, winner.ID)
	require.NoError(t, err)
	assert.True(t, got.Won)
	assert.Equal(t, "3000", got.Payout.String())

	got, err = f.bets.GetBet(ctx, loser.ID)
	require.NoError(t, err)
	assert.False(t, got.Won)
	assert.True(t, got.Payout.IsZero())

	settled, err := f.rounds.GetRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundCompleted, settled.Status)
	require.NotNil(t, settled.WinningNumber)
	assert.Equal(t, 5, *settled.WinningNumber)
	require.NotNil(t, settled.CompletedAt)
	assert.Equal(t, 1, f.emitter.settled)
}

func TestSettleRound_SkewsTowardLeastBet(t *testing.T) {
	f := newFixture(t, 1)
	r := f.round(t, time.Hour)
	f.bet(t, r.ID, 5, 100)
	f.bet(t, r.ID, 7, 50)

	_, err := f.serv.SettleRound(context.Background(), r.ID)
	require.NoError(t, err)

	d := f.picker.last
	require.NotNil(t, d)
	assert.InDelta(t, 0.1, d[5], 1e-9)
	assert.InDelta(t, 0.1, d[7], 1e-9)
	assert.InDelta(t, 0.8/28, d[1], 1e-9)
}

func TestSettleRound_Twice(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	r := f.round(t, time.Hour)
	b := f.bet(t, r.ID, 5, 100)

	_, err := f.serv.SettleRound(ctx, r.ID)
	require.NoError(t, err)

	_, err = f.serv.SettleRound(ctx, r.ID)
	assert.ErrorIs(t, err, model.ErrAlreadySettled)
	assert.ErrorIs(t, err, model.ErrStateConflict)

	got, err := f.bets.GetBet(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "3000", got.Payout.String())
	assert.Equal(t, 1, f.emitter.settled)
}

func TestSettleRound_Concurrent(t *testing.T) {
	f := newFixture(t, 5)
	r := f.round(t, time.Hour)
	f.bet(t, r.ID, 5, 100)

	var (
		wg                 sync.WaitGroup
		mtx                sync.Mutex
		succeeded, already int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.serv.SettleRound(context.Background(), r.ID)
			mtx.Lock()
			defer mtx.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrAlreadySettled):
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, already)
	assert.Equal(t, 1, f.emitter.settled)
}

func TestSettleRound_NotFound(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.serv.SettleRound(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrRoundNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSettleRound_EmptyRound(t *testing.T) {
	f := newFixture(t, 17)
	r := f.round(t, time.Hour)

	res, err := f.serv.SettleRound(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, res.WinningNumber)
	assert.Zero(t, res.SettledBetCount)
	assert.Equal(t, odds.Uniform(), f.picker.last)
}

func TestSettleRound_PersistenceFailureRollsBack(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	r := f.round(t, time.Hour)
	b := f.bet(t, r.ID, 5, 100)

	f.bets.failMark = true
	_, err := f.serv.SettleRound(ctx, r.ID)
	require.ErrorIs(t, err, model.ErrPersistence)

	// The claim was undone together with everything else
	still, err := f.rounds.GetRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundPending, still.Status)
	assert.Nil(t, still.WinningNumber)
	assert.Nil(t, still.CompletedAt)

	f.bets.failMark = false
	_, err = f.serv.SettleRound(ctx, r.ID)
	require.NoError(t, err)

	got, err := f.bets.GetBet(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "3000", got.Payout.String())
}

func TestCreateRound_Schedule(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	_, err := f.serv.CreateRound(ctx, start.Add(-time.Minute))
	assert.ErrorIs(t, err, model.ErrPastSchedule)

	_, err = f.serv.CreateRound(ctx, start)
	assert.ErrorIs(t, err, model.ErrPastSchedule)

	at := start.Add(2 * time.Hour)
	r, err := f.serv.CreateRound(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, model.RoundPending, r.Status)
	assert.Nil(t, r.WinningNumber)
	assert.Nil(t, r.CompletedAt)

	_, err = f.serv.CreateRound(ctx, at)
	assert.ErrorIs(t, err, model.ErrDuplicateSchedule)
}

func TestCreateNextHourly(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	first, err := f.serv.CreateNextHourly(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC), first.ScheduledFor)

	again, err := f.serv.CreateNextHourly(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// Exactly on the hour schedules the following one
	f.clock.Set(time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC))
	next, err := f.serv.CreateNextHourly(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), next.ScheduledFor)
}

func TestDrainOverdue_IsolatesFailures(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	a := f.round(t, 10*time.Minute)
	b := f.round(t, 20*time.Minute)
	c := f.round(t, 30*time.Minute)
	future := f.round(t, 3*time.Hour)
	f.bet(t, b.ID, 5, 10)
	f.bets.failList[b.ID] = true

	f.clock.Set(start.Add(time.Hour))
	res := f.serv.DrainOverdue(ctx)

	assert.Equal(t, model.DrainResult{Attempted: 3, Succeeded: 2, Failed: 1}, res)

	for _, id := range []uuid.UUID{a.ID, c.ID} {
		r, err := f.rounds.GetRound(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.RoundCompleted, r.Status)
	}
	for _, id := range []uuid.UUID{b.ID, future.ID} {
		r, err := f.rounds.GetRound(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.RoundPending, r.Status)
	}

	// Next pass picks up the round once the store recovers
	delete(f.bets.failList, b.ID)
	res = f.serv.DrainOverdue(ctx)
	assert.Equal(t, model.DrainResult{Attempted: 1, Succeeded: 1}, res)
}

func TestDrainOverdue_NothingDue(t *testing.T) {
	f := newFixture(t, 5)
	f.round(t, time.Hour)

	assert.Equal(t, model.DrainResult{}, f.serv.DrainOverdue(context.Background()))
}

func TestCleanup(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	old := f.round(t, time.Hour)
	oldWithBets := f.round(t, 2*time.Hour)
	f.bet(t, oldWithBets.ID, 3, 10)
	f.clock.Set(start.Add(3 * time.Hour))
	f.serv.DrainOverdue(ctx)

	recent := f.round(t, time.Hour)
	pending := f.round(t, 50*24*time.Hour)

	// 31 days after the first two rounds completed
	f.clock.Set(start.Add(3*time.Hour + 31*24*time.Hour))
	f.serv.DrainOverdue(ctx)
	f.clock.Set(start.Add(3*time.Hour + 31*24*time.Hour + time.Minute))

	deleted, err := f.serv.Cleanup(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = f.rounds.GetRound(ctx, old.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	for _, id := range []uuid.UUID{oldWithBets.ID, recent.ID, pending.ID} {
		_, err = f.rounds.GetRound(ctx, id)
		assert.NoError(t, err)
	}
}

func TestPlaceBet(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	r := f.round(t, time.Hour)

	phone := "  +1 555 0100 "
	b, err := f.serv.PlaceBet(ctx, r.ID, model.PlaceBet{
		CustomerName:  "  Dana ",
		CustomerPhone: &phone,
		Number:        12,
		Stake:         decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", b.CustomerName)
	require.NotNil(t, b.CustomerPhone)
	assert.Equal(t, "+1 555 0100", *b.CustomerPhone)
	assert.Regexp(t, regexp.MustCompile(`^T\d+-[0-9A-F]{5}$`), b.TicketNumber)
	assert.False(t, b.Won)

	cases := []struct {
		req  model.PlaceBet
		want error
	}{
		{model.PlaceBet{CustomerName: " ", Number: 3, Stake: decimal.NewFromInt(1)}, model.ErrInvalidName},
		{model.PlaceBet{CustomerName: "x", Number: 31, Stake: decimal.NewFromInt(1)}, model.ErrInvalidNumber},
		{model.PlaceBet{CustomerName: "x", Number: 3, Stake: decimal.Zero}, model.ErrInvalidStake},
		// sub-cent stake
		{model.PlaceBet{CustomerName: "x", Number: 3, Stake: decimal.RequireFromString("0.004")}, model.ErrInvalidStake},
	}
	for _, tc := range cases {
		_, err = f.serv.PlaceBet(ctx, r.ID, tc.req)
		assert.ErrorIs(t, err, tc.want)
	}

	bets, err := f.bets.ListByRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, bets, 1)

	_, err = f.serv.PlaceBet(ctx, uuid.New(), model.PlaceBet{CustomerName: "x", Number: 3, Stake: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, model.ErrRoundNotFound)

	_, err = f.serv.SettleRound(ctx, r.ID)
	require.NoError(t, err)
	_, err = f.serv.PlaceBet(ctx, r.ID, model.PlaceBet{CustomerName: "x", Number: 3, Stake: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, model.ErrRoundClosed)
}

func TestDeleteBet(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	r := f.round(t, time.Hour)
	keep := f.bet(t, r.ID, 5, 10)
	drop := f.bet(t, r.ID, 6, 10)

	require.NoError(t, f.serv.DeleteBet(ctx, drop.ID))
	_, err := f.bets.GetBet(ctx, drop.ID)
	assert.ErrorIs(t, err, model.ErrBetNotFound)

	assert.ErrorIs(t, f.serv.DeleteBet(ctx, uuid.New()), model.ErrBetNotFound)

	_, err = f.serv.SettleRound(ctx, r.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.serv.DeleteBet(ctx, keep.ID), model.ErrRoundClosed)
}

func TestPendingSummary(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	overdue := f.round(t, 13*time.Minute)
	upcoming := f.round(t, 88*time.Minute)
	f.bet(t, overdue.ID, 1, 5)
	f.bet(t, overdue.ID, 2, 5)

	f.clock.Set(start.Add(43 * time.Minute))
	summary, err := f.serv.PendingSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	require.Len(t, summary.Overdue, 1)
	require.Len(t, summary.Upcoming, 1)
	assert.Equal(t, overdue.ID, summary.Overdue[0].Round.ID)
	assert.Equal(t, 2, summary.Overdue[0].Bets)
	assert.Equal(t, 30, summary.Overdue[0].Minutes)
	assert.Equal(t, upcoming.ID, summary.Upcoming[0].Round.ID)
	assert.Equal(t, 45, summary.Upcoming[0].Minutes)
}

func TestListRecent(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	first := f.round(t, time.Hour)
	second := f.round(t, 2*time.Hour)
	f.bet(t, first.ID, 4, 25)
	f.bet(t, first.ID, 9, 15)

	list, err := f.serv.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].Round.ID)
	assert.Equal(t, 2, list[1].TotalBets)
	assert.Equal(t, "40", list[1].TotalStake.String())

	list, err = f.serv.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
