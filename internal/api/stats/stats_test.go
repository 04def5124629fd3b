package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"roulette_backend/internal/middleware"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository/memory"
	statsService "roulette_backend/internal/service/stats"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_Get(t *testing.T) {
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	manual := memory.NewManualBetRepository(store)
	id, err := users.CreateUser(context.Background(), &model.User{Name: "kim"})
	require.NoError(t, err)

	won, lost := true, false
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, outcome := range []*bool{&lost, &won} {
		payout := decimal.Zero
		if *outcome {
			payout = decimal.NewFromInt(145)
		}
		require.NoError(t, manual.CreateManualBet(context.Background(), &model.ManualBet{
			ID:            uuid.New(),
			UserID:        id,
			Number:        12,
			Stake:         decimal.NewFromInt(5),
			WinningNumber: 12,
			Won:           outcome,
			Payout:        payout,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	h := NewHandler(HandlerDeps{Serv: statsService.NewStatsService(users, manual, memory.NewStatsRepository(store), memory.NewTxManager(store))})

	r := httptest.NewRequest(http.MethodGet, "/stats", nil)
	r = r.WithContext(middleware.WithUserID(r.Context(), id))
	w := httptest.NewRecorder()
	h.Get(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Stats struct {
			TotalGames    int    `json:"total_games"`
			TotalWins     int    `json:"total_wins"`
			CurrentStreak int    `json:"current_streak"`
			BestWin       string `json:"best_win"`
		} `json:"stats"`
		RecentBets []struct {
			Won *bool `json:"won"`
		} `json:"recent_bets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Stats.TotalGames)
	assert.Equal(t, 1, body.Stats.TotalWins)
	assert.Equal(t, 1, body.Stats.CurrentStreak)
	assert.Equal(t, "145", body.Stats.BestWin)
	require.Len(t, body.RecentBets, 2)
	assert.True(t, *body.RecentBets[0].Won)
}

func TestStats_Unauthenticated(t *testing.T) {
	store := memory.NewStore()
	h := NewHandler(HandlerDeps{Serv: statsService.NewStatsService(
		memory.NewUserRepository(store),
		memory.NewManualBetRepository(store),
		memory.NewStatsRepository(store),
		memory.NewTxManager(store),
	)})

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
