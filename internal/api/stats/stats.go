package stats

import (
	"net/http"
	"roulette_backend/internal/api"
	"roulette_backend/internal/converter"
	"roulette_backend/internal/middleware"
	"roulette_backend/internal/service"
	"roulette_backend/pkg/resp"
)

type HandlerDeps struct {
	Serv service.StatsService
}

type Handler struct {
	serv service.StatsService
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv}
}

// Get returns the caller's aggregates and latest manual bets
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.serv.GetUserStats(r.Context(), userID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	recent, err := h.serv.RecentBets(r.Context(), userID)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToStatsResponse(*stats, recent))
}
