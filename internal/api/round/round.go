package round

import (
	"net/http"
	"roulette_backend/internal/api"
	dto "roulette_backend/internal/api/dto/round"
	"roulette_backend/internal/converter"
	"roulette_backend/internal/service"
	"roulette_backend/pkg/req"
	"roulette_backend/pkg/resp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type HandlerDeps struct {
	Serv service.RoundService
}

type Handler struct {
	serv service.RoundService
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, err := req.Decode[dto.CreateRoundRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	round, err := h.serv.CreateRound(r.Context(), payload.ScheduledFor)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusCreated, converter.ToRoundResponse(*round))
}

// CreateNext schedules the next hourly round, or returns the one already there
func (h *Handler) CreateNext(w http.ResponseWriter, r *http.Request) {
	round, err := h.serv.CreateNextHourly(r.Context())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToRoundResponse(*round))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			resp.WriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	rounds, err := h.serv.ListRecent(r.Context(), limit)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToRoundOverviews(rounds))
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	summary, err := h.serv.PendingSummary(r.Context())
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToPendingSummaryResponse(*summary))
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.serv.SettleRound(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToSettleResponse(*result))
}

func (h *Handler) Drain(w http.ResponseWriter, r *http.Request) {
	result := h.serv.DrainOverdue(r.Context())

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToDrainResponse(result))
}

func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	payload, err := req.Decode[dto.PlaceBetRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	bet, err := h.serv.PlaceBet(r.Context(), id, converter.ToPlaceBet(payload))
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusCreated, converter.ToBetResponse(*bet))
}

func (h *Handler) DeleteBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.serv.DeleteBet(r.Context(), id); err != nil {
		api.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
