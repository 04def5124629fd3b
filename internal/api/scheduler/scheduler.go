package scheduler

import (
	"context"
	"net/http"
	dto "roulette_backend/internal/api/dto/scheduler"
	"roulette_backend/internal/converter"
	"roulette_backend/internal/scheduler"
	"roulette_backend/pkg/resp"
)

type Controller interface {
	Start(ctx context.Context) bool
	Stop() bool
	Status() scheduler.Status
}

type HandlerDeps struct {
	Scheduler Controller
}

type Handler struct {
	scheduler Controller
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{scheduler: deps.Scheduler}
}

func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, converter.ToSchedulerStatus(h.scheduler.Status()))
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	changed := h.scheduler.Start(r.Context())
	h.toggled(w, changed)
}

func (h *Handler) Stop(w http.ResponseWriter, _ *http.Request) {
	changed := h.scheduler.Stop()
	h.toggled(w, changed)
}

func (h *Handler) toggled(w http.ResponseWriter, changed bool) {
	resp.WriteJSONResponse(w, http.StatusOK, dto.ToggleResponse{
		Changed: changed,
		Status:  converter.ToSchedulerStatus(h.scheduler.Status()),
	})
}
