package converter

import (
	dto "roulette_backend/internal/api/dto/scheduler"
	"roulette_backend/internal/scheduler"
)

func ToSchedulerStatus(s scheduler.Status) dto.StatusResponse {
	return dto.StatusResponse{
		Running:   s.Running,
		Stopping:  s.Stopping,
		StartedAt: s.StartedAt,
		LastDrain: s.LastDrain,
		Attempted: s.LastRun.Attempted,
		Succeeded: s.LastRun.Succeeded,
		Failed:    s.LastRun.Failed,
	}
}
