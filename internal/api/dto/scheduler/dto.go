package scheduler

import "time"

type StatusResponse struct {
	Running   bool       `json:"running"`
	Stopping  bool       `json:"stopping"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastDrain *time.Time `json:"last_drain,omitempty"`
	Attempted int        `json:"last_attempted"`
	Succeeded int        `json:"last_succeeded"`
	Failed    int        `json:"last_failed"`
}

type ToggleResponse struct {
	Changed bool           `json:"changed"` // False when already in the requested state
	Status  StatusResponse `json:"status"`
}
