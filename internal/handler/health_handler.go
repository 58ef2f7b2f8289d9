package handlers

import (
	"net/http"
)

type HealthResponse struct {
	Status      string `json:"status"`
	CountTables int    `json:"countTables"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.HealthService.CountTables(r.Context())
	if err != nil {
		h.Logger.Sugar().Errorf("health check failed: %s", err.Error())
		WriteError(w, "database is unavailable", http.StatusServiceUnavailable)
		return
	}

	writeSuccess(w, HealthResponse{Status: "ok", CountTables: count}, http.StatusOK)
}
