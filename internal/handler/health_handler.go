package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	DB Pinger
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		logrus.WithError(err).Error("Health check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
