// internal/handler/health_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/ad-scheduler/internal/logging"
)

// Pinger is any store that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store  Pinger
	Driver string
	Logger *zap.Logger
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Database pings the campaign store with a short deadline.
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		logging.OrNop(h.Logger).Warn("store ping failed", zap.String("driver", h.Driver), zap.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": h.Driver + " unavailable",
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "driver": h.Driver})
}
