package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/arunakai/care-home-saas/internal/logutil"
	"github.com/arunakai/care-home-saas/internal/utils"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	DB Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{DB: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			logger := logutil.GetOrDefault(r.Context())
			logger.Error().Err(err).Msg("health check: database unreachable")
			utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
