package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler answers the liveness probe
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a health handler. redis may be nil when the
// service runs on in-memory fallbacks.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check godoc
// @ID           healthCheck
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"time": time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		body["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		body["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			body["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			body["redis"] = "ok"
		}
	}

	if status == http.StatusOK {
		body["status"] = "healthy"
	} else {
		body["status"] = "unhealthy"
	}
	c.JSON(status, body)
}
