package handlers

import (
	"context"
	"net/http"
	"time"

	"ourskilllab/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	version string
	checks  map[string]Pinger
	logger  *logger.Logger
}

func NewHealthHandler(version string, checks map[string]Pinger, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		version: version,
		checks:  checks,
		logger:  logger,
	}
}

// Health reports 503 when any dependency fails its ping.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dependencies := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			dependencies[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		dependencies[name] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"version":      h.version,
		"dependencies": dependencies,
		"timestamp":    time.Now().UTC(),
	})
}
