package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/database"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

// AdminHandler handles reset, spike monitor control and health
type AdminHandler struct {
	services *services.Services
	monitor  *services.SpikeMonitor
	db       *database.DB
}

// NewAdminHandler creates a new admin handler. db may be nil when running
// with the in-memory history sink.
func NewAdminHandler(svc *services.Services, monitor *services.SpikeMonitor, db *database.DB) *AdminHandler {
	return &AdminHandler{
		services: svc,
		monitor:  monitor,
		db:       db,
	}
}

// Reset clears all signals, baselines and snapshots
func (h *AdminHandler) Reset(c *gin.Context) {
	h.services.Reset()
	c.JSON(http.StatusOK, gin.H{
		"message":   "Engine state reset",
		"timestamp": time.Now(),
	})
}

// GetMonitorStatus returns the spike monitor state
func (h *AdminHandler) GetMonitorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"monitor_status": h.monitor.Status(),
		"timestamp":      time.Now(),
	})
}

// RunMonitorOnce runs one spike detection cycle immediately
func (h *AdminHandler) RunMonitorOnce(c *gin.Context) {
	stats := h.monitor.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message":   "Spike cycle completed",
		"stats":     stats,
		"timestamp": time.Now(),
	})
}

// Health reports liveness and, when configured, database reachability
func (h *AdminHandler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"healthy":         true,
		"entities":        h.services.Intent.EntityCount(),
		"monitor_running": h.monitor.IsRunning(),
		"history_sink":    "memory",
		"timestamp":       time.Now(),
	}
	if h.services.SinkHealth != nil {
		sink := h.services.SinkHealth.Status()
		body["history_sink_health"] = sink
		if !sink.IsHealthy {
			body["degraded"] = true
		}
	}

	if h.db != nil {
		body["history_sink"] = "postgres"
		if err := h.db.HealthCheck(); err != nil {
			status = http.StatusServiceUnavailable
			body["healthy"] = false
			body["database_error"] = err.Error()
		} else {
			body["database"] = h.db.GetStats()
		}
	}

	c.JSON(status, body)
}
