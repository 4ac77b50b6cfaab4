package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/database"
	"github.com/ajharbinger/intent-signal-hub/internal/metrics"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

// SetupRoutes configures all API routes. db may be nil.
func SetupRoutes(r *gin.Engine, svc *services.Services, monitor *services.SpikeMonitor, db *database.DB) error {
	if svc == nil || monitor == nil {
		return fmt.Errorf("services and spike monitor are required")
	}

	signalHandler := NewSignalHandler(svc.Intent)
	enrichmentHandler := NewEnrichmentHandler(svc.Enrichment)
	classificationHandler := NewClassificationHandler(svc.Classification)
	adminHandler := NewAdminHandler(svc, monitor, db)
	exportHandler := NewExportHandler(svc.Export)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", adminHandler.Health)

		// Intent signals and scores
		v1.POST("/signals", signalHandler.IngestSignal)
		v1.POST("/signals/batch", signalHandler.IngestBatch)
		v1.GET("/scores", signalHandler.GetScores)
		v1.GET("/scores/:entityId", signalHandler.GetScore)
		v1.GET("/scores/:entityId/history", signalHandler.GetScoreHistory)
		v1.GET("/spikes", signalHandler.GetSpikes)
		v1.GET("/spikes/history", signalHandler.GetSpikeHistory)
		v1.GET("/exports/scores", exportHandler.ExportScores)

		// Enrichment snapshots
		v1.POST("/enrichment/snapshots", enrichmentHandler.StoreSnapshot)
		v1.POST("/enrichment/snapshots/batch", enrichmentHandler.ProcessBatch)
		v1.GET("/enrichment/:entityType/:entityId/snapshots", enrichmentHandler.GetSnapshots)
		v1.GET("/enrichment/:entityType/:entityId/snapshots/:source", enrichmentHandler.GetSnapshot)
		v1.GET("/enrichment/:entityType/:entityId/merged", enrichmentHandler.GetMerged)
		v1.GET("/enrichment/:entityType/:entityId/deltas", enrichmentHandler.GetDeltas)

		// Rule profiles
		v1.POST("/classify/company", classificationHandler.ClassifyCompany)
		v1.POST("/classify/contact", classificationHandler.ClassifyContact)
		v1.GET("/profiles", classificationHandler.GetProfiles)

		// Administration
		v1.POST("/admin/reset", adminHandler.Reset)
		v1.GET("/admin/monitor", adminHandler.GetMonitorStatus)
		v1.POST("/admin/monitor/run-once", adminHandler.RunMonitorOnce)
	}

	return nil
}
