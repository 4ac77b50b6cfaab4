package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

// EnrichmentHandler handles provider snapshots, deltas and merges
type EnrichmentHandler struct {
	enrichmentService services.EnrichmentService
}

// NewEnrichmentHandler creates a new enrichment handler with service injection
func NewEnrichmentHandler(enrichmentService services.EnrichmentService) *EnrichmentHandler {
	return &EnrichmentHandler{
		enrichmentService: enrichmentService,
	}
}

// StoreSnapshot stores one snapshot and returns its delta, or null when
// nothing tracked changed
func (h *EnrichmentHandler) StoreSnapshot(c *gin.Context) {
	var req SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	delta, err := h.enrichmentService.StoreSnapshot(c.Request.Context(), req.ToSnapshot())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"delta":     delta,
		"changed":   delta != nil,
		"timestamp": time.Now(),
	})
}

// ProcessBatch stores snapshots in order and returns the produced deltas
func (h *EnrichmentHandler) ProcessBatch(c *gin.Context) {
	var req SnapshotBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	batch := make([]models.Snapshot, len(req.Snapshots))
	for i, s := range req.Snapshots {
		batch[i] = s.ToSnapshot()
	}

	deltas, err := h.enrichmentService.ProcessBatch(c.Request.Context(), batch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deltas":    deltas,
		"count":     len(deltas),
		"timestamp": time.Now(),
	})
}

// GetSnapshots returns the entity's snapshots from both sources
func (h *EnrichmentHandler) GetSnapshots(c *gin.Context) {
	entityType, ok := entityTypeParam(c)
	if !ok {
		return
	}

	snapshots, err := h.enrichmentService.GetSnapshots(c.Request.Context(), entityType, c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"timestamp": time.Now(),
	})
}

// GetSnapshot returns one source's snapshot
func (h *EnrichmentHandler) GetSnapshot(c *gin.Context) {
	entityType, ok := entityTypeParam(c)
	if !ok {
		return
	}
	source, err := models.ParseSource(c.Param("source"))
	if err != nil {
		respondError(c, errors.InvalidInput("unknown source", err).WithDetails(c.Param("source")))
		return
	}

	snapshot, err := h.enrichmentService.GetSnapshot(c.Request.Context(), entityType, c.Param("entityId"), source)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot":  snapshot,
		"timestamp": time.Now(),
	})
}

// GetMerged returns the merged attribute view
func (h *EnrichmentHandler) GetMerged(c *gin.Context) {
	entityType, ok := entityTypeParam(c)
	if !ok {
		return
	}

	var priority models.Source
	if raw := c.Query("priority"); raw != "" {
		parsed, err := models.ParseSource(raw)
		if err != nil {
			respondError(c, errors.InvalidInput("unknown merge priority", err).WithDetails(raw))
			return
		}
		priority = parsed
	}

	merged, err := h.enrichmentService.Merge(c.Request.Context(), entityType, c.Param("entityId"), priority)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_type": entityType,
		"entity_id":   c.Param("entityId"),
		"attributes":  merged,
		"timestamp":   time.Now(),
	})
}

// GetDeltas returns recorded deltas for the entity
func (h *EnrichmentHandler) GetDeltas(c *gin.Context) {
	entityType, ok := entityTypeParam(c)
	if !ok {
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	deltas, err := h.enrichmentService.DeltaHistory(c.Request.Context(), entityType, c.Param("entityId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deltas":    deltas,
		"timestamp": time.Now(),
	})
}

func entityTypeParam(c *gin.Context) (models.EntityType, bool) {
	entityType, err := models.ParseEntityType(c.Param("entityType"))
	if err != nil {
		respondError(c, errors.InvalidInput("unknown entity type", err).WithDetails(c.Param("entityType")))
		return "", false
	}
	return entityType, true
}
