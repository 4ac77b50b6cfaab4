package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

// SignalHandler handles intent signal ingestion and scoring
type SignalHandler struct {
	intentService services.IntentService
}

// NewSignalHandler creates a new signal handler with service injection
func NewSignalHandler(intentService services.IntentService) *SignalHandler {
	return &SignalHandler{
		intentService: intentService,
	}
}

// IngestSignal appends one signal
func (h *SignalHandler) IngestSignal(c *gin.Context) {
	var req SignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	signal, err := h.intentService.IngestSignal(c.Request.Context(), req.ToSignal())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"signal":    signal,
		"timestamp": time.Now(),
	})
}

// IngestBatch appends a batch of signals
func (h *SignalHandler) IngestBatch(c *gin.Context) {
	var req SignalBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	batch := make([]models.Signal, len(req.Signals))
	for i, s := range req.Signals {
		batch[i] = s.ToSignal()
	}

	stored, err := h.intentService.IngestBatch(c.Request.Context(), batch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"signals":   stored,
		"count":     len(stored),
		"timestamp": time.Now(),
	})
}

// GetScores recomputes and returns every entity's score, highest first
func (h *SignalHandler) GetScores(c *gin.Context) {
	scores := h.intentService.AllScores(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"scores":    scores,
		"count":     len(scores),
		"timestamp": time.Now(),
	})
}

// GetScore recomputes one entity's score
func (h *SignalHandler) GetScore(c *gin.Context) {
	score, err := h.intentService.ComputeScore(c.Request.Context(), c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"score":     score,
		"timestamp": time.Now(),
	})
}

// GetScoreHistory returns recorded scores for one entity
func (h *SignalHandler) GetScoreHistory(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.intentService.ScoreHistory(c.Request.Context(), c.Param("entityId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_id": c.Param("entityId"),
		"history":   history,
		"timestamp": time.Now(),
	})
}

// GetSpikes runs spike detection over every entity
func (h *SignalHandler) GetSpikes(c *gin.Context) {
	spikes := h.intentService.DetectSpikes(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"spikes":    spikes,
		"count":     len(spikes),
		"timestamp": time.Now(),
	})
}

// GetSpikeHistory returns recorded spikes
func (h *SignalHandler) GetSpikeHistory(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	spikes, err := h.intentService.SpikeHistory(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spikes":    spikes,
		"timestamp": time.Now(),
	})
}
