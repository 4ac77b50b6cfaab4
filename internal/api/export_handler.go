package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/services"
)

// ExportHandler serves filtered score exports
type ExportHandler struct {
	exportService *services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportScores renders filtered scores as JSON or CSV.
// Query: format, min_score, max_score, trend (repeatable), spikes_only, limit.
func (h *ExportHandler) ExportScores(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, errors.InvalidInput("unsupported export format", err).WithDetails(c.Query("format")))
		return
	}

	filter, err := parseScoreFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.exportService.ExportScores(c.Request.Context(), filter, format)
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := "application/json"
	if format == services.FormatCSV {
		contentType = "text/csv"
		c.Header("Content-Disposition", `attachment; filename="intent_scores.csv"`)
	}
	c.Data(http.StatusOK, contentType, data)
}

func parseScoreFilter(c *gin.Context) (services.ScoreFilter, error) {
	var filter services.ScoreFilter

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"min_score", &filter.MinScore},
		{"max_score", &filter.MaxScore},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.InvalidInput(p.name+" must be an integer", err).WithDetails(raw)
		}
		*p.dst = &v
	}

	for _, raw := range c.QueryArray("trend") {
		trend := models.Trend(strings.ToLower(raw))
		switch trend {
		case models.TrendIncreasing, models.TrendStable, models.TrendDecreasing:
			filter.Trends = append(filter.Trends, trend)
		default:
			return filter, errors.InvalidInput("unknown trend", nil).WithDetails(raw)
		}
	}

	filter.SpikesOnly = c.Query("spikes_only") == "true"

	limit, err := queryLimit(c)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	return filter, nil
}
