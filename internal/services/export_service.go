package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// ExportFormat specifies the format for exporting scores
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat accepts json or csv; empty means json
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ScoreFilter selects which scores are exported
type ScoreFilter struct {
	MinScore   *int           `json:"min_score"`
	MaxScore   *int           `json:"max_score"`
	Trends     []models.Trend `json:"trends"`
	SpikesOnly bool           `json:"spikes_only"`
	Limit      int            `json:"limit"`
}

// Matches reports whether score passes the filter
func (f ScoreFilter) Matches(score models.UnifiedScore) bool {
	if f.MinScore != nil && score.OverallScore < *f.MinScore {
		return false
	}
	if f.MaxScore != nil && score.OverallScore > *f.MaxScore {
		return false
	}
	if f.SpikesOnly && !score.IsSpike {
		return false
	}
	if len(f.Trends) > 0 {
		for _, t := range f.Trends {
			if t == score.Trend {
				return true
			}
		}
		return false
	}
	return true
}

// ExportService filters and exports unified scores
type ExportService struct {
	intent IntentService
	now    func() time.Time
}

// NewExportService creates a new export service
func NewExportService(intent IntentService) *ExportService {
	return &ExportService{intent: intent, now: time.Now}
}

// FilterScores recomputes every score and keeps those matching filter,
// highest first
func (s *ExportService) FilterScores(ctx context.Context, filter ScoreFilter) []models.UnifiedScore {
	return ApplyFilter(s.intent.AllScores(ctx), filter)
}

// ExportScores renders the filtered scores in format
func (s *ExportService) ExportScores(ctx context.Context, filter ScoreFilter, format ExportFormat) ([]byte, error) {
	scores := s.FilterScores(ctx, filter)
	data, err := FormatScores(scores, format, s.now())
	if err != nil {
		return nil, errors.InternalError("failed to export scores", err).WithOperation("ExportScores")
	}
	return data, nil
}

// ApplyFilter keeps the matching scores in input order
func ApplyFilter(scores []models.UnifiedScore, filter ScoreFilter) []models.UnifiedScore {
	out := make([]models.UnifiedScore, 0, len(scores))
	for _, score := range scores {
		if !filter.Matches(score) {
			continue
		}
		out = append(out, score)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// FormatScores renders scores as JSON or CSV
func FormatScores(scores []models.UnifiedScore, format ExportFormat, exportedAt time.Time) ([]byte, error) {
	switch format {
	case FormatCSV:
		return exportToCSV(scores)
	case FormatJSON, "":
		return json.MarshalIndent(map[string]interface{}{
			"scores":      scores,
			"count":       len(scores),
			"exported_at": exportedAt,
		}, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

var csvHeader = []string{
	"entity_id", "entity_name", "domain", "overall_score", "source_a_score",
	"source_b_score", "trend", "is_spike", "signal_count", "top_topics", "computed_at",
}

func exportToCSV(scores []models.UnifiedScore) ([]byte, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, score := range scores {
		row := []string{
			score.EntityID,
			score.EntityName,
			score.Domain,
			strconv.Itoa(score.OverallScore),
			strconv.FormatFloat(score.SourceAScore, 'f', 2, 64),
			strconv.FormatFloat(score.SourceBScore, 'f', 2, 64),
			string(score.Trend),
			strconv.FormatBool(score.IsSpike),
			strconv.Itoa(score.SignalCount),
			formatTopics(score.TopTopics),
			score.ComputedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return []byte(output.String()), nil
}

// formatTopics renders "crm:80; erp:60"
func formatTopics(topics []models.TopicScore) string {
	parts := make([]string, len(topics))
	for i, t := range topics {
		parts[i] = t.Topic + ":" + strconv.Itoa(t.Score)
	}
	return strings.Join(parts, "; ")
}
