package repository

import (
	"context"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// HistoryRepository records computed scores, spikes and enrichment deltas.
// The engine treats it as a write-mostly sink; reads serve the history
// endpoints.
type HistoryRepository interface {
	RecordScore(ctx context.Context, score models.UnifiedScore) error
	RecordSpikes(ctx context.Context, spikes []models.SpikeRecord) error
	RecordDeltas(ctx context.Context, deltas []models.Delta) error

	GetScoreHistory(ctx context.Context, entityID string, limit int) ([]models.UnifiedScore, error)
	GetSpikes(ctx context.Context, limit int) ([]models.SpikeRecord, error)
	GetDeltas(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]models.Delta, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(history HistoryRepository) error) error
}

// DefaultHistoryLimit caps history reads when the caller passes no limit
const DefaultHistoryLimit = 100

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultHistoryLimit
	}
	return limit
}
