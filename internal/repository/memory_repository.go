package repository

import (
	"context"
	"sync"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

var _ HistoryRepository = (*MemoryHistoryRepository)(nil)

// MemoryHistoryRepository keeps history in process. It is the default sink
// when no database is configured.
type MemoryHistoryRepository struct {
	mu     sync.RWMutex
	scores map[string][]models.UnifiedScore
	spikes []models.SpikeRecord
	deltas []models.Delta
	max    int
}

// NewMemoryHistoryRepository creates an in-memory repository retaining at
// most maxPerStream records per entity score stream, spike list and delta
// list. Non-positive values select a default of 1000.
func NewMemoryHistoryRepository(maxPerStream int) *MemoryHistoryRepository {
	if maxPerStream <= 0 {
		maxPerStream = 1000
	}
	return &MemoryHistoryRepository{
		scores: make(map[string][]models.UnifiedScore),
		max:    maxPerStream,
	}
}

// RecordScore appends a score to the entity's stream
func (r *MemoryHistoryRepository) RecordScore(ctx context.Context, score models.UnifiedScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	score.TopTopics = append([]models.TopicScore(nil), score.TopTopics...)
	r.scores[score.EntityID] = trim(append(r.scores[score.EntityID], score), r.max)
	return nil
}

// RecordSpikes appends spike records
func (r *MemoryHistoryRepository) RecordSpikes(ctx context.Context, spikes []models.SpikeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spikes = trim(append(r.spikes, spikes...), r.max)
	return nil
}

// RecordDeltas appends deltas
func (r *MemoryHistoryRepository) RecordDeltas(ctx context.Context, deltas []models.Delta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deltas = trim(append(r.deltas, deltas...), r.max)
	return nil
}

// GetScoreHistory returns an entity's scores, newest first
func (r *MemoryHistoryRepository) GetScoreHistory(ctx context.Context, entityID string, limit int) ([]models.UnifiedScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.scores[entityID], normalizeLimit(limit), func(models.UnifiedScore) bool { return true }), nil
}

// GetSpikes returns spikes, newest first
func (r *MemoryHistoryRepository) GetSpikes(ctx context.Context, limit int) ([]models.SpikeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.spikes, normalizeLimit(limit), func(models.SpikeRecord) bool { return true }), nil
}

// GetDeltas returns an entity's deltas across sources, newest first
func (r *MemoryHistoryRepository) GetDeltas(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]models.Delta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.deltas, normalizeLimit(limit), func(d models.Delta) bool {
		return d.EntityType == entityType && d.EntityID == entityID
	}), nil
}

func trim[T any](items []T, max int) []T {
	if len(items) <= max {
		return items
	}
	return append([]T(nil), items[len(items)-max:]...)
}

func newestFirst[T any](items []T, limit int, keep func(T) bool) []T {
	out := []T{}
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}
