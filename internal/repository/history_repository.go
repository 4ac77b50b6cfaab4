package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// historyRepository implements HistoryRepository on Postgres
type historyRepository struct {
	db dbExecutor
	tx TransactionManager
}

// NewHistoryRepository creates a Postgres-backed history repository
func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{
		db: db,
		tx: NewTransactionManager(db),
	}
}

// RecordScore stores one computed score
func (r *historyRepository) RecordScore(ctx context.Context, score models.UnifiedScore) error {
	topicsJSON, err := json.Marshal(score.TopTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal top topics: %w", err)
	}

	query := `
		INSERT INTO score_history (entity_id, entity_name, domain, overall_score, source_a_score,
			source_b_score, top_topics, signal_count, trend, is_spike, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		score.EntityID, score.EntityName, score.Domain, score.OverallScore, score.SourceAScore,
		score.SourceBScore, topicsJSON, score.SignalCount, string(score.Trend), score.IsSpike, score.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to insert score for %s: %w", score.EntityID, err)
	}
	return nil
}

// RecordSpikes stores spike records in one statement per row
func (r *historyRepository) RecordSpikes(ctx context.Context, spikes []models.SpikeRecord) error {
	query := `
		INSERT INTO spike_history (entity_id, entity_name, previous_score, current_score, change_percent, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, s := range spikes {
		_, err := r.db.ExecContext(ctx, query, s.EntityID, s.EntityName, s.PreviousScore, s.CurrentScore, s.ChangePercent, s.DetectedAt)
		if err != nil {
			return fmt.Errorf("failed to insert spike for %s: %w", s.EntityID, err)
		}
	}
	return nil
}

// RecordDeltas stores a batch of deltas atomically
func (r *historyRepository) RecordDeltas(ctx context.Context, deltas []models.Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	if r.tx == nil {
		return r.insertDeltas(ctx, deltas)
	}
	return r.tx.WithTransaction(ctx, func(history HistoryRepository) error {
		return history.(*historyRepository).insertDeltas(ctx, deltas)
	})
}

func (r *historyRepository) insertDeltas(ctx context.Context, deltas []models.Delta) error {
	query := `
		INSERT INTO enrichment_deltas (id, entity_type, entity_id, source, changed_fields, changes, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, d := range deltas {
		changesJSON, err := json.Marshal(d.Changes)
		if err != nil {
			return fmt.Errorf("failed to marshal changes: %w", err)
		}
		_, err = r.db.ExecContext(ctx, query, d.ID, string(d.EntityType), d.EntityID, string(d.Source),
			pq.Array(d.ChangedFields()), changesJSON, d.ComputedAt)
		if err != nil {
			return fmt.Errorf("failed to insert delta %s: %w", d.ID, err)
		}
	}
	return nil
}

// GetScoreHistory returns an entity's recorded scores, newest first
func (r *historyRepository) GetScoreHistory(ctx context.Context, entityID string, limit int) ([]models.UnifiedScore, error) {
	query := `
		SELECT entity_id, entity_name, domain, overall_score, source_a_score, source_b_score,
			top_topics, signal_count, trend, is_spike, computed_at
		FROM score_history
		WHERE entity_id = $1
		ORDER BY computed_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, entityID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	scores := []models.UnifiedScore{}
	for rows.Next() {
		var s models.UnifiedScore
		var topicsJSON []byte
		var trend string
		if err := rows.Scan(&s.EntityID, &s.EntityName, &s.Domain, &s.OverallScore, &s.SourceAScore, &s.SourceBScore,
			&topicsJSON, &s.SignalCount, &trend, &s.IsSpike, &s.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		if err := json.Unmarshal(topicsJSON, &s.TopTopics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal top topics: %w", err)
		}
		s.Trend = models.Trend(trend)
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// GetSpikes returns recorded spikes, newest first
func (r *historyRepository) GetSpikes(ctx context.Context, limit int) ([]models.SpikeRecord, error) {
	query := `
		SELECT entity_id, entity_name, previous_score, current_score, change_percent, detected_at
		FROM spike_history
		ORDER BY detected_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query spikes: %w", err)
	}
	defer rows.Close()

	spikes := []models.SpikeRecord{}
	for rows.Next() {
		var s models.SpikeRecord
		if err := rows.Scan(&s.EntityID, &s.EntityName, &s.PreviousScore, &s.CurrentScore, &s.ChangePercent, &s.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spike: %w", err)
		}
		spikes = append(spikes, s)
	}
	return spikes, rows.Err()
}

// GetDeltas returns an entity's recorded deltas across sources, newest first
func (r *historyRepository) GetDeltas(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]models.Delta, error) {
	query := `
		SELECT id, entity_type, entity_id, source, changes, computed_at
		FROM enrichment_deltas
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY computed_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, string(entityType), entityID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query deltas: %w", err)
	}
	defer rows.Close()

	deltas := []models.Delta{}
	for rows.Next() {
		var d models.Delta
		var et, src string
		var changesJSON []byte
		if err := rows.Scan(&d.ID, &et, &d.EntityID, &src, &changesJSON, &d.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delta: %w", err)
		}
		if err := json.Unmarshal(changesJSON, &d.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
		d.EntityType = models.EntityType(et)
		d.Source = models.Source(src)
		deltas = append(deltas, d)
	}
	return deltas, rows.Err()
}
