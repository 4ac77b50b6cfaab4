package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/enrichment"
	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/metrics"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/repository"
)

// enrichmentServiceImpl implements EnrichmentService
type enrichmentServiceImpl struct {
	engine  *Engine
	history repository.HistoryRepository
	logger  logger.Logger
}

func newEnrichmentService(engine *Engine, history repository.HistoryRepository, log logger.Logger) EnrichmentService {
	return &enrichmentServiceImpl{
		engine:  engine,
		history: history,
		logger:  log,
	}
}

// StoreSnapshot stores one snapshot; the delta is nil when nothing tracked changed
func (s *enrichmentServiceImpl) StoreSnapshot(ctx context.Context, snapshot models.Snapshot) (*models.Delta, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err.WithOperation("StoreSnapshot")
	}

	delta, ok := s.engine.Snapshots.StoreSnapshot(snapshot)
	metrics.RecordSnapshot(string(snapshot.EntityType), string(snapshot.Source), ok)
	if !ok {
		return nil, nil
	}

	s.logger.Info("Enrichment delta detected",
		"entity_type", delta.EntityType, "entity_id", delta.EntityID, "source", delta.Source,
		"fields", strings.Join(delta.ChangedFields(), ","))
	s.recordDeltas(ctx, []models.Delta{*delta})
	return delta, nil
}

// ProcessBatch stores snapshots in input order and returns the deltas produced
func (s *enrichmentServiceImpl) ProcessBatch(ctx context.Context, snapshots []models.Snapshot) ([]models.Delta, error) {
	for i, snapshot := range snapshots {
		if err := validateSnapshot(snapshot); err != nil {
			return nil, err.WithOperation("ProcessBatch").WithDetails(indexDetail(i))
		}
	}

	deltas := make([]models.Delta, 0)
	for _, snapshot := range snapshots {
		delta, ok := s.engine.Snapshots.StoreSnapshot(snapshot)
		metrics.RecordSnapshot(string(snapshot.EntityType), string(snapshot.Source), ok)
		if ok {
			deltas = append(deltas, *delta)
		}
	}

	s.logger.Info("Snapshot batch processed", "snapshots", len(snapshots), "deltas", len(deltas))
	s.recordDeltas(ctx, deltas)
	return deltas, nil
}

// GetSnapshot returns the latest snapshot for one key
func (s *enrichmentServiceImpl) GetSnapshot(ctx context.Context, entityType models.EntityType, entityID string, source models.Source) (*models.Snapshot, error) {
	if err := validateKey(entityType, entityID); err != nil {
		return nil, err.WithOperation("GetSnapshot")
	}
	if !source.IsValid() {
		return nil, errors.InvalidInput("unknown source", nil).WithOperation("GetSnapshot").WithDetails(string(source))
	}

	snapshot, ok := s.engine.Snapshots.Snapshot(entityType, entityID, source)
	if !ok {
		return nil, errors.NotFound("snapshot not found", nil).
			WithOperation("GetSnapshot").
			WithDetails(fmt.Sprintf("%s/%s/%s", entityType, entityID, source))
	}
	return &snapshot, nil
}

// GetSnapshots returns the entity's snapshots, source A first
func (s *enrichmentServiceImpl) GetSnapshots(ctx context.Context, entityType models.EntityType, entityID string) ([]models.Snapshot, error) {
	if err := validateKey(entityType, entityID); err != nil {
		return nil, err.WithOperation("GetSnapshots")
	}
	return s.engine.Snapshots.Snapshots(entityType, entityID), nil
}

// Merge combines both sources' snapshots; an empty priority selects the default
func (s *enrichmentServiceImpl) Merge(ctx context.Context, entityType models.EntityType, entityID string, priority models.Source) (attr.Map, error) {
	if err := validateKey(entityType, entityID); err != nil {
		return nil, err.WithOperation("Merge")
	}
	if priority == "" {
		priority = enrichment.DefaultPriority
	}
	if !priority.IsValid() {
		return nil, errors.InvalidInput("unknown merge priority", nil).WithOperation("Merge").WithDetails(string(priority))
	}
	return s.engine.Snapshots.Merge(entityType, entityID, priority), nil
}

// DeltaHistory returns recorded deltas for an entity, newest first
func (s *enrichmentServiceImpl) DeltaHistory(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]models.Delta, error) {
	if err := validateKey(entityType, entityID); err != nil {
		return nil, err.WithOperation("DeltaHistory")
	}
	deltas, err := s.history.GetDeltas(ctx, entityType, entityID, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to read delta history", err).WithOperation("DeltaHistory")
	}
	return deltas, nil
}

func (s *enrichmentServiceImpl) recordDeltas(ctx context.Context, deltas []models.Delta) {
	if len(deltas) == 0 {
		return
	}
	if err := s.history.RecordDeltas(ctx, deltas); err != nil {
		metrics.RecordSinkError("delta")
		s.logger.Error("Failed to record deltas", err, "count", len(deltas))
	}
}

func validateSnapshot(snapshot models.Snapshot) *errors.AppError {
	if err := validateKey(snapshot.EntityType, snapshot.EntityID); err != nil {
		return err
	}
	if !snapshot.Source.IsValid() {
		return errors.InvalidInput("unknown snapshot source", nil).WithDetails(string(snapshot.Source))
	}
	return nil
}

func validateKey(entityType models.EntityType, entityID string) *errors.AppError {
	if !entityType.IsValid() {
		return errors.InvalidInput("unknown entity type", nil).WithDetails(string(entityType))
	}
	if strings.TrimSpace(entityID) == "" {
		return errors.InvalidInput("entity_id is required", nil)
	}
	return nil
}

func indexDetail(i int) string {
	return fmt.Sprintf("item %d", i)
}
