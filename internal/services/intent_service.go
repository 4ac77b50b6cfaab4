package services

import (
	"context"
	"strings"

	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/metrics"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/repository"
)

// intentServiceImpl implements IntentService
type intentServiceImpl struct {
	engine  *Engine
	history repository.HistoryRepository
	logger  logger.Logger
}

func newIntentService(engine *Engine, history repository.HistoryRepository, log logger.Logger) IntentService {
	return &intentServiceImpl{
		engine:  engine,
		history: history,
		logger:  log,
	}
}

// IngestSignal validates and appends one signal
func (s *intentServiceImpl) IngestSignal(ctx context.Context, signal models.Signal) (models.Signal, error) {
	if err := validateSignal(signal); err != nil {
		return models.Signal{}, err.WithOperation("IngestSignal")
	}

	stored := s.engine.Signals.Append(signal)
	metrics.RecordSignal(string(stored.Source))
	s.logger.Debug("Signal ingested", "entity_id", stored.EntityID, "source", stored.Source, "topic", stored.Topic)
	return stored, nil
}

// IngestBatch validates every signal before appending any of them
func (s *intentServiceImpl) IngestBatch(ctx context.Context, signals []models.Signal) ([]models.Signal, error) {
	for i, signal := range signals {
		if err := validateSignal(signal); err != nil {
			return nil, err.WithOperation("IngestBatch").WithDetails(indexDetail(i))
		}
	}

	stored := s.engine.Signals.AppendBatch(signals)
	for _, signal := range stored {
		metrics.RecordSignal(string(signal.Source))
	}
	s.logger.Info("Signal batch ingested", "count", len(stored))
	return stored, nil
}

// ComputeScore recomputes one entity's score
func (s *intentServiceImpl) ComputeScore(ctx context.Context, entityID string) (*models.UnifiedScore, error) {
	score, ok := s.engine.Calculator.ComputeScore(entityID)
	if !ok {
		return nil, errors.NotFound("no signals recorded for entity", nil).
			WithOperation("ComputeScore").WithDetails(entityID)
	}

	s.recordScore(ctx, *score)
	return score, nil
}

// AllScores recomputes every entity, highest score first
func (s *intentServiceImpl) AllScores(ctx context.Context) []models.UnifiedScore {
	scores := s.engine.Calculator.AllScores()
	for _, score := range scores {
		s.recordScore(ctx, score)
	}
	return scores
}

// DetectSpikes recomputes every entity and reports the ones spiking now
func (s *intentServiceImpl) DetectSpikes(ctx context.Context) []models.SpikeRecord {
	spikes := s.engine.Calculator.DetectSpikes()
	metrics.RecordSpikes(len(spikes))

	if len(spikes) > 0 {
		s.logger.Info("Intent spikes detected", "count", len(spikes))
		if err := s.history.RecordSpikes(ctx, spikes); err != nil {
			metrics.RecordSinkError("spike")
			s.logger.Error("Failed to record spikes", err, "count", len(spikes))
		}
	}
	return spikes
}

// ScoreHistory returns recorded scores for an entity, newest first
func (s *intentServiceImpl) ScoreHistory(ctx context.Context, entityID string, limit int) ([]models.UnifiedScore, error) {
	scores, err := s.history.GetScoreHistory(ctx, entityID, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to read score history", err).WithOperation("ScoreHistory")
	}
	return scores, nil
}

// SpikeHistory returns recorded spikes, newest first
func (s *intentServiceImpl) SpikeHistory(ctx context.Context, limit int) ([]models.SpikeRecord, error) {
	spikes, err := s.history.GetSpikes(ctx, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to read spike history", err).WithOperation("SpikeHistory")
	}
	return spikes, nil
}

// EntityCount returns the number of entities with signals
func (s *intentServiceImpl) EntityCount() int {
	return len(s.engine.Signals.EntityIDs())
}

// recordScore forwards a score to metrics and history; sink failures are
// only logged
func (s *intentServiceImpl) recordScore(ctx context.Context, score models.UnifiedScore) {
	metrics.RecordScore(string(score.Trend), score.OverallScore)
	if score.IsSpike {
		s.logger.Info("Entity is spiking", "entity_id", score.EntityID, "score", score.OverallScore)
	}
	if err := s.history.RecordScore(ctx, score); err != nil {
		metrics.RecordSinkError("score")
		s.logger.Error("Failed to record score", err, "entity_id", score.EntityID)
	}
}

func validateSignal(signal models.Signal) *errors.AppError {
	if !signal.Source.IsValid() {
		return errors.InvalidInput("unknown signal source", nil).WithDetails(string(signal.Source))
	}
	if strings.TrimSpace(signal.EntityID) == "" {
		return errors.InvalidInput("signal entity_id is required", nil)
	}
	if strings.TrimSpace(signal.Topic) == "" {
		return errors.InvalidInput("signal topic is required", nil)
	}
	return nil
}
