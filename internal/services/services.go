package services

import (
	"context"
	"sync"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/enrichment"
	"github.com/ajharbinger/intent-signal-hub/internal/intent"
	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/repository"
	"github.com/ajharbinger/intent-signal-hub/internal/scoring"
)

// Services contains all application services
type Services struct {
	Intent         IntentService
	Enrichment     EnrichmentService
	Classification ClassificationService
	Export         *ExportService
	SinkHealth     *repository.SinkHealth

	engine *Engine
}

// IntentService ingests intent signals and produces unified scores
type IntentService interface {
	IngestSignal(ctx context.Context, signal models.Signal) (models.Signal, error)
	IngestBatch(ctx context.Context, signals []models.Signal) ([]models.Signal, error)
	ComputeScore(ctx context.Context, entityID string) (*models.UnifiedScore, error)
	AllScores(ctx context.Context) []models.UnifiedScore
	DetectSpikes(ctx context.Context) []models.SpikeRecord
	ScoreHistory(ctx context.Context, entityID string, limit int) ([]models.UnifiedScore, error)
	SpikeHistory(ctx context.Context, limit int) ([]models.SpikeRecord, error)
	EntityCount() int
}

// EnrichmentService tracks provider snapshots and merges them
type EnrichmentService interface {
	StoreSnapshot(ctx context.Context, snapshot models.Snapshot) (*models.Delta, error)
	ProcessBatch(ctx context.Context, snapshots []models.Snapshot) ([]models.Delta, error)
	GetSnapshot(ctx context.Context, entityType models.EntityType, entityID string, source models.Source) (*models.Snapshot, error)
	GetSnapshots(ctx context.Context, entityType models.EntityType, entityID string) ([]models.Snapshot, error)
	Merge(ctx context.Context, entityType models.EntityType, entityID string, priority models.Source) (attr.Map, error)
	DeltaHistory(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]models.Delta, error)
}

// ClassificationService runs the ICP and persona rule profiles
type ClassificationService interface {
	ClassifyCompany(ctx context.Context, subjectID string, attrs attr.Map) scoring.MatchResult
	ClassifyContact(ctx context.Context, subjectID string, attrs attr.Map) scoring.MatchResult
	Profiles() *scoring.ProfileSet
	ReloadProfiles(ctx context.Context, profiles *scoring.ProfileSet) error
}

// Engine owns the in-process state shared by the services
type Engine struct {
	Signals    *intent.Ledger
	Baseline   *intent.Baseline
	Calculator *intent.Calculator
	Snapshots  *enrichment.Ledger

	mu        sync.RWMutex
	profiles  *scoring.ProfileSet
	evaluator *scoring.Evaluator
}

// NewEngine creates empty stores wired to a calculator and evaluator
func NewEngine(cfg intent.Config, profiles *scoring.ProfileSet) *Engine {
	if profiles == nil {
		profiles = scoring.DefaultProfileSet()
	}
	signals := intent.NewLedger()
	baseline := intent.NewBaseline()
	return &Engine{
		Signals:    signals,
		Baseline:   baseline,
		Calculator: intent.NewCalculator(signals, baseline, cfg),
		Snapshots:  enrichment.NewLedger(),
		profiles:   profiles,
		evaluator:  profiles.NewEvaluator(),
	}
}

// Rules returns the active profile set and the evaluator built from it
func (e *Engine) Rules() (*scoring.ProfileSet, *scoring.Evaluator) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profiles, e.evaluator
}

// SetProfiles swaps the active rule profiles. Classifications already in
// flight finish against the previous set.
func (e *Engine) SetProfiles(profiles *scoring.ProfileSet) {
	evaluator := profiles.NewEvaluator()
	e.mu.Lock()
	e.profiles = profiles
	e.evaluator = evaluator
	e.mu.Unlock()
}

// Reset clears signals, baselines and snapshots. Profiles are kept.
func (e *Engine) Reset() {
	e.Calculator.Reset()
	e.Snapshots.Reset()
}

// NewServices creates a new Services instance with all dependencies. A nil
// history repository selects the in-memory sink.
func NewServices(engine *Engine, history repository.HistoryRepository, log logger.Logger) *Services {
	if history == nil {
		history = repository.NewMemoryHistoryRepository(0)
	}
	if log == nil {
		log = logger.NewSimpleLogger()
	}
	monitored := repository.NewMonitoredHistory(history, repository.NewSinkHealth())

	intentService := newIntentService(engine, monitored, log.With("component", "intent"))
	return &Services{
		Intent:         intentService,
		Enrichment:     newEnrichmentService(engine, monitored, log.With("component", "enrichment")),
		Classification: newClassificationService(engine, log.With("component", "classification")),
		Export:         NewExportService(intentService),
		SinkHealth:     monitored.Health(),
		engine:         engine,
	}
}

// Reset clears all engine state. Recorded history is not touched.
func (s *Services) Reset() {
	s.engine.Reset()
}
