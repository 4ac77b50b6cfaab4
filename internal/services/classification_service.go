package services

import (
	"context"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/metrics"
	"github.com/ajharbinger/intent-signal-hub/internal/scoring"
)

// classificationServiceImpl implements ClassificationService
type classificationServiceImpl struct {
	engine *Engine
	logger logger.Logger
}

func newClassificationService(engine *Engine, log logger.Logger) ClassificationService {
	return &classificationServiceImpl{
		engine: engine,
		logger: log,
	}
}

// ClassifyCompany assigns an ICP tier
func (s *classificationServiceImpl) ClassifyCompany(ctx context.Context, subjectID string, attrs attr.Map) scoring.MatchResult {
	_, evaluator := s.engine.Rules()
	result := evaluator.ClassifyCompany(subjectID, attrs)
	metrics.RecordClassification("company", result.Classification)
	s.logger.Debug("Company classified", "subject_id", subjectID, "score", result.Score, "tier", result.Classification)
	return result
}

// ClassifyContact assigns the best matching persona
func (s *classificationServiceImpl) ClassifyContact(ctx context.Context, subjectID string, attrs attr.Map) scoring.MatchResult {
	_, evaluator := s.engine.Rules()
	result := evaluator.ClassifyContact(subjectID, attrs)
	metrics.RecordClassification("contact", result.Classification)
	s.logger.Debug("Contact classified", "subject_id", subjectID, "score", result.Score, "persona", result.Classification)
	return result
}

// Profiles returns the active rule profiles
func (s *classificationServiceImpl) Profiles() *scoring.ProfileSet {
	profiles, _ := s.engine.Rules()
	return profiles
}

// ReloadProfiles validates and activates a new profile set
func (s *classificationServiceImpl) ReloadProfiles(ctx context.Context, profiles *scoring.ProfileSet) error {
	if profiles == nil {
		return errors.InvalidInput("profile set is required", nil).WithOperation("ReloadProfiles")
	}
	if err := profiles.Validate(); err != nil {
		return errors.ValidationError("invalid rule profiles", err).WithOperation("ReloadProfiles")
	}

	s.engine.SetProfiles(profiles)
	s.logger.Info("Rule profiles reloaded", "icp", profiles.ICP.Name, "personas", len(profiles.Personas))
	return nil
}
