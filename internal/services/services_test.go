package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/intent-signal-hub/internal/attr"
	"github.com/ajharbinger/intent-signal-hub/internal/errors"
	"github.com/ajharbinger/intent-signal-hub/internal/intent"
	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
	"github.com/ajharbinger/intent-signal-hub/internal/repository"
)

// failingHistory implements repository.HistoryRepository and rejects every call
type failingHistory struct{}

var errSinkDown = stderrors.New("sink down")

func (failingHistory) RecordScore(context.Context, models.UnifiedScore) error   { return errSinkDown }
func (failingHistory) RecordSpikes(context.Context, []models.SpikeRecord) error { return errSinkDown }
func (failingHistory) RecordDeltas(context.Context, []models.Delta) error       { return errSinkDown }
func (failingHistory) GetScoreHistory(context.Context, string, int) ([]models.UnifiedScore, error) {
	return nil, errSinkDown
}
func (failingHistory) GetSpikes(context.Context, int) ([]models.SpikeRecord, error) {
	return nil, errSinkDown
}
func (failingHistory) GetDeltas(context.Context, models.EntityType, string, int) ([]models.Delta, error) {
	return nil, errSinkDown
}

func newTestServices(history repository.HistoryRepository) *Services {
	engine := NewEngine(intent.DefaultConfig(), nil)
	return NewServices(engine, history, logger.NewNopLogger())
}

func freshSignal(src models.Source, entityID, topic string, strength float64) models.Signal {
	return models.Signal{
		Source:     src,
		EntityID:   entityID,
		EntityName: "Acme Corp",
		Topic:      topic,
		Strength:   strength,
		ObservedAt: time.Now(),
	}
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr), "expected AppError, got %T", err)
	return appErr.Code
}

func TestIntentService_IngestValidation(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	_, err := svc.Intent.IngestSignal(ctx, freshSignal("C", "acme", "crm", 50))
	assert.Equal(t, errors.ErrCodeInvalidInput, appCode(t, err))

	_, err = svc.Intent.IngestSignal(ctx, freshSignal(models.SourceA, " ", "crm", 50))
	assert.Equal(t, errors.ErrCodeInvalidInput, appCode(t, err))

	_, err = svc.Intent.IngestBatch(ctx, []models.Signal{
		freshSignal(models.SourceA, "acme", "crm", 50),
		freshSignal(models.SourceB, "acme", "", 50),
	})
	assert.Equal(t, errors.ErrCodeInvalidInput, appCode(t, err))
	assert.Equal(t, 0, svc.Intent.EntityCount(), "a rejected batch appends nothing")
}

func TestIntentService_ComputeScoreRecordsHistory(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	stored, err := svc.Intent.IngestSignal(ctx, freshSignal(models.SourceA, "acme", "crm", 80))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, stored.ID)

	score, err := svc.Intent.ComputeScore(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 40, score.OverallScore)
	assert.Equal(t, "Acme Corp", score.EntityName)

	history, err := svc.Intent.ScoreHistory(ctx, "acme", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 40, history[0].OverallScore)

	_, err = svc.Intent.ComputeScore(ctx, "ghost")
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))
}

func TestIntentService_SinkFailureDoesNotSurface(t *testing.T) {
	svc := newTestServices(failingHistory{})
	ctx := context.Background()

	_, err := svc.Intent.IngestSignal(ctx, freshSignal(models.SourceB, "acme", "crm", 60))
	require.NoError(t, err)

	score, err := svc.Intent.ComputeScore(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 30, score.OverallScore)

	_, err = svc.Intent.ScoreHistory(ctx, "acme", 10)
	assert.Equal(t, errors.ErrCodeDatabaseError, appCode(t, err))
}

func TestIntentService_DetectSpikes(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	_, err := svc.Intent.IngestSignal(ctx, freshSignal(models.SourceA, "acme", "crm", 20))
	require.NoError(t, err)
	scores := svc.Intent.AllScores(ctx)
	require.Len(t, scores, 1)
	assert.Equal(t, 10, scores[0].OverallScore)

	_, err = svc.Intent.IngestSignal(ctx, freshSignal(models.SourceB, "acme", "crm", 80))
	require.NoError(t, err)

	spikes := svc.Intent.DetectSpikes(ctx)
	require.Len(t, spikes, 1)
	assert.Equal(t, 10, spikes[0].PreviousScore)
	assert.Equal(t, 50, spikes[0].CurrentScore)
	assert.Equal(t, 400.0, spikes[0].ChangePercent)

	recorded, err := svc.Intent.SpikeHistory(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recorded, 1)

	assert.Empty(t, svc.Intent.DetectSpikes(ctx), "a steady score is not reported again")
}

func companySnapshot(src models.Source, attrs attr.Map) models.Snapshot {
	return models.Snapshot{
		EntityType: models.EntityCompany,
		EntityID:   "acme",
		Source:     src,
		Attributes: attrs,
	}
}

func TestEnrichmentService_StoreAndHistory(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	delta, err := svc.Enrichment.StoreSnapshot(ctx, companySnapshot(models.SourceA, attr.Map{"employeeCount": attr.Number(500)}))
	require.NoError(t, err)
	assert.Nil(t, delta)

	delta, err = svc.Enrichment.StoreSnapshot(ctx, companySnapshot(models.SourceA, attr.Map{"employeeCount": attr.Number(650)}))
	require.NoError(t, err)
	require.NotNil(t, delta)
	assert.Equal(t, []string{"employeeCount"}, delta.ChangedFields())

	history, err := svc.Enrichment.DeltaHistory(ctx, models.EntityCompany, "acme", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, delta.ID, history[0].ID)
}

func TestEnrichmentService_Validation(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	bad := companySnapshot(models.SourceA, attr.Map{})
	bad.EntityType = "account"
	_, err := svc.Enrichment.StoreSnapshot(ctx, bad)
	assert.Equal(t, errors.ErrCodeInvalidInput, appCode(t, err))

	_, err = svc.Enrichment.GetSnapshot(ctx, models.EntityCompany, "acme", models.SourceB)
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))

	_, err = svc.Enrichment.Merge(ctx, models.EntityCompany, "acme", "Z")
	assert.Equal(t, errors.ErrCodeInvalidInput, appCode(t, err))
}

func TestEnrichmentService_RejectedBatchStoresNothing(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	bad := companySnapshot(models.SourceB, attr.Map{})
	bad.Source = "C"
	_, err := svc.Enrichment.ProcessBatch(ctx, []models.Snapshot{
		companySnapshot(models.SourceA, attr.Map{"industry": attr.String("Tech")}),
		bad,
	})
	assert.Equal(t, errors.ErrCodeInvalidInput, appCode(t, err))

	snaps, err := svc.Enrichment.GetSnapshots(ctx, models.EntityCompany, "acme")
	require.NoError(t, err)
	assert.Empty(t, snaps, "the valid element is not applied either")
}

func TestEnrichmentService_MergeDefaultPriority(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	deltas, err := svc.Enrichment.ProcessBatch(ctx, []models.Snapshot{
		companySnapshot(models.SourceA, attr.Map{"employeeCount": attr.Number(500), "industry": attr.String("Tech")}),
		companySnapshot(models.SourceB, attr.Map{"employeeCount": attr.Number(600)}),
	})
	require.NoError(t, err)
	assert.Empty(t, deltas)

	merged, err := svc.Enrichment.Merge(ctx, models.EntityCompany, "acme", "")
	require.NoError(t, err)
	assert.True(t, merged.Get("employeeCount").Equal(attr.Number(600)))
	assert.True(t, merged.Get("industry").Equal(attr.String("Tech")))
}

func TestClassificationService(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	result := svc.Classification.ClassifyCompany(ctx, "acme", attr.Map{
		"employeeCount": attr.Number(500),
		"industry":      attr.String("Technology"),
		"annualRevenue": attr.Number(5e7),
		"domain":        attr.String("example.com"),
		"country":       attr.String("United States"),
	})
	assert.Equal(t, "A", result.Classification)

	contact := svc.Classification.ClassifyContact(ctx, "jane", attr.Map{"department": attr.String("Sales"), "jobTitle": attr.String("VP Sales")})
	assert.Equal(t, "Sales Leader", contact.Classification)

	assert.Len(t, svc.Classification.Profiles().Personas, 5)
}

func TestServices_Reset(t *testing.T) {
	svc := newTestServices(nil)
	ctx := context.Background()

	_, err := svc.Intent.IngestSignal(ctx, freshSignal(models.SourceA, "acme", "crm", 80))
	require.NoError(t, err)
	_, err = svc.Enrichment.StoreSnapshot(ctx, companySnapshot(models.SourceA, attr.Map{}))
	require.NoError(t, err)
	_, err = svc.Intent.ComputeScore(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, 1, svc.engine.Baseline.Len())

	svc.Reset()

	assert.Equal(t, 0, svc.Intent.EntityCount())
	assert.Equal(t, 0, svc.engine.Baseline.Len())
	_, err = svc.Intent.ComputeScore(ctx, "acme")
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))
	snaps, err := svc.Enrichment.GetSnapshots(ctx, models.EntityCompany, "acme")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
