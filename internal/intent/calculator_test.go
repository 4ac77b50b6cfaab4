package intent

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestCalculator() (*Calculator, *Ledger, *Baseline) {
	ledger := NewLedger()
	baseline := NewBaseline()
	calc := NewCalculator(ledger, baseline, DefaultConfig()).WithClock(func() time.Time { return fixedNow })
	return calc, ledger, baseline
}

func signal(src models.Source, entityID, topic string, strength float64, age time.Duration) models.Signal {
	return models.Signal{
		Source:     src,
		EntityID:   entityID,
		EntityName: "Acme Corp",
		Topic:      topic,
		Strength:   strength,
		ObservedAt: fixedNow.Add(-age),
	}
}

func TestDecayFactor(t *testing.T) {
	testCases := []struct {
		name     string
		age      time.Duration
		expected float64
	}{
		{"future signal", -time.Hour, 1},
		{"fresh signal", 0, 1},
		{"half window", 15 * 24 * time.Hour, 0.5},
		{"exact window", 30 * 24 * time.Hour, 0},
		{"beyond window", 90 * 24 * time.Hour, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, DecayFactor(tc.age, 30), 1e-9)
		})
	}
}

func TestComputeScore_LoneFreshSignalKeepsStrength(t *testing.T) {
	for _, strength := range []float64{0, 1, 37.5, 80, 100} {
		calc, ledger, _ := newTestCalculator()
		ledger.Append(signal(models.SourceA, "acme", "Cloud", strength, 0))

		score, ok := calc.ComputeScore("acme")
		require.True(t, ok)
		assert.Equal(t, strength, score.SourceAScore)
		assert.Equal(t, 0.0, score.SourceBScore)
	}
}

func TestComputeScore_SingleSourceBlendsWithZero(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 80, 0))

	score, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, 40, score.OverallScore)
}

func TestComputeScore_TwoSourcesTwoTopics(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 80, 0))
	ledger.Append(signal(models.SourceB, "acme", "AI", 60, 0))

	score, ok := calc.ComputeScore("acme")
	require.True(t, ok)

	assert.Equal(t, 70, score.OverallScore)
	assert.Equal(t, 2, score.SignalCount)
	require.Len(t, score.TopTopics, 2)

	assert.Equal(t, "Cloud", score.TopTopics[0].Topic)
	assert.Equal(t, 80, score.TopTopics[0].Score)
	assert.Equal(t, []models.Source{models.SourceA}, score.TopTopics[0].Sources)

	assert.Equal(t, "AI", score.TopTopics[1].Topic)
	assert.Equal(t, []models.Source{models.SourceB}, score.TopTopics[1].Sources)
}

func TestComputeScore_FullyDecayedSignalsIgnored(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 60, 0))
	for i := 0; i < 50; i++ {
		ledger.Append(signal(models.SourceA, "acme", "Legacy", 100, 45*24*time.Hour))
	}

	score, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, 60.0, score.SourceAScore)
	assert.Equal(t, 51, score.SignalCount)
}

func TestComputeScore_OnlyStaleSignalsScoreZero(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceB, "acme", "Cloud", 90, 31*24*time.Hour))

	score, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, 0.0, score.SourceBScore)
	assert.Equal(t, 0, score.OverallScore)
}

func TestComputeScore_PartialDecayWeightsMean(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 100, 0))
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 100, 15*24*time.Hour))

	score, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	// (100*1*1 + 100*0.5*0.5) / (1 + 0.5)
	assert.InDelta(t, 83.33, score.SourceAScore, 0.01)
}

func TestComputeScore_UnknownEntity(t *testing.T) {
	calc, _, baseline := newTestCalculator()

	score, ok := calc.ComputeScore("nobody")
	assert.False(t, ok)
	assert.Nil(t, score)
	assert.Equal(t, 0, baseline.Len())
}

func TestComputeScore_UnknownEntitiesLeaveNoLocks(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 80, 0))

	for i := 0; i < 1000; i++ {
		_, ok := calc.ComputeScore(fmt.Sprintf("missing-%d", i))
		require.False(t, ok)
	}
	_, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, 1, calc.locks.len())

	calc.Reset()
	assert.Equal(t, 0, calc.locks.len())
}

func TestComputeScore_NameAndDomain(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	first := signal(models.SourceA, "acme", "Cloud", 50, 0)
	first.EntityName = "Acme"
	second := signal(models.SourceB, "acme", "Cloud", 50, 0)
	second.EntityName = "Acme Inc"
	second.Domain = "acme.com"
	third := signal(models.SourceB, "acme", "Cloud", 50, 0)
	third.Domain = "acme.io"
	ledger.AppendBatch([]models.Signal{first, second, third})

	score, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, "Acme", score.EntityName)
	assert.Equal(t, "acme.com", score.Domain)
}

func TestComputeScore_RepeatIsStable(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 80, 0))

	first, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, models.TrendStable, first.Trend)
	assert.False(t, first.IsSpike)

	second, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, models.TrendStable, second.Trend)
	assert.False(t, second.IsSpike)
}

func TestComputeScore_TrendAndSpike(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 40, 0))
	ledger.Append(signal(models.SourceB, "acme", "Cloud", 40, 0))

	base, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	require.Equal(t, 40, base.OverallScore)

	ledger.Append(signal(models.SourceA, "acme", "AI", 100, 0))
	ledger.Append(signal(models.SourceB, "acme", "AI", 100, 0))

	jumped, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, 70, jumped.OverallScore)
	assert.Equal(t, models.TrendIncreasing, jumped.Trend)
	assert.True(t, jumped.IsSpike)

	ledger.Append(signal(models.SourceA, "acme", "Churn", 0, 0))
	ledger.Append(signal(models.SourceA, "acme", "Churn", 0, 0))

	dropped, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, models.TrendDecreasing, dropped.Trend)
	assert.False(t, dropped.IsSpike)
}

func TestComputeScore_NoSpikeFromZeroBaseline(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 0, 0))
	_, ok := calc.ComputeScore("acme")
	require.True(t, ok)

	ledger.Append(signal(models.SourceA, "acme", "Cloud", 100, 0))
	score, ok := calc.ComputeScore("acme")
	require.True(t, ok)
	assert.Equal(t, models.TrendIncreasing, score.Trend)
	assert.False(t, score.IsSpike)
}

func TestRankTopics_TopFiveStable(t *testing.T) {
	var signals []models.Signal
	for _, topic := range []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"} {
		signals = append(signals, signal(models.SourceA, "acme", topic, 50, 0))
	}
	signals = append(signals, signal(models.SourceB, "acme", "t7", 90, 0))

	topics := RankTopics(signals, 5)
	require.Len(t, topics, 5)
	assert.Equal(t, "t7", topics[0].Topic)
	assert.Equal(t, 70, topics[0].Score)
	assert.Equal(t, []models.Source{models.SourceA, models.SourceB}, topics[0].Sources)

	names := []string{topics[1].Topic, topics[2].Topic, topics[3].Topic, topics[4].Topic}
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, names)
}

func TestAllScores_SortedDescending(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "low", "Cloud", 20, 0))
	ledger.Append(signal(models.SourceA, "high", "Cloud", 100, 0))
	ledger.Append(signal(models.SourceA, "tie", "Cloud", 20, 0))

	scores := calc.AllScores()
	require.Len(t, scores, 3)
	assert.Equal(t, "high", scores[0].EntityID)
	assert.Equal(t, "low", scores[1].EntityID)
	assert.Equal(t, "tie", scores[2].EntityID)
}

func TestDetectSpikes_EdgeTriggered(t *testing.T) {
	calc, ledger, _ := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 40, 0))
	ledger.Append(signal(models.SourceA, "globex", "Cloud", 40, 0))

	assert.Empty(t, calc.DetectSpikes(), "first detection has no baseline")

	ledger.Append(signal(models.SourceA, "acme", "Cloud", 100, 0))

	spikes := calc.DetectSpikes()
	require.Len(t, spikes, 1)
	assert.Equal(t, "acme", spikes[0].EntityID)
	assert.Equal(t, 20, spikes[0].PreviousScore)
	assert.Equal(t, 35, spikes[0].CurrentScore)
	assert.Equal(t, 75.0, spikes[0].ChangePercent)

	assert.Empty(t, calc.DetectSpikes(), "detection consumes the baseline")
}

func TestCalculator_ConcurrentComputeIsSafe(t *testing.T) {
	calc, ledger, baseline := newTestCalculator()
	ledger.Append(signal(models.SourceA, "acme", "Cloud", 80, 0))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			calc.ComputeScore("acme")
		}()
		go func() {
			defer wg.Done()
			ledger.Append(signal(models.SourceB, "acme", "AI", 60, 0))
		}()
	}
	wg.Wait()

	cached, ok := baseline.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "acme", cached.EntityID)
}

func TestCalculator_ResetWinsOverInflightCompute(t *testing.T) {
	calc, ledger, baseline := newTestCalculator()
	for i := 0; i < 8; i++ {
		ledger.Append(signal(models.SourceA, fmt.Sprintf("e%d", i), "Cloud", 70, 0))
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					calc.AllScores()
				}
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	calc.Reset()
	close(stop)
	wg.Wait()

	assert.Equal(t, 0, baseline.Len())
	assert.Equal(t, 0, ledger.Count())
	assert.Equal(t, 0, calc.locks.len())
}

func TestLedger_AppendNormalizes(t *testing.T) {
	ledger := NewLedger()
	stored := ledger.Append(models.Signal{Source: models.SourceA, EntityID: "acme", Topic: "Cloud", Strength: 250})

	assert.NotEmpty(t, stored.ID.String())
	assert.False(t, stored.ObservedAt.IsZero())
	assert.Equal(t, 100.0, stored.Strength)

	assert.True(t, ledger.Has("acme"))
	assert.False(t, ledger.Has("globex"))

	neg := ledger.Append(models.Signal{Source: models.SourceA, EntityID: "acme", Topic: "Cloud", Strength: -5})
	assert.Equal(t, 0.0, neg.Strength)
	assert.Equal(t, 2, ledger.Count())

	ledger.Reset()
	assert.Equal(t, 0, ledger.Count())
	assert.Empty(t, ledger.EntityIDs())
	assert.Nil(t, ledger.Signals("acme"))
}
