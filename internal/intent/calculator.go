package intent

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// Config controls decay, blending and trend/spike classification
type Config struct {
	DecayWindowDays       float64 `json:"decay_window_days"`
	SourceAWeight         float64 `json:"source_a_weight"`
	SourceBWeight         float64 `json:"source_b_weight"`
	SpikeThresholdPercent float64 `json:"spike_threshold_percent"`
	TrendDelta            float64 `json:"trend_delta"`
	MaxTopics             int     `json:"max_topics"`
}

// DefaultConfig returns the standard scoring configuration
func DefaultConfig() Config {
	return Config{
		DecayWindowDays:       30,
		SourceAWeight:         0.5,
		SourceBWeight:         0.5,
		SpikeThresholdPercent: 25,
		TrendDelta:            5,
		MaxTopics:             5,
	}
}

// Weight returns the blend weight configured for src
func (c Config) Weight(src models.Source) float64 {
	if src == models.SourceA {
		return c.SourceAWeight
	}
	return c.SourceBWeight
}

// Calculator turns ledger contents into UnifiedScores and keeps the
// baseline cache current.
type Calculator struct {
	ledger   *Ledger
	baseline *Baseline
	config   Config
	now      func() time.Time
	locks    *entityLocks

	// held for reading by every computation, for writing by Reset
	resetMu sync.RWMutex
}

// NewCalculator creates a calculator over the given stores
func NewCalculator(ledger *Ledger, baseline *Baseline, config Config) *Calculator {
	return &Calculator{
		ledger:   ledger,
		baseline: baseline,
		config:   config,
		now:      time.Now,
		locks:    newEntityLocks(),
	}
}

// WithClock overrides the wall clock used for decay
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// Config returns the active configuration
func (c *Calculator) Config() Config {
	return c.config
}

// Reset clears the ledger, the baseline and the per-entity locks. It waits
// for in-flight computations so none of them can repopulate the baseline
// afterwards.
func (c *Calculator) Reset() {
	c.resetMu.Lock()
	defer c.resetMu.Unlock()

	c.ledger.Reset()
	c.baseline.Reset()
	c.locks.reset()
}

// ComputeScore recomputes the entity's score, replaces its baseline and
// returns the new score. ok is false when the entity has no signals.
func (c *Calculator) ComputeScore(entityID string) (*models.UnifiedScore, bool) {
	score, _, ok := c.compute(entityID)
	return score, ok
}

// AllScores recomputes every entity that has signals and returns the
// scores ordered by overall score, highest first. Ties keep ledger order.
func (c *Calculator) AllScores() []models.UnifiedScore {
	ids := c.ledger.EntityIDs()
	scores := make([]models.UnifiedScore, 0, len(ids))
	for _, id := range ids {
		if score, _, ok := c.compute(id); ok {
			scores = append(scores, *score)
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].OverallScore > scores[j].OverallScore
	})
	return scores
}

// DetectSpikes recomputes every entity and reports those whose new score is
// a spike against the baseline cached before this call.
//
// Detection is edge-triggered: recomputing advances the baseline, so a
// caller polling on an interval sees a given jump exactly once.
func (c *Calculator) DetectSpikes() []models.SpikeRecord {
	var spikes []models.SpikeRecord
	for _, id := range c.ledger.EntityIDs() {
		score, previous, ok := c.compute(id)
		if !ok || !score.IsSpike || previous == nil {
			continue
		}
		spikes = append(spikes, NewSpikeRecord(*previous, *score))
	}
	return spikes
}

// NewSpikeRecord describes the jump from previous to current
func NewSpikeRecord(previous, current models.UnifiedScore) models.SpikeRecord {
	return models.SpikeRecord{
		EntityID:      current.EntityID,
		EntityName:    current.EntityName,
		PreviousScore: previous.OverallScore,
		CurrentScore:  current.OverallScore,
		ChangePercent: roundTo(percentChange(previous.OverallScore, current.OverallScore), 2),
		DetectedAt:    current.ComputedAt,
	}
}

// compute scores one entity under its lock and returns the new score along
// with the baseline it replaced. Unknown entities never get a lock entry.
func (c *Calculator) compute(entityID string) (*models.UnifiedScore, *models.UnifiedScore, bool) {
	c.resetMu.RLock()
	defer c.resetMu.RUnlock()

	if !c.ledger.Has(entityID) {
		return nil, nil, false
	}
	unlock := c.locks.lock(entityID)
	defer unlock()

	signals := c.ledger.Signals(entityID)
	if len(signals) == 0 {
		return nil, nil, false
	}

	now := c.now()
	score := models.UnifiedScore{
		EntityID:    entityID,
		SignalCount: len(signals),
		ComputedAt:  now,
		Trend:       models.TrendStable,
	}

	bySource := make(map[models.Source][]models.Signal, 2)
	for i, s := range signals {
		if i == 0 {
			score.EntityName = s.EntityName
		}
		if score.Domain == "" && s.Domain != "" {
			score.Domain = s.Domain
		}
		bySource[s.Source] = append(bySource[s.Source], s)
	}

	a := SourceScore(bySource[models.SourceA], now, c.config.DecayWindowDays)
	b := SourceScore(bySource[models.SourceB], now, c.config.DecayWindowDays)
	score.SourceAScore = roundTo(a, 2)
	score.SourceBScore = roundTo(b, 2)

	overall := a*c.config.SourceAWeight + b*c.config.SourceBWeight
	score.OverallScore = int(clamp(math.Round(overall), 0, 100))
	score.TopTopics = RankTopics(signals, c.config.MaxTopics)

	var previous *models.UnifiedScore
	if prev, ok := c.baseline.Get(entityID); ok {
		previous = &prev
		score.Trend = classifyTrend(prev.OverallScore, score.OverallScore, c.config.TrendDelta)
		score.IsSpike = isSpike(prev.OverallScore, score.OverallScore, c.config.SpikeThresholdPercent)
	}

	c.baseline.put(score)
	return &score, previous, true
}

// DecayFactor linearly down-weights a signal by age: 1 when age <= 0,
// 0 once age reaches the window.
func DecayFactor(age time.Duration, windowDays float64) float64 {
	ageDays := age.Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	if ageDays >= windowDays {
		return 0
	}
	return clamp(1-ageDays/windowDays, 0, 1)
}

// SourceScore is the decay-weighted mean of strength×decay for one
// provider's signals, capped at 100. Fully decayed signals add nothing to
// either side of the mean.
func SourceScore(signals []models.Signal, now time.Time, windowDays float64) float64 {
	var weighted, total float64
	for _, s := range signals {
		decay := DecayFactor(now.Sub(s.ObservedAt), windowDays)
		weighted += s.Strength * decay * decay
		total += decay
	}
	if total == 0 {
		return 0
	}
	return math.Min(weighted/total, 100)
}

// RankTopics groups signals by topic, scores each by its mean raw strength
// and returns the top entries, highest first. Ties keep encounter order.
func RankTopics(signals []models.Signal, limit int) []models.TopicScore {
	type topicAcc struct {
		sum     float64
		n       int
		sources []models.Source
	}

	var order []string
	acc := make(map[string]*topicAcc)
	for _, s := range signals {
		t, ok := acc[s.Topic]
		if !ok {
			t = &topicAcc{}
			acc[s.Topic] = t
			order = append(order, s.Topic)
		}
		t.sum += s.Strength
		t.n++
		if !containsSource(t.sources, s.Source) {
			t.sources = append(t.sources, s.Source)
		}
	}

	topics := make([]models.TopicScore, 0, len(order))
	for _, name := range order {
		t := acc[name]
		topics = append(topics, models.TopicScore{
			Topic:   name,
			Score:   int(clamp(math.Round(t.sum/float64(t.n)), 0, 100)),
			Sources: t.sources,
		})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Score > topics[j].Score
	})
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

func classifyTrend(previous, current int, delta float64) models.Trend {
	diff := float64(current - previous)
	switch {
	case diff > delta:
		return models.TrendIncreasing
	case diff < -delta:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

func isSpike(previous, current int, thresholdPercent float64) bool {
	if previous <= 0 {
		return false
	}
	return percentChange(previous, current) >= thresholdPercent
}

func percentChange(previous, current int) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

func containsSource(sources []models.Source, src models.Source) bool {
	for _, s := range sources {
		if s == src {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
