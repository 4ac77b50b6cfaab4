package models

import (
	"time"

	"github.com/google/uuid"
)

// Signal is a single timestamped interest observation about an entity
type Signal struct {
	ID         uuid.UUID `json:"id"`
	Source     Source    `json:"source"`
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	Topic      string    `json:"topic"`
	Strength   float64   `json:"strength"`
	ObservedAt time.Time `json:"observed_at"`
	Domain     string    `json:"domain,omitempty"`
}

// Trend describes the direction of an entity's score between computations
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// TopicScore ranks one topic across both providers
type TopicScore struct {
	Topic   string   `json:"topic"`
	Score   int      `json:"score"`
	Sources []Source `json:"sources"`
}

// HasSource returns true if the topic was seen from src
func (t TopicScore) HasSource(src Source) bool {
	for _, s := range t.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// UnifiedScore is the decayed, blended intent score for one entity
type UnifiedScore struct {
	EntityID     string       `json:"entity_id"`
	EntityName   string       `json:"entity_name"`
	Domain       string       `json:"domain,omitempty"`
	OverallScore int          `json:"overall_score"`
	SourceAScore float64      `json:"source_a_score"`
	SourceBScore float64      `json:"source_b_score"`
	TopTopics    []TopicScore `json:"top_topics"`
	SignalCount  int          `json:"signal_count"`
	ComputedAt   time.Time    `json:"computed_at"`
	Trend        Trend        `json:"trend"`
	IsSpike      bool         `json:"is_spike"`
}

// SourceScore returns the per-provider score for src
func (u UnifiedScore) SourceScore(src Source) float64 {
	if src == SourceA {
		return u.SourceAScore
	}
	return u.SourceBScore
}

// SpikeRecord reports a score jump between two consecutive computations
type SpikeRecord struct {
	EntityID      string    `json:"entity_id"`
	EntityName    string    `json:"entity_name"`
	PreviousScore int       `json:"previous_score"`
	CurrentScore  int       `json:"current_score"`
	ChangePercent float64   `json:"change_percent"`
	DetectedAt    time.Time `json:"detected_at"`
}
