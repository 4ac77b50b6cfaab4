package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// FailureRecord is one failed sink write
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Error     string    `json:"error"`
}

// SinkHealthStatus is the externally visible history sink state
type SinkHealthStatus struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalWrites         int64           `json:"total_writes"`
	SuccessfulWrites    int64           `json:"successful_writes"`
	FailedWrites        int64           `json:"failed_writes"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
}

// SinkHealth tracks write outcomes of the history sink
type SinkHealth struct {
	mu                   sync.RWMutex
	totalWrites          int64
	successfulWrites     int64
	failedWrites         int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64
	consecutiveThreshold int64
	now                  func() time.Time
}

// NewSinkHealth creates a tracker that reports unhealthy above a 20% failure
// rate (after 10 writes) or after 5 consecutive failures
func NewSinkHealth() *SinkHealth {
	return &SinkHealth{
		maxRecentFailures:    20,
		failureThreshold:     0.2,
		consecutiveThreshold: 5,
		recentFailures:       make([]FailureRecord, 0, 20),
		now:                  time.Now,
	}
}

// RecordSuccess records a successful write
func (h *SinkHealth) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalWrites++
	h.successfulWrites++
	h.consecutiveFailures = 0
	h.lastSuccessTime = h.now()
}

// RecordFailure records a failed write
func (h *SinkHealth) RecordFailure(operation string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalWrites++
	h.failedWrites++
	h.consecutiveFailures++
	h.lastFailureTime = h.now()

	h.recentFailures = append(h.recentFailures, FailureRecord{
		Timestamp: h.lastFailureTime,
		Operation: operation,
		Error:     err.Error(),
	})
	if len(h.recentFailures) > h.maxRecentFailures {
		h.recentFailures = h.recentFailures[1:]
	}
}

// Status returns the current sink health
func (h *SinkHealth) Status() SinkHealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := SinkHealthStatus{
		IsHealthy:           true,
		TotalWrites:         h.totalWrites,
		SuccessfulWrites:    h.successfulWrites,
		FailedWrites:        h.failedWrites,
		ConsecutiveFailures: h.consecutiveFailures,
		RecentFailures:      make([]FailureRecord, len(h.recentFailures)),
		HealthIssues:        []string{},
		SuccessRate:         1.0,
	}
	copy(status.RecentFailures, h.recentFailures)

	if h.totalWrites > 0 {
		status.SuccessRate = float64(h.successfulWrites) / float64(h.totalWrites)
	}
	if !h.lastFailureTime.IsZero() {
		t := h.lastFailureTime
		status.LastFailureTime = &t
	}
	if !h.lastSuccessTime.IsZero() {
		t := h.lastSuccessTime
		status.LastSuccessTime = &t
	}

	if h.totalWrites >= 10 && status.SuccessRate < 1.0-h.failureThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "high write failure rate")
	}
	if h.consecutiveFailures >= h.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "consecutive write failures")
	}
	if kind := dominantFailure(h.recentFailures); kind != "" {
		status.HealthIssues = append(status.HealthIssues, "mostly "+kind+" errors")
	}
	return status
}

// Reset clears all counters
func (h *SinkHealth) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalWrites = 0
	h.successfulWrites = 0
	h.failedWrites = 0
	h.consecutiveFailures = 0
	h.lastFailureTime = time.Time{}
	h.lastSuccessTime = time.Time{}
	h.recentFailures = h.recentFailures[:0]
}

// dominantFailure returns the error category behind more than half of the
// recent failures, ignoring uncategorised ones
func dominantFailure(failures []FailureRecord) string {
	if len(failures) < 3 {
		return ""
	}
	counts := make(map[string]int)
	for _, f := range failures {
		counts[categorizeError(f.Error)]++
	}
	for kind, n := range counts {
		if kind != "other" && float64(n)/float64(len(failures)) > 0.5 {
			return kind
		}
	}
	return ""
}

func categorizeError(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "dial") || strings.Contains(msg, "no such host"):
		return "connection"
	case strings.Contains(msg, "violates") || strings.Contains(msg, "constraint"):
		return "constraint"
	case strings.Contains(msg, "context canceled"):
		return "cancelled"
	default:
		return "other"
	}
}

// MonitoredHistory reports every write of the wrapped repository to a
// SinkHealth. Reads pass through untracked.
type MonitoredHistory struct {
	HistoryRepository
	health *SinkHealth
}

// NewMonitoredHistory wraps inner
func NewMonitoredHistory(inner HistoryRepository, health *SinkHealth) *MonitoredHistory {
	return &MonitoredHistory{HistoryRepository: inner, health: health}
}

// Health returns the tracker fed by this repository
func (m *MonitoredHistory) Health() *SinkHealth {
	return m.health
}

// RecordScore records a score
func (m *MonitoredHistory) RecordScore(ctx context.Context, score models.UnifiedScore) error {
	return m.observe("score", m.HistoryRepository.RecordScore(ctx, score))
}

// RecordSpikes records spikes
func (m *MonitoredHistory) RecordSpikes(ctx context.Context, spikes []models.SpikeRecord) error {
	return m.observe("spikes", m.HistoryRepository.RecordSpikes(ctx, spikes))
}

// RecordDeltas records deltas
func (m *MonitoredHistory) RecordDeltas(ctx context.Context, deltas []models.Delta) error {
	return m.observe("deltas", m.HistoryRepository.RecordDeltas(ctx, deltas))
}

func (m *MonitoredHistory) observe(operation string, err error) error {
	if err != nil {
		m.health.RecordFailure(operation, err)
		return err
	}
	m.health.RecordSuccess()
	return nil
}
