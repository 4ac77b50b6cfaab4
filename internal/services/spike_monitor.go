package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ajharbinger/intent-signal-hub/internal/logger"
	"github.com/ajharbinger/intent-signal-hub/internal/models"
)

// SpikeMonitor periodically recomputes every entity's score and reports
// spikes. Detection is edge-triggered: each cycle replaces the baselines,
// so a spike is reported by the cycle (or API call) that first observes it
// and an entity holding steady at a high score is not reported again.
type SpikeMonitor struct {
	intent    IntentService
	logger    logger.Logger
	isRunning bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	lastStats *MonitorStats
	onSpikes  func([]models.SpikeRecord)
}

// MonitorConfig contains configuration for the spike monitor
type MonitorConfig struct {
	Interval   time.Duration `json:"interval"`
	RunOnStart bool          `json:"run_on_start"`
}

// DefaultMonitorConfig returns sensible defaults
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   5 * time.Minute,
		RunOnStart: true,
	}
}

// NewSpikeMonitor creates a monitor over the intent service
func NewSpikeMonitor(intent IntentService, log logger.Logger) *SpikeMonitor {
	if log == nil {
		log = logger.NewSimpleLogger()
	}
	return &SpikeMonitor{
		intent: intent,
		logger: log,
	}
}

// OnSpikes registers a callback invoked after every cycle that found spikes
func (m *SpikeMonitor) OnSpikes(fn func([]models.SpikeRecord)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSpikes = fn
}

// Start begins the monitoring loop
func (m *SpikeMonitor) Start(config MonitorConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("spike monitor is already running")
	}
	if config.Interval <= 0 {
		return fmt.Errorf("spike monitor interval must be positive, got %v", config.Interval)
	}

	m.isRunning = true
	m.stopChan = make(chan struct{})

	m.wg.Add(1)
	go m.run(config, m.stopChan)

	m.logger.Info("Spike monitor started", "interval", config.Interval.String())
	return nil
}

// Stop gracefully stops the monitoring loop
func (m *SpikeMonitor) Stop() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return fmt.Errorf("spike monitor is not running")
	}
	close(m.stopChan)
	m.isRunning = false
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("Spike monitor stopped")
	return nil
}

// IsRunning returns whether the monitor loop is active
func (m *SpikeMonitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

// RunOnce executes a single detection cycle
func (m *SpikeMonitor) RunOnce(ctx context.Context) *MonitorStats {
	stats := &MonitorStats{StartTime: time.Now()}
	stats.EntitiesScored = m.intent.EntityCount()
	stats.Spikes = m.intent.DetectSpikes(ctx)
	stats.SpikesDetected = len(stats.Spikes)
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	m.mu.Lock()
	m.lastStats = stats
	callback := m.onSpikes
	m.mu.Unlock()

	if callback != nil && stats.SpikesDetected > 0 {
		callback(stats.Spikes)
	}
	return stats
}

// Status returns the monitor state and the last cycle's stats
func (m *SpikeMonitor) Status() MonitorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MonitorStatus{
		IsRunning: m.isRunning,
		LastCycle: m.lastStats,
		Timestamp: time.Now(),
	}
}

func (m *SpikeMonitor) run(config MonitorConfig, stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	if config.RunOnStart {
		m.logger.Info("Initial spike cycle completed", "summary", m.RunOnce(ctx).Summary())
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := m.RunOnce(ctx)
			m.logger.Debug("Spike cycle completed", "summary", stats.Summary())
		}
	}
}

// MonitorStats describes one detection cycle
type MonitorStats struct {
	StartTime      time.Time            `json:"start_time"`
	EndTime        time.Time            `json:"end_time"`
	Duration       time.Duration        `json:"duration"`
	EntitiesScored int                  `json:"entities_scored"`
	SpikesDetected int                  `json:"spikes_detected"`
	Spikes         []models.SpikeRecord `json:"spikes"`
}

// Summary renders the cycle for logging
func (s *MonitorStats) Summary() string {
	return fmt.Sprintf("entities=%d, spikes=%d, duration=%v",
		s.EntitiesScored, s.SpikesDetected, s.Duration.Round(time.Millisecond))
}

// MonitorStatus is the externally visible monitor state
type MonitorStatus struct {
	IsRunning bool          `json:"is_running"`
	LastCycle *MonitorStats `json:"last_cycle,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
