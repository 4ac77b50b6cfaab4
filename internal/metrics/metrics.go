package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intent_hub"

var (
	// signalsIngested counts appended intent signals.
	// Labels: source (A, B)
	signalsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intent",
		Name:      "signals_ingested_total",
		Help:      "Total intent signals appended to the ledger",
	}, []string{"source"})

	// scoresComputed counts unified score computations.
	// Labels: trend (increasing, stable, decreasing)
	scoresComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intent",
		Name:      "scores_computed_total",
		Help:      "Total unified score computations by trend",
	}, []string{"trend"})

	// overallScore tracks the distribution of computed overall scores
	overallScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "intent",
		Name:      "overall_score",
		Help:      "Distribution of computed overall intent scores",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	// spikesDetected counts entities flagged as spiking
	spikesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intent",
		Name:      "spikes_detected_total",
		Help:      "Total intent spikes detected",
	})

	// snapshotsStored counts stored enrichment snapshots.
	// Labels: entity_type, source
	snapshotsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrichment",
		Name:      "snapshots_stored_total",
		Help:      "Total enrichment snapshots stored",
	}, []string{"entity_type", "source"})

	// deltasProduced counts snapshot deltas with at least one change.
	// Labels: entity_type, source
	deltasProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrichment",
		Name:      "deltas_total",
		Help:      "Total enrichment deltas produced",
	}, []string{"entity_type", "source"})

	// classifications counts rule evaluations.
	// Labels: kind (company, contact), classification (tier or persona)
	classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scoring",
		Name:      "classifications_total",
		Help:      "Total ICP and persona classifications",
	}, []string{"kind", "classification"})

	// sinkErrors counts history sink write failures.
	// Labels: record (score, spike, delta)
	sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "sink_errors_total",
		Help:      "Total history sink write failures",
	}, []string{"record"})

	// requestDuration measures HTTP request latency.
	// Labels: method, route, status
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// RecordSignal records one appended signal
func RecordSignal(source string) {
	signalsIngested.WithLabelValues(source).Inc()
}

// RecordScore records one computed unified score
func RecordScore(trend string, score int) {
	scoresComputed.WithLabelValues(trend).Inc()
	overallScore.Observe(float64(score))
}

// RecordSpikes records n detected spikes
func RecordSpikes(n int) {
	if n > 0 {
		spikesDetected.Add(float64(n))
	}
}

// RecordSnapshot records a stored snapshot and whether it produced a delta
func RecordSnapshot(entityType, source string, delta bool) {
	snapshotsStored.WithLabelValues(entityType, source).Inc()
	if delta {
		deltasProduced.WithLabelValues(entityType, source).Inc()
	}
}

// RecordClassification records one ICP or persona classification
func RecordClassification(kind, classification string) {
	if classification == "" {
		classification = "none"
	}
	classifications.WithLabelValues(kind, classification).Inc()
}

// RecordSinkError records a failed history write
func RecordSinkError(record string) {
	sinkErrors.WithLabelValues(record).Inc()
}

// RecordRequest records the latency of one HTTP request
func RecordRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
