// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	EventsProcessed       *prometheus.CounterVec
	EventsStored          *prometheus.CounterVec
	EventProcessingErrors *prometheus.CounterVec

	// Segment metrics
	SegmentsBuilt      prometheus.Counter
	MarketsSegmented   prometheus.Counter
	ValidationFailures *prometheus.CounterVec

	// Scoring metrics
	MarketScoresComputed   *prometheus.CounterVec
	PlatformScoresComputed prometheus.Counter
	QuestionGroupsSkipped  *prometheus.CounterVec

	// Latency metrics
	EventProcessingLatency *prometheus.HistogramVec
	WSMessageLatency       prometheus.Histogram

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ReportsGenerated  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulPipeline  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "forecast_lab"
	}

	return &Metrics{
		// Ingestion metrics
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_processed_total",
			Help:      "Total number of probability events processed by platform",
		}, []string{"platform"}),
		EventsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_stored_total",
			Help:      "Total number of probability events stored to database by platform",
		}, []string{"platform"}),
		EventProcessingErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "event_processing_errors_total",
			Help:      "Total number of event processing errors by platform and type",
		}, []string{"platform", "error_type"}),

		// Segment metrics
		SegmentsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "segments",
			Name:      "built_total",
			Help:      "Total number of probability segments built",
		}),
		MarketsSegmented: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "segments",
			Name:      "markets_total",
			Help:      "Total number of markets with reconstructed timelines",
		}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "segments",
			Name:      "validation_failures_total",
			Help:      "Total number of segment validation failures by kind",
		}, []string{"kind"}),

		// Scoring metrics
		MarketScoresComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "market_scores_total",
			Help:      "Total number of market scores computed by score type",
		}, []string{"score_type"}),
		PlatformScoresComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "platform_scores_total",
			Help:      "Total number of platform aggregates computed",
		}),
		QuestionGroupsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "question_groups_skipped_total",
			Help:      "Total number of question groups skipped by reason",
		}, []string{"reason"}),

		// Latency metrics
		EventProcessingLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "event_processing_latency_seconds",
			Help:      "Event processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by phase and status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion",
		}),
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventProcessed increments the events processed counter.
func RecordEventProcessed(platform string) {
	DefaultMetrics.EventsProcessed.WithLabelValues(platform).Inc()
}

// RecordEventStored increments the events stored counter.
func RecordEventStored(platform string) {
	DefaultMetrics.EventsStored.WithLabelValues(platform).Inc()
}

// RecordEventError records an event processing error.
func RecordEventError(platform, errorType string) {
	DefaultMetrics.EventProcessingErrors.WithLabelValues(platform, errorType).Inc()
}

// RecordSegmentsBuilt records a completed timeline reconstruction.
func RecordSegmentsBuilt(segments int) {
	DefaultMetrics.MarketsSegmented.Inc()
	DefaultMetrics.SegmentsBuilt.Add(float64(segments))
}

// RecordValidationFailure records a segment validation failure by kind.
func RecordValidationFailure(kind string) {
	DefaultMetrics.ValidationFailures.WithLabelValues(kind).Inc()
}

// RecordMarketScore increments the market scores computed counter.
func RecordMarketScore(scoreType string) {
	DefaultMetrics.MarketScoresComputed.WithLabelValues(scoreType).Inc()
}

// RecordGroupSkipped records a skipped question group.
func RecordGroupSkipped(reason string) {
	DefaultMetrics.QuestionGroupsSkipped.WithLabelValues(reason).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run and refreshes the health gauge on
// success.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulPipeline.SetToCurrentTime()
	}
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordFlushLatency records how long one ingestion flush took.
func RecordFlushLatency(platform string, seconds float64) {
	DefaultMetrics.EventProcessingLatency.WithLabelValues(platform).Observe(seconds)
}

// RecordWSMessage records the processing latency of one stream message.
func RecordWSMessage(seconds float64) {
	DefaultMetrics.WSMessageLatency.Observe(seconds)
}

// RecordIngestionHealthy refreshes the ingestion health gauge.
func RecordIngestionHealthy() {
	DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
}
