// Package metrics provides Prometheus metrics for report generation and export.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "briefly"

// PrometheusExporter exports report metrics in Prometheus format.
// It implements report.Recorder.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Generation metrics
	generationLatency  *prometheus.HistogramVec
	generations        *prometheus.CounterVec
	tasksExtracted     prometheus.Counter
	taskExtractionFail *prometheus.CounterVec

	// LLM token metrics
	llmTokensUsed *prometheus.CounterVec

	// Report lifecycle metrics
	finalized     prometheus.Counter
	exports       *prometheus.CounterVec
	transcription *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.generationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generation_latency_seconds",
			Help:      "Report generation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"role"},
	)

	e.generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generations_total",
			Help:      "Total number of report generations",
		},
		[]string{"role", "status"},
	)

	e.tasksExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "tasks_extracted_total",
			Help:      "Total number of tasks extracted from updates",
		},
	)

	e.taskExtractionFail = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "task_extraction_failures_total",
			Help:      "Task extractions that degraded to an empty list, by cause",
		},
		[]string{"cause"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"call", "token_type"},
	)

	e.finalized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "finalized_total",
			Help:      "Total number of finalized reports",
		},
	)

	e.exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "exports_total",
			Help:      "Total number of exports by format",
		},
		[]string{"format"},
	)

	e.transcription = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audio",
			Name:      "transcriptions_total",
			Help:      "Total number of audio transcriptions",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		e.generationLatency,
		e.generations,
		e.tasksExtracted,
		e.taskExtractionFail,
		e.llmTokensUsed,
		e.finalized,
		e.exports,
		e.transcription,
	)

	return e
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordGeneration records one report generation.
func (e *PrometheusExporter) RecordGeneration(role string, latency time.Duration, success bool) {
	e.generations.WithLabelValues(role, statusLabel(success)).Inc()
	e.generationLatency.WithLabelValues(role).Observe(latency.Seconds())
}

// RecordTasksExtracted adds to the extracted task count.
func (e *PrometheusExporter) RecordTasksExtracted(count int) {
	e.tasksExtracted.Add(float64(count))
}

// RecordTaskExtractionFailure records a degraded task extraction.
func (e *PrometheusExporter) RecordTaskExtractionFailure(cause string) {
	e.taskExtractionFail.WithLabelValues(cause).Inc()
}

// RecordLLMTokens records LLM token usage for one call kind.
func (e *PrometheusExporter) RecordLLMTokens(call string, promptTokens, completionTokens int) {
	e.llmTokensUsed.WithLabelValues(call, "prompt").Add(float64(promptTokens))
	e.llmTokensUsed.WithLabelValues(call, "completion").Add(float64(completionTokens))
}

// RecordFinalized records a finalized report.
func (e *PrometheusExporter) RecordFinalized() {
	e.finalized.Inc()
}

// RecordExport records an export in the given format.
func (e *PrometheusExporter) RecordExport(format string) {
	e.exports.WithLabelValues(format).Inc()
}

// RecordTranscription records an audio transcription attempt.
func (e *PrometheusExporter) RecordTranscription(success bool) {
	e.transcription.WithLabelValues(statusLabel(success)).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}

// Stats is an aggregate view of the counters, used by the admin dashboard.
type Stats struct {
	ReportsGenerated        int64            `json:"reportsGenerated"`
	ReportsFailed           int64            `json:"reportsFailed"`
	TasksExtracted          int64            `json:"tasksExtracted"`
	TaskExtractionFailures  int64            `json:"taskExtractionFailures"`
	ReportsFinalized        int64            `json:"reportsFinalized"`
	Transcriptions          int64            `json:"transcriptions"`
	ExportsByFormat         map[string]int64 `json:"exportsByFormat"`
	GenerationsByRole       map[string]int64 `json:"generationsByRole"`
	AverageGenerationMillis float64          `json:"averageGenerationMillis"`
}

// Stats gathers the registry and sums the counters into a Stats value.
func (e *PrometheusExporter) Stats() *Stats {
	stats := &Stats{
		ExportsByFormat:   map[string]int64{},
		GenerationsByRole: map[string]int64{},
	}

	families, err := e.registry.Gather()
	if err != nil {
		slog.Error("failed to gather metrics", "error", err)
		return stats
	}

	var latencySum float64
	var latencyCount uint64
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			value := int64(m.GetCounter().GetValue())

			switch mf.GetName() {
			case "briefly_report_generations_total":
				if labels["status"] == "success" {
					stats.ReportsGenerated += value
					stats.GenerationsByRole[labels["role"]] += value
				} else {
					stats.ReportsFailed += value
				}
			case "briefly_report_generation_latency_seconds":
				latencySum += m.GetHistogram().GetSampleSum()
				latencyCount += m.GetHistogram().GetSampleCount()
			case "briefly_report_tasks_extracted_total":
				stats.TasksExtracted += value
			case "briefly_report_task_extraction_failures_total":
				stats.TaskExtractionFailures += value
			case "briefly_report_finalized_total":
				stats.ReportsFinalized += value
			case "briefly_report_exports_total":
				stats.ExportsByFormat[labels["format"]] += value
			case "briefly_audio_transcriptions_total":
				if labels["status"] == "success" {
					stats.Transcriptions += value
				}
			}
		}
	}

	if latencyCount > 0 {
		stats.AverageGenerationMillis = latencySum / float64(latencyCount) * 1000
	}
	return stats
}
