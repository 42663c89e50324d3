package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_transcoder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_transcoder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_transcoder_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	PipelineOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_transcoder_pipeline_outcomes_total",
			Help: "Total number of processed notifications by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_transcoder_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration in seconds by outcome",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	PipelineBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_transcoder_pipeline_bytes_total",
			Help: "Total bytes moved through the pipeline by direction",
		},
		[]string{"direction"},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_transcoder_transcoder_jobs_total",
			Help: "Total number of encoder invocations",
		},
		[]string{"status"},
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audio_transcoder_transcoder_job_duration_seconds",
			Help:    "Encoder run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_transcoder_transcoder_jobs_in_progress",
			Help: "Number of encoder processes currently running",
		},
	)
)

// Storage metrics
var (
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_transcoder_storage_operations_total",
			Help: "Total number of object storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_transcoder_storage_operation_duration_seconds",
			Help:    "Object storage operation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"backend", "operation"},
	)
)

// Scratch workspace metrics
var (
	ScratchOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_transcoder_scratch_operation_duration_seconds",
			Help:    "Scratch workspace operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	ScratchCleanupErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_transcoder_scratch_cleanup_errors_total",
			Help: "Total number of scratch workspaces that could not be removed",
		},
	)

	ScratchWorkspacesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_transcoder_scratch_workspaces_active",
			Help: "Number of scratch workspaces currently on disk",
		},
	)

	ScratchBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_transcoder_scratch_bytes",
			Help: "Total size of the scratch directory in bytes",
		},
	)
)

// Lock metrics
var (
	LockAcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_transcoder_lock_acquisitions_total",
			Help: "Total number of object lock attempts by result",
		},
		[]string{"backend", "result"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audio_transcoder_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
