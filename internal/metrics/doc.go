// Package metrics provides Prometheus instrumentation for the audio transcoder.
//
// All metrics are prefixed with "audio_transcoder_" and registered with the
// default registry through promauto. They are served by the separate metrics
// listener (METRICS_PORT) via promhttp.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Pipeline Metrics
//
//   - PipelineOutcomesTotal: Counter of notifications by outcome
//     (transcoded, already_done, ignored, not_found, busy, ...)
//   - PipelineDuration: Histogram of end-to-end duration by outcome
//   - PipelineBytesTotal: Counter of bytes downloaded and uploaded
//
// ## Transcoder Metrics
//
//   - TranscoderJobsTotal: Counter of encoder runs by status (success/failure/timeout)
//   - TranscoderJobDuration: Histogram of encoder run time
//   - TranscoderJobsInProgress: Gauge of running encoder processes
//
// ## Storage Metrics
//
//   - StorageOperationsTotal: Counter by backend, operation, and status
//   - StorageOperationDuration: Histogram by backend and operation
//
// ## Scratch and Lock Metrics
//
//   - ScratchOperationDuration, ScratchCleanupErrors, ScratchWorkspacesActive
//   - ScratchBytes: Gauge refreshed by the [Collector]
//   - LockAcquisitionsTotal: Counter by lock backend and result (acquired/busy/error)
//
// ## Application Info
//
//   - AppInfo: version, commit and Go version labels, set by [SetAppInfo]
//
// [InitializeMetrics] pre-populates label combinations so dashboards see
// zero-valued series from the first scrape.
package metrics
