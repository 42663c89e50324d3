package metrics

// Label values shared by the pipeline and its collaborators.
var (
	PipelineOutcomes = []string{
		"transcoded", "already_done", "ignored", "bad_envelope", "bad_event",
		"not_found", "unsupported", "busy", "transcode_failed", "storage_error", "lock_error", "canceled",
	}
	StorageBackends   = []string{"gcs", "s3", "minio"}
	StorageOperations = []string{"stat", "download", "upload", "set_metadata"}
	LockBackends      = []string{"file", "redis", "none"}
	LockResults       = []string{"acquired", "busy", "error"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range PipelineOutcomes {
		PipelineOutcomesTotal.WithLabelValues(outcome)
		PipelineDuration.WithLabelValues(outcome)
	}
	for _, dir := range []string{"download", "upload"} {
		PipelineBytesTotal.WithLabelValues(dir)
	}

	for _, status := range []string{"success", "failure", "timeout"} {
		TranscoderJobsTotal.WithLabelValues(status)
	}

	for _, backend := range StorageBackends {
		for _, op := range StorageOperations {
			StorageOperationsTotal.WithLabelValues(backend, op, "success")
			StorageOperationsTotal.WithLabelValues(backend, op, "error")
			StorageOperationDuration.WithLabelValues(backend, op)
		}
	}

	for _, op := range []string{"create", "cleanup"} {
		ScratchOperationDuration.WithLabelValues(op)
	}

	for _, backend := range LockBackends {
		for _, result := range LockResults {
			LockAcquisitionsTotal.WithLabelValues(backend, result)
		}
	}
}
