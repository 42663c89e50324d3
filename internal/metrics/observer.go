package metrics

import "audio-transcoder/internal/filesystem"

// scratchObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type scratchObserver struct{}

// NewScratchObserver creates an observer that records scratch workspace
// metrics into the collectors declared in metrics.go.
func NewScratchObserver() filesystem.Observer {
	return &scratchObserver{}
}

func (o *scratchObserver) ObserveOperation(operation string, durationSeconds float64, err error) {
	ScratchOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
	if err != nil && operation == filesystem.OpCleanup {
		ScratchCleanupErrors.Inc()
	}
}

func (o *scratchObserver) ObserveActive(delta int) {
	ScratchWorkspacesActive.Add(float64(delta))
}
