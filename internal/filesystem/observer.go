package filesystem

// Scratch operation labels reported to the Observer.
const (
	OpCreate  = "create"
	OpCleanup = "cleanup"
)

// Observer records scratch workspace metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for a workspace
	// operation (OpCreate or OpCleanup).
	ObserveOperation(operation string, durationSeconds float64, err error)

	// ObserveActive adjusts the number of workspaces currently on disk.
	ObserveActive(delta int)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

// observe is a nil-safe helper for the package-level observer.
func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, float64, error) {}
func (nopObserver) ObserveActive(int)                       {}
