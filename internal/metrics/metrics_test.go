package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"audio-transcoder/internal/filesystem"
)

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(PipelineOutcomesTotal); got != len(PipelineOutcomes) {
		t.Errorf("PipelineOutcomesTotal series = %d, want %d", got, len(PipelineOutcomes))
	}

	wantStorage := len(StorageBackends) * len(StorageOperations) * 2
	if got := testutil.CollectAndCount(StorageOperationsTotal); got != wantStorage {
		t.Errorf("StorageOperationsTotal series = %d, want %d", got, wantStorage)
	}

	wantLock := len(LockBackends) * len(LockResults)
	if got := testutil.CollectAndCount(LockAcquisitionsTotal); got != wantLock {
		t.Errorf("LockAcquisitionsTotal series = %d, want %d", got, wantLock)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestScratchObserver(t *testing.T) {
	obs := NewScratchObserver()

	before := testutil.ToFloat64(ScratchCleanupErrors)
	obs.ObserveOperation(filesystem.OpCleanup, 0.01, errors.New("busy"))
	obs.ObserveOperation(filesystem.OpCleanup, 0.01, nil)
	obs.ObserveOperation(filesystem.OpCreate, 0.01, errors.New("create failed"))

	if got := testutil.ToFloat64(ScratchCleanupErrors) - before; got != 1 {
		t.Errorf("ScratchCleanupErrors increased by %v, want 1", got)
	}

	activeBefore := testutil.ToFloat64(ScratchWorkspacesActive)
	obs.ObserveActive(1)
	obs.ObserveActive(1)
	obs.ObserveActive(-1)
	if got := testutil.ToFloat64(ScratchWorkspacesActive) - activeBefore; got != 1 {
		t.Errorf("ScratchWorkspacesActive changed by %v, want 1", got)
	}
}
