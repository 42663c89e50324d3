package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"audio-transcoder/internal/metrics"
	"audio-transcoder/internal/pipeline"
	"audio-transcoder/internal/pubsub"
)

// DefaultMaxBodyBytes bounds a push body when Options leaves it unset.
const DefaultMaxBodyBytes int64 = 1 << 20

// Processor runs the transcoding pipeline for one object.
type Processor interface {
	Process(ctx context.Context, ref pubsub.ObjectRef) (*pipeline.Report, error)
}

// Options configures the handlers.
type Options struct {
	MaxBodyBytes   int64
	StorageBackend string
	LockBackend    string
	// Stats feeds scratch usage into the health response. Optional.
	Stats metrics.StatsProvider
	// ActiveEncodes reports running encoder processes. Optional.
	ActiveEncodes func() int
}

type Handlers struct {
	proc    Processor
	opts    Options
	ready   atomic.Bool
	started time.Time
}

// New creates the handlers around proc. They report not ready until
// SetReady(true) is called.
func New(proc Processor, opts Options) *Handlers {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handlers{
		proc:    proc,
		opts:    opts,
		started: time.Now(),
	}
}

// SetReady flips the readiness probe.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness state.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}
