package pipeline

import (
	"context"
	"errors"

	"audio-transcoder/internal/pubsub"
)

var (
	// ErrNotFound is returned when the notified object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrUnsupported is returned for content that is neither audio nor video.
	ErrUnsupported = errors.New("unsupported content type")
	// ErrTranscodeFailed wraps a *transcoder.ExitError.
	ErrTranscodeFailed = errors.New("transcode failed")
	// ErrBusy is returned when another delivery holds the object lock.
	ErrBusy = errors.New("object is busy")
	// ErrStorage is returned for download, upload, metadata and scratch failures.
	ErrStorage = errors.New("storage error")
	// ErrLockUnavailable is returned when the lock backend itself fails.
	ErrLockUnavailable = errors.New("lock backend unavailable")
)

// Label returns the metrics label for a pipeline or parse error.
func Label(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, pubsub.ErrBadEnvelope):
		return "bad_envelope"
	case errors.Is(err, pubsub.ErrBadEvent):
		return "bad_event"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrTranscodeFailed):
		return "transcode_failed"
	case errors.Is(err, ErrLockUnavailable):
		return "lock_error"
	default:
		return "storage_error"
	}
}
