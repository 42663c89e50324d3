package lock

import "context"

// Noop is a Locker that never contends.
type Noop struct{}

// TryLock always succeeds.
func (Noop) TryLock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Name returns "none".
func (Noop) Name() string { return BackendNone }

// Close does nothing.
func (Noop) Close() error { return nil }
