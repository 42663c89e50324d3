package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"audio-transcoder/internal/logging"
)

// RetryConfig holds configuration for retrying scratch removal
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for scratch removal on local
// disks and NFS-backed volumes
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isTransientRemoveError reports errors that usually clear on their own:
// stale NFS handles, files still held open by an exiting encoder, and NFS
// silly-renamed files that briefly keep a directory non-empty.
func isTransientRemoveError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE || errno == syscall.EBUSY || errno == syscall.ENOTEMPTY
	}

	return false
}

// RemoveAllWithRetry performs os.RemoveAll, retrying transient errors with
// exponential backoff
func RemoveAllWithRetry(path string, config RetryConfig) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := os.RemoveAll(path)
		if err == nil {
			if attempt > 0 {
				logging.Info("Removed %s on retry %d", path, attempt)
			}
			return nil
		}

		lastErr = err

		if !isTransientRemoveError(err) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt < config.MaxRetries {
			logging.Debug("Transient error removing %s, retrying in %v (attempt %d/%d): %v",
				path, backoff, attempt+1, config.MaxRetries, err)
			time.Sleep(backoff)

			// Exponential backoff with cap
			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("Remove failed after %d retries for %s: %v", config.MaxRetries, path, lastErr)
	return lastErr
}
