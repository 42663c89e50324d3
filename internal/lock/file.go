package lock

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/crypto/blake2b"

	"audio-transcoder/internal/logging"
)

// FileLocker locks keys with flock(2) on files under a directory.
// Lock files are left in place after release; removing them would race
// with a concurrent opener.
type FileLocker struct {
	dir string
}

// NewFileLocker creates dir if needed.
func NewFileLocker(dir string) (*FileLocker, error) {
	if dir == "" {
		return nil, fmt.Errorf("file lock directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}
	return &FileLocker{dir: dir}, nil
}

// Path returns the lock file used for key.
func (f *FileLocker) Path(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+".lock")
}

// TryLock takes a non-blocking exclusive lock on key's file.
func (f *FileLocker) TryLock(_ context.Context, key string) (func(), error) {
	fl := flock.New(f.Path(key))

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", key, ErrLocked)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := fl.Unlock(); err != nil {
				logging.Warn("failed to release file lock for %s: %v", key, err)
			}
		})
	}, nil
}

// Name returns "file".
func (f *FileLocker) Name() string { return BackendFile }

// Close does nothing; locks are released by their unlock functions.
func (f *FileLocker) Close() error { return nil }
