package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audio-transcoder/internal/logging"
)

// Names of the files inside a workspace.
const (
	SourceFile = "src"
	DestFile   = "dest"
)

// ScratchSpace hands out per-request working directories under a root.
// Entries whose names start with a dot (such as the lock directory) are
// never treated as workspaces.
type ScratchSpace struct {
	root  string
	retry RetryConfig
}

// Workspace is a per-request directory holding the downloaded source and the
// encoder output.
type Workspace struct {
	ID         string
	Dir        string
	SourcePath string
	DestPath   string

	retry     RetryConfig
	cleanOnce sync.Once
	cleanErr  error
}

// NewScratchSpace creates root if needed and returns a ScratchSpace on it.
func NewScratchSpace(root string) (*ScratchSpace, error) {
	if root == "" {
		return nil, errors.New("scratch root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create scratch root %s: %w", abs, err)
	}
	return &ScratchSpace{root: abs, retry: DefaultRetryConfig()}, nil
}

// Root returns the absolute scratch root.
func (s *ScratchSpace) Root() string {
	return s.root
}

// Create makes a new uniquely named workspace.
func (s *ScratchSpace) Create() (*Workspace, error) {
	start := time.Now()
	id := uuid.NewString()
	dir := filepath.Join(s.root, id)

	err := os.Mkdir(dir, 0o750)
	observe().ObserveOperation(OpCreate, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	observe().ObserveActive(1)

	return &Workspace{
		ID:         id,
		Dir:        dir,
		SourcePath: filepath.Join(dir, SourceFile),
		DestPath:   filepath.Join(dir, DestFile),
		retry:      s.retry,
	}, nil
}

// Cleanup removes the workspace directory and everything in it. It is safe to
// call more than once; only the first call does any work. Failures are
// logged and returned but are never fatal to a request.
func (w *Workspace) Cleanup() error {
	w.cleanOnce.Do(func() {
		start := time.Now()
		err := RemoveAllWithRetry(w.Dir, w.retry)
		observe().ObserveOperation(OpCleanup, time.Since(start).Seconds(), err)
		if err != nil {
			logging.Warn("failed to remove workspace %s: %v", w.Dir, err)
			w.cleanErr = err
			return
		}
		observe().ObserveActive(-1)
	})
	return w.cleanErr
}

// Usage reports the number of workspaces and the total bytes under the root.
func (s *ScratchSpace) Usage() (workspaces int, bytes int64, err error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read scratch root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		workspaces++
		size, sizeErr := dirSize(filepath.Join(s.root, entry.Name()))
		if sizeErr != nil {
			// Workspaces disappear while we walk them; that is expected.
			logging.Debug("failed to size workspace %s: %v", entry.Name(), sizeErr)
		}
		bytes += size
	}
	return workspaces, bytes, nil
}

// Sweep removes workspaces older than maxAge, left behind by a crashed or
// killed process. It returns how many were removed.
func (s *ScratchSpace) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read scratch root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.root, entry.Name())
		if err := RemoveAllWithRetry(path, s.retry); err != nil {
			logging.Warn("failed to sweep stale workspace %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logging.Info("Swept %d stale scratch workspaces from %s", removed, s.root)
	}
	return removed, nil
}

// dirSize calculates the total size of a directory
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
