package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"audio-transcoder/internal/logging"
	"audio-transcoder/internal/metrics"
)

// DefaultTimeout bounds a single encoder run when none is configured.
const DefaultTimeout = 10 * time.Minute

// maxStderrInError caps how much stderr is kept in an ExitError message.
const maxStderrInError = 4096

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed.
const waitDelay = 5 * time.Second

// Transcoder runs the encoder binary.
type Transcoder struct {
	ffmpegPath string
	timeout    time.Duration
	processes  map[string]*exec.Cmd
	processMu  sync.Mutex
	// slots bounds concurrent encoder processes; nil means unbounded.
	slots chan struct{}
}

// Result describes a finished encoder run.
type Result struct {
	Args     []string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExitError is returned when the encoder could not be started, exited
// non-zero, or was killed.
type ExitError struct {
	ExitCode int
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *ExitError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("encoder timed out: %v - %s", e.Err, tail(e.Stderr, maxStderrInError))
	case e.ExitCode < 0:
		return fmt.Sprintf("encoder failed to run: %v", e.Err)
	default:
		return fmt.Sprintf("encoder exited with code %d: %v - %s", e.ExitCode, e.Err, tail(e.Stderr, maxStderrInError))
	}
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// New creates a Transcoder. An empty ffmpegPath means "ffmpeg" from PATH and
// a non-positive timeout means DefaultTimeout.
func New(ffmpegPath string, timeout time.Duration) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
		processes:  make(map[string]*exec.Cmd),
	}
}

// SetConcurrency bounds how many encoder processes run at once. Callers past
// the bound wait for a slot or for their context to end. It must be called
// before the first Run; n <= 0 removes the bound.
func (t *Transcoder) SetConcurrency(n int) {
	if n <= 0 {
		t.slots = nil
		return
	}
	t.slots = make(chan struct{}, n)
}

// Concurrency returns the configured bound, or 0 when unbounded.
func (t *Transcoder) Concurrency() int {
	return cap(t.slots)
}

// Timeout returns the per-run deadline.
func (t *Transcoder) Timeout() time.Duration {
	return t.timeout
}

// Transcode converts src into AAC/M4A at dst.
func (t *Transcoder) Transcode(ctx context.Context, src, dst string) (*Result, error) {
	return t.Run(ctx, AACArgs(src, dst))
}

// Run executes the encoder with args. The returned Result is non-nil even
// when err is non-nil.
func (t *Transcoder) Run(ctx context.Context, args Args) (*Result, error) {
	argv := args.Build()
	result := &Result{Args: argv, ExitCode: -1}

	if t.slots != nil {
		select {
		case t.slots <- struct{}{}:
			defer func() { <-t.slots }()
		case <-ctx.Done():
			metrics.TranscoderJobsTotal.WithLabelValues("failure").Inc()
			return result, &ExitError{ExitCode: -1, Err: fmt.Errorf("waiting for encoder slot: %w", ctx.Err())}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, t.ffmpegPath, argv...)
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Running encoder: %s %v", t.ffmpegPath, argv)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		result.Duration = time.Since(start)
		metrics.TranscoderJobsTotal.WithLabelValues("failure").Inc()
		return result, &ExitError{ExitCode: -1, Err: fmt.Errorf("failed to start %s: %w", t.ffmpegPath, err)}
	}

	// Track the process
	t.processMu.Lock()
	t.processes[args.Output] = cmd
	t.processMu.Unlock()
	metrics.TranscoderJobsInProgress.Inc()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, args.Output)
		t.processMu.Unlock()
		metrics.TranscoderJobsInProgress.Dec()
	}()

	waitErr := cmd.Wait()
	result.Duration = time.Since(start)
	result.Stderr = stderr.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	metrics.TranscoderJobDuration.Observe(result.Duration.Seconds())

	if waitErr == nil {
		metrics.TranscoderJobsTotal.WithLabelValues("success").Inc()
		return result, nil
	}

	exitErr := &ExitError{ExitCode: result.ExitCode, Stderr: result.Stderr, Err: waitErr}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		exitErr.TimedOut = true
		exitErr.Err = fmt.Errorf("killed after %v: %w", t.timeout, context.DeadlineExceeded)
		metrics.TranscoderJobsTotal.WithLabelValues("timeout").Inc()
		logging.Error("Encoder timed out after %v for %s", t.timeout, args.Input)
		return result, exitErr
	}
	if ctx.Err() != nil {
		exitErr.Err = fmt.Errorf("encoder canceled: %w", ctx.Err())
	}

	metrics.TranscoderJobsTotal.WithLabelValues("failure").Inc()
	logging.Error("FFmpeg stderr: %s", tail(result.Stderr, maxStderrInError))
	return result, exitErr
}

// ActiveProcesses returns the number of running encoder processes.
func (t *Transcoder) ActiveProcesses() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// Cleanup stops all active transcoding processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for path, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing transcoding process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transcoding process for %s: %v", path, err)
			}
		}
	}
}

// tail returns the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
