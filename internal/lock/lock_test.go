package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"audio-transcoder/internal/metrics"
)

func TestKey(t *testing.T) {
	if got := Key("bucket", "a/b.wav"); got != "bucket/a/b.wav" {
		t.Errorf("Key() = %q", got)
	}
}

func TestFileLockerExclusive(t *testing.T) {
	l, err := NewFileLocker(filepath.Join(t.TempDir(), ".locks"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "b/song.wav")
	if err != nil {
		t.Fatalf("first TryLock() error = %v", err)
	}

	if _, err := l.TryLock(ctx, "b/song.wav"); !errors.Is(err, ErrLocked) {
		t.Fatalf("second TryLock() error = %v, want ErrLocked", err)
	}

	// Different objects do not contend.
	unlockOther, err := l.TryLock(ctx, "b/other.wav")
	if err != nil {
		t.Fatalf("TryLock() on other key error = %v", err)
	}
	unlockOther()

	unlock()
	unlock() // idempotent

	unlockAgain, err := l.TryLock(ctx, "b/song.wav")
	if err != nil {
		t.Fatalf("TryLock() after release error = %v", err)
	}
	unlockAgain()
}

func TestFileLockerPath(t *testing.T) {
	dir := t.TempDir()
	l, err := NewFileLocker(dir)
	if err != nil {
		t.Fatal(err)
	}

	p1 := l.Path("b/x")
	p2 := l.Path("b/y")
	if p1 == p2 {
		t.Error("different keys share a lock file")
	}
	if filepath.Dir(p1) != dir {
		t.Errorf("lock file %s is outside %s", p1, dir)
	}
	if !strings.HasSuffix(p1, ".lock") || len(filepath.Base(p1)) != 64+len(".lock") {
		t.Errorf("unexpected lock file name %s", filepath.Base(p1))
	}
	if l.Path("b/x") != p1 {
		t.Error("Path is not deterministic")
	}
}

func TestFileLockerConcurrent(t *testing.T) {
	l, err := NewFileLocker(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var acquired, busy atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	hold := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			unlock, err := l.TryLock(context.Background(), "b/same")
			if errors.Is(err, ErrLocked) {
				busy.Add(1)
				return
			}
			if err != nil {
				t.Errorf("TryLock() error = %v", err)
				return
			}
			acquired.Add(1)
			<-hold
			unlock()
		}()
	}

	close(start)
	deadline := time.Now().Add(5 * time.Second)
	for acquired.Load()+busy.Load() < 8 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(hold)
	wg.Wait()

	if acquired.Load() != 1 {
		t.Errorf("acquired = %d, want exactly 1", acquired.Load())
	}
	if busy.Load() != 7 {
		t.Errorf("busy = %d, want 7", busy.Load())
	}
}

func TestNewFileLockerEmptyDir(t *testing.T) {
	if _, err := NewFileLocker(""); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestNoop(t *testing.T) {
	var l Locker = Noop{}
	for i := 0; i < 3; i++ {
		unlock, err := l.TryLock(context.Background(), "same")
		if err != nil {
			t.Fatalf("TryLock() error = %v", err)
		}
		defer unlock()
	}
	if l.Name() != BackendNone {
		t.Errorf("Name() = %q", l.Name())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{name: "File", cfg: Config{Backend: "file", Dir: t.TempDir()}, wantName: BackendFile},
		{name: "Default is file", cfg: Config{Dir: t.TempDir()}, wantName: BackendFile},
		{name: "None", cfg: Config{Backend: "NONE"}, wantName: BackendNone},
		{name: "Unknown", cfg: Config{Backend: "etcd"}, wantErr: true},
		{name: "Redis unreachable", cfg: Config{Backend: "redis", RedisAddr: "127.0.0.1:1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer l.Close()
			if l.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", l.Name(), tt.wantName)
			}
		})
	}
}

func TestWithMetricsCountsResults(t *testing.T) {
	l, err := NewFileLocker(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inst := WithMetrics(l)

	acquiredBefore := testutil.ToFloat64(metrics.LockAcquisitionsTotal.WithLabelValues(BackendFile, "acquired"))
	busyBefore := testutil.ToFloat64(metrics.LockAcquisitionsTotal.WithLabelValues(BackendFile, "busy"))

	unlock, err := inst.TryLock(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.TryLock(context.Background(), "k"); !errors.Is(err, ErrLocked) {
		t.Fatalf("error = %v, want ErrLocked", err)
	}
	unlock()

	if d := testutil.ToFloat64(metrics.LockAcquisitionsTotal.WithLabelValues(BackendFile, "acquired")) - acquiredBefore; d != 1 {
		t.Errorf("acquired increased by %v, want 1", d)
	}
	if d := testutil.ToFloat64(metrics.LockAcquisitionsTotal.WithLabelValues(BackendFile, "busy")) - busyBefore; d != 1 {
		t.Errorf("busy increased by %v, want 1", d)
	}
}

// TestRedisLocker runs against a real server when REDIS_ADDR is set.
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	l := NewRedisLocker(client, time.Minute)
	defer l.Close()

	ctx := context.Background()
	key := "test/" + t.Name() + "/" + time.Now().Format(time.RFC3339Nano)

	unlock, err := l.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if _, err := l.TryLock(ctx, key); !errors.Is(err, ErrLocked) {
		t.Fatalf("second TryLock() error = %v, want ErrLocked", err)
	}
	unlock()

	unlock2, err := l.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("TryLock() after release error = %v", err)
	}
	unlock2()
}

func TestRedisLockerDefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	if l := NewRedisLocker(client, 0); l.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", l.ttl, DefaultTTL)
	}
}
