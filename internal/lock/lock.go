package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"audio-transcoder/internal/logging"
	"audio-transcoder/internal/metrics"
)

// ErrLocked is returned by TryLock when another holder owns the key.
var ErrLocked = errors.New("object is locked")

// Backend names accepted by New.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Locker acquires exclusive, non-blocking locks on string keys.
type Locker interface {
	// TryLock acquires key or returns ErrLocked. The returned function
	// releases the lock and is safe to call once.
	TryLock(ctx context.Context, key string) (unlock func(), err error)
	// Name returns the backend name used in logs and metrics.
	Name() string
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Dir holds lock files for the file backend.
	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// TTL bounds how long a redis lock survives a crashed holder.
	TTL time.Duration
}

// Key returns the lock key for an object.
func Key(bucket, name string) string {
	return bucket + "/" + name
}

// New builds the configured backend, wrapped with metrics.
func New(ctx context.Context, cfg Config) (Locker, error) {
	var (
		l   Locker
		err error
	)

	switch strings.ToLower(cfg.Backend) {
	case BackendFile, "":
		l, err = NewFileLocker(cfg.Dir)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, pingErr)
		}
		l = NewRedisLocker(client, cfg.TTL)
	case BackendNone:
		l = Noop{}
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logging.Info("Object lock backend: %s", l.Name())
	return WithMetrics(l), nil
}

type instrumented struct {
	Locker
}

// WithMetrics records every TryLock result in metrics.LockAcquisitionsTotal.
func WithMetrics(l Locker) Locker {
	return &instrumented{Locker: l}
}

func (i *instrumented) TryLock(ctx context.Context, key string) (func(), error) {
	unlock, err := i.Locker.TryLock(ctx, key)
	result := "acquired"
	switch {
	case errors.Is(err, ErrLocked):
		result = "busy"
	case err != nil:
		result = "error"
	}
	metrics.LockAcquisitionsTotal.WithLabelValues(i.Locker.Name(), result).Inc()
	return unlock, err
}
