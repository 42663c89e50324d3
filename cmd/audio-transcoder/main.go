package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audio-transcoder/internal/filesystem"
	"audio-transcoder/internal/handlers"
	"audio-transcoder/internal/lock"
	"audio-transcoder/internal/logging"
	"audio-transcoder/internal/memory"
	"audio-transcoder/internal/metrics"
	"audio-transcoder/internal/middleware"
	"audio-transcoder/internal/pipeline"
	"audio-transcoder/internal/startup"
	"audio-transcoder/internal/storage"
	"audio-transcoder/internal/transcoder"
	"audio-transcoder/internal/workers"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/spf13/pflag"
)

const (
	shutdownTimeout        = 30 * time.Second
	metricsCollectInterval = 1 * time.Minute
	sentryFlushTimeout     = 2 * time.Second
	// minSweepAge keeps startup from removing workspaces that a sibling
	// process sharing the scratch root may still be using.
	minSweepAge = 1 * time.Hour
)

// components holds everything that needs closing on shutdown.
type components struct {
	server        *http.Server
	metricsServer *http.Server
	collector     *metrics.Collector
	handlers      *handlers.Handlers
	transcoder    *transcoder.Transcoder
	locker        lock.Locker
	storage       storage.Backend
}

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig(os.Args[1:])
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if config.ShowVersion {
		startup.PrintVersion()
		return
	}

	if err := logging.Init(logging.ParseLevel(config.LogLevel), config.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logging.Sync()

	startup.LogConfig(config)
	memory.Configure(config.MemoryLimit, config.MemoryRatio)

	if err := initSentry(config); err != nil {
		startup.LogFatal("sentry.Init: %v", err)
	}
	defer sentry.Flush(sentryFlushTimeout)

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewScratchObserver())

	if err := startup.PrepareScratchDir(config.ScratchDir); err != nil {
		startup.LogFatal("Scratch directory error: %v", err)
	}
	scratch, err := filesystem.NewScratchSpace(config.ScratchDir)
	if err != nil {
		startup.LogFatal("Failed to initialize scratch space: %v", err)
	}
	startup.LogSweep(scratch.Sweep(sweepAge(config.EncoderTimeout)))

	ctx := context.Background()

	storageStart := time.Now()
	store, err := storage.New(ctx, config.StorageConfig())
	if err != nil {
		startup.LogFatal("Failed to initialize %s storage: %v", config.StorageBackend, err)
	}
	startup.LogStorageInit(store.Name(), time.Since(storageStart))

	locker, err := lock.New(ctx, config.LockConfig())
	if err != nil {
		startup.LogFatal("Failed to initialize %s lock backend: %v", config.LockBackend, err)
	}
	startup.LogLockInit(locker.Name())

	trans := transcoder.New(config.FFmpegPath, config.EncoderTimeout)
	trans.SetConcurrency(workers.Resolve(config.MaxConcurrentEncodes, 0))
	startup.LogTranscoderInit(config.FFmpegPath, trans.Timeout(), trans.Concurrency())

	svc := pipeline.New(pipeline.Deps{
		Storage: store,
		Encoder: trans,
		Locker:  locker,
		Scratch: scratch,
		Options: pipeline.Options{
			TagSourceOnRename: config.TagSourceOnRename,
			ProcessAllEvents:  config.ProcessAllEvents,
		},
	})

	stats := scratchStats(scratch)
	collector := metrics.NewCollector(stats, metricsCollectInterval)
	collector.Start()

	h := handlers.New(svc, handlers.Options{
		MaxBodyBytes:   config.MaxBodyBytes,
		StorageBackend: store.Name(),
		LockBackend:    locker.Name(),
		Stats:          stats,
		ActiveEncodes:  trans.ActiveProcesses,
	})

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := buildHandler(router, loggingConfig)

	c := &components{
		server:     newServer(":"+config.Port, handler),
		collector:  collector,
		handlers:   h,
		transcoder: trans,
		locker:     locker,
		storage:    store,
	}

	if config.MetricsEnabled {
		c.metricsServer = newMetricsServer(":"+config.MetricsPort, h.MetricsHandler())
		go func() {
			if err := c.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		handleShutdown(c)
		close(done)
	}()

	h.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := c.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func initSentry(config *startup.Config) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:         config.SentryDSN,
		Environment: config.SentryEnvironment,
		Release:     startup.ApplicationName + "@" + startup.Version,
	})
}

// sweepAge is how old a leftover workspace must be before startup removes
// it: older than any encode could still be running.
func sweepAge(encoderTimeout time.Duration) time.Duration {
	if age := 2 * encoderTimeout; age > minSweepAge {
		return age
	}
	return minSweepAge
}

func scratchStats(scratch *filesystem.ScratchSpace) metrics.StatsProvider {
	return metrics.StatsProviderFunc(func() metrics.Stats {
		workspaces, bytes, err := scratch.Usage()
		if err != nil {
			logging.Debug("scratch usage: %v", err)
		}
		return metrics.Stats{ScratchWorkspaces: workspaces, ScratchBytes: bytes}
	})
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/transcode-audio", h.TranscodeAudio).Methods(http.MethodPost).Name("transcode")
	r.HandleFunc("/pubsub/push", h.TranscodeAudio).Methods(http.MethodPost).Name("transcode-legacy")

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	return r
}

// buildHandler wraps the router, outermost first: panic recovery, Sentry hub,
// request ID, access log.
func buildHandler(router http.Handler, loggingConfig middleware.LoggingConfig) http.Handler {
	var handler = middleware.Logger(loggingConfig)(router)
	handler = middleware.RequestID(handler)
	handler = middleware.Sentry()(handler)
	return middleware.Recover(handler)
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Encodes can run for ENCODER_TIMEOUT; the push system enforces its own deadline.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
}

func newMetricsServer(addr string, metricsHandler http.Handler) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", metricsHandler)
	return &http.Server{
		Addr:              addr,
		Handler:           m,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleShutdown(c *components) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	shutdown(c, sig.String())
}

func shutdown(c *components, reason string) {
	startup.LogShutdownInitiated(reason)
	c.handlers.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping encoders")
	c.transcoder.Cleanup()
	startup.LogShutdownStepComplete("Encoder cleanup complete")

	startup.LogShutdownStep("Stopping metrics collector")
	c.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if c.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing lock backend")
	if err := c.locker.Close(); err != nil {
		logging.Warn("Lock backend close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Lock backend closed")
	}

	startup.LogShutdownStep("Closing storage backend")
	if err := c.storage.Close(); err != nil {
		logging.Warn("Storage backend close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Storage backend closed")
	}

	startup.LogShutdownComplete()
}
