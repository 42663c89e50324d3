// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] resolves every setting with viper and pflag. Precedence is
// command-line flag, then environment variable, then config file, then
// default. Config file keys are the environment names in lower case
// (port, storage_backend, lock_ttl, ...). Without --config the file
// audio-transcoder.{yaml,json,toml} is looked up in /etc/audio-transcoder
// and $HOME/.audio-transcoder; a missing file is not an error.
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT / METRICS_ENABLED: Prometheus listener (default: 9090, true)
//   - LOG_LEVEL / LOG_FORMAT: debug, info, warn, error / json, console, auto
//   - LOG_HEALTH_CHECKS: access-log health probes (default: false)
//   - STORAGE_BACKEND: gcs, s3 or minio (default: gcs)
//   - STORAGE_ENDPOINT: GCS emulator endpoint
//   - S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_USE_PATH_STYLE
//   - MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_USE_SSL, MINIO_REGION
//   - SCRATCH_DIR: per-request workspace root (default: $TMPDIR/audio-transcoder)
//   - FFMPEG_PATH / ENCODER_TIMEOUT: encoder binary and deadline (default: ffmpeg, 10m)
//   - MAX_CONCURRENT_ENCODES: parallel FFmpeg processes, 0 for one per CPU (default: 0)
//   - MEMORY_LIMIT / MEMORY_RATIO: container limit in bytes and the share
//     given to GOMEMLIMIT (default: unset, 0.5)
//   - LOCK_BACKEND: file, redis or none (default: file)
//   - LOCK_TTL, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: redis lock settings;
//     LOCK_TTL must exceed ENCODER_TIMEOUT with the redis backend
//   - TAG_SOURCE_ON_RENAME: mark renamed sources as done (default: true)
//   - PROCESS_ALL_EVENTS: disable the OBJECT_FINALIZE filter (default: false)
//   - MAX_BODY_BYTES: push body limit (default: 1048576)
//   - SENTRY_DSN / SENTRY_ENVIRONMENT: error reporting
//
// Flags: --port, --metrics-port, --config, --debug, --version.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
//   - [LogConfig]: Banner, system information and resolved configuration
//   - [PrepareScratchDir]: Scratch root creation and write check
//   - [LogStorageInit], [LogLockInit]: Backend readiness
//   - [LogTranscoderInit]: Encoder timeout, concurrency and FFmpeg availability
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
//
// # Example Usage
//
//	config, err := startup.LoadConfig(os.Args[1:])
//	if err != nil {
//	    fmt.Fprintln(os.Stderr, err)
//	    os.Exit(1)
//	}
//	startup.LogConfig(config)
//
//	if err := startup.PrepareScratchDir(config.ScratchDir); err != nil {
//	    startup.LogFatal("Scratch error: %v", err)
//	}
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
