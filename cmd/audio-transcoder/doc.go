// Package main provides the entry point for the audio transcoder webhook.
//
// The service receives object-storage notifications pushed over HTTP (Pub/Sub
// push envelopes), downloads each new audio or video object, converts it to
// AAC in an M4A container with FFmpeg, uploads the result and tags it
// transcoded=true so later notifications for it are skipped.
//
// # Application Lifecycle
//
//  1. Configuration Loading: flags, environment and optional config file
//  2. Logging and Sentry initialization
//  3. Scratch space: created, checked for write access, stale workspaces swept
//  4. Component Initialization:
//     - Storage backend (gcs, s3 or minio)
//     - Lock backend (file, redis or none)
//     - Transcoder: FFmpeg availability check
//     - Pipeline and HTTP handlers
//     - Metrics Collector: scratch usage every minute
//  5. HTTP Server Setup: routes, middleware, metrics listener
//  6. Graceful Shutdown: SIGINT/SIGTERM
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - POST /transcode-audio and POST /pubsub/push
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Graceful Shutdown
//
//  1. Readiness probe reports not ready
//  2. Stop accepting new HTTP requests; in-flight pushes finish (30s timeout)
//  3. Kill any encoder still running
//  4. Stop metrics collector and metrics server
//  5. Close lock and storage backends
//
// # Related Packages
//
//   - [audio-transcoder/internal/pubsub]: push envelope parsing
//   - [audio-transcoder/internal/eligibility]: transcode decisions
//   - [audio-transcoder/internal/pipeline]: the per-object workflow
//   - [audio-transcoder/internal/transcoder]: FFmpeg execution
//   - [audio-transcoder/internal/storage]: object storage backends
//   - [audio-transcoder/internal/lock]: per-object locking
//   - [audio-transcoder/internal/startup]: configuration and initialization
package main
