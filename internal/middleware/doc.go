// Package middleware provides HTTP middleware for the transcoding webhook.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Request IDs (X-Request-ID)
//   - Panic recovery and Sentry hub propagation
package middleware
