// Package handlers provides the HTTP handlers of the transcoding webhook.
//
// It includes handlers for:
//   - The push endpoint that receives object notifications and answers
//     with a plain-text status (200 no-op, 201 transcoded, 400 malformed or
//     unsupported, 404 not found, 409 busy, 500 encoder or storage failure)
//   - Health, liveness and readiness probes
//   - Build information and Prometheus metrics
package handlers
