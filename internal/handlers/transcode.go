package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"audio-transcoder/internal/logging"
	"audio-transcoder/internal/metrics"
	"audio-transcoder/internal/pipeline"
	"audio-transcoder/internal/pubsub"

	"github.com/getsentry/sentry-go"
)

// TranscodeAudio handles a push notification.
// POST /transcode-audio (alias POST /pubsub/push)
//
// The body is plain text. 200 means nothing to do, 201 means a transcoded
// object was published, 4xx tells the push system not to bother retrying
// except for 409, which asks for a later redelivery.
func (h *Handlers) TranscodeAudio(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	report, err := h.handlePush(w, r)
	status, body := h.respond(report, err)

	outcome := pipeline.Label(err)
	if err == nil {
		outcome = string(report.Outcome)
	}
	metrics.PipelineOutcomesTotal.WithLabelValues(outcome).Inc()
	metrics.PipelineDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if status >= http.StatusInternalServerError {
		if outcome == "canceled" {
			// The push system gave up on the request; it will redeliver.
			logging.Warn("transcode request canceled: %v", err)
		} else {
			logging.Error("transcode request failed: %v", err)
			reportError(r, err, report)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, werr := io.WriteString(w, body); werr != nil {
		logging.Debug("failed to write response: %v", werr)
	}
}

func (h *Handlers) handlePush(w http.ResponseWriter, r *http.Request) (*pipeline.Report, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", pubsub.ErrBadEnvelope, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: failed to read body: %w", pubsub.ErrBadEnvelope, err)
	}

	ref, err := pubsub.Parse(body)
	if err != nil {
		return nil, err
	}

	return h.proc.Process(r.Context(), ref)
}

// respond maps a pipeline result to a status and plain-text body.
func (h *Handlers) respond(report *pipeline.Report, err error) (int, string) {
	if err == nil {
		if report.Outcome == pipeline.OutcomeTranscoded {
			return http.StatusCreated, report.Message()
		}
		return http.StatusOK, report.Message()
	}

	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		return status, fmt.Sprintf("Error occurred during transcoding: %v", err)
	default:
		return status, err.Error()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pubsub.ErrBadEnvelope), errors.Is(err, pubsub.ErrBadEvent):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func reportError(r *http.Request, err error, report *pipeline.Report) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTag("outcome", pipeline.Label(err))
		if report != nil {
			scope.SetTag("bucket", report.Source.Bucket)
			scope.SetExtra("object", report.Source.Name)
			scope.SetExtra("messageId", report.Source.MessageID)
			if report.Encoder != nil {
				scope.SetExtra("encoderArgs", report.Encoder.Args)
				scope.SetExtra("encoderStderr", report.Encoder.Stderr)
			}
		}
		hub.CaptureException(err)
	})
}
