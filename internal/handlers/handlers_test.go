package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"audio-transcoder/internal/metrics"
	"audio-transcoder/internal/pipeline"
	"audio-transcoder/internal/pubsub"
	"audio-transcoder/internal/startup"
	"audio-transcoder/internal/transcoder"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeProcessor struct {
	mu     sync.Mutex
	calls  []pubsub.ObjectRef
	report *pipeline.Report
	err    error
}

func (f *fakeProcessor) Process(_ context.Context, ref pubsub.ObjectRef) (*pipeline.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ref)
	report := &pipeline.Report{Source: ref}
	if f.report != nil {
		r := *f.report
		r.Source = ref
		report = &r
	}
	return report, f.err
}

func (f *fakeProcessor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func envelope(bucket, object string) string {
	return fmt.Sprintf(`{"message":{"attributes":{"bucketId":%q,"objectId":%q,"eventType":"OBJECT_FINALIZE"},"messageId":"m-1"},"subscription":"projects/p/subscriptions/s"}`, bucket, object)
}

func post(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transcode-audio", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.TranscodeAudio(w, req)
	return w
}

// sentryEvents returns a context carrying a Sentry hub whose events are
// counted and dropped before any transport sees them.
func sentryEvents(t *testing.T) (context.Context, func() int) {
	t.Helper()
	var mu sync.Mutex
	count := 0
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(_ *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("sentry.NewClient() error = %v", err)
	}
	hub := sentry.NewHub(client, sentry.NewScope())
	return sentry.SetHubOnContext(context.Background(), hub), func() int {
		mu.Lock()
		defer mu.Unlock()
		return count
	}
}

func TestTranscodeAudioSentryReporting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantEvents int
	}{
		{name: "encoder failure is reported", err: fmt.Errorf("encode: %w", pipeline.ErrTranscodeFailed), wantEvents: 1},
		{name: "storage failure is reported", err: fmt.Errorf("upload: %w", pipeline.ErrStorage), wantEvents: 1},
		{name: "canceled request is not reported", err: fmt.Errorf("download: %w", context.Canceled), wantEvents: 0},
		{name: "client error is not reported", err: fmt.Errorf("type: %w", pipeline.ErrUnsupported), wantEvents: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, events := sentryEvents(t)
			h := New(&fakeProcessor{err: tt.err}, Options{})
			req := httptest.NewRequest(http.MethodPost, "/transcode-audio", strings.NewReader(envelope("b", "song.wav"))).WithContext(ctx)
			w := httptest.NewRecorder()
			h.TranscodeAudio(w, req)

			if got := events(); got != tt.wantEvents {
				t.Errorf("sentry events = %d, want %d (status %d)", got, tt.wantEvents, w.Code)
			}
		})
	}
}

func TestTranscodeAudioStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		report     *pipeline.Report
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "transcoded",
			report:     &pipeline.Report{Outcome: pipeline.OutcomeTranscoded, Destination: "song.m4a", Renamed: true},
			wantStatus: http.StatusCreated,
			wantBody:   "Transcoded file uploaded: song.m4a (source: song.wav)",
		},
		{
			name:       "already done",
			report:     &pipeline.Report{Outcome: pipeline.OutcomeAlreadyDone, Reason: "tagged transcoded=true"},
			wantStatus: http.StatusOK,
			wantBody:   "Already transcoded: song.wav",
		},
		{
			name:       "ignored",
			report:     &pipeline.Report{Outcome: pipeline.OutcomeIgnored, Reason: "event OBJECT_DELETE"},
			wantStatus: http.StatusOK,
			wantBody:   "ignored: event OBJECT_DELETE",
		},
		{
			name:       "not found",
			err:        fmt.Errorf("%w: b/song.wav", pipeline.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   "object not found",
		},
		{
			name:       "unsupported",
			err:        fmt.Errorf("%w: text/plain", pipeline.ErrUnsupported),
			wantStatus: http.StatusBadRequest,
			wantBody:   "unsupported content type: text/plain",
		},
		{
			name:       "busy",
			err:        fmt.Errorf("%w: b/song.wav", pipeline.ErrBusy),
			wantStatus: http.StatusConflict,
			wantBody:   "object is busy",
		},
		{
			name:       "encoder failure",
			err:        fmt.Errorf("%w: %w", pipeline.ErrTranscodeFailed, &transcoder.ExitError{ExitCode: 1, Stderr: "Invalid data"}),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Error occurred during transcoding: transcode failed",
		},
		{
			name:       "storage failure",
			err:        fmt.Errorf("%w: upload: connection reset", pipeline.ErrStorage),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Error occurred during transcoding: storage error",
		},
		{
			name:       "lock backend failure",
			err:        fmt.Errorf("%w: dial tcp", pipeline.ErrLockUnavailable),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "lock backend unavailable",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			proc := &fakeProcessor{report: tt.report, err: tt.err}
			h := New(proc, Options{})

			w := post(h, envelope("b", "song.wav"))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", ct)
			}
			if proc.callCount() != 1 {
				t.Errorf("Process called %d times, want 1", proc.callCount())
			}
		})
	}
}

func TestTranscodeAudioPassesObjectRef(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{report: &pipeline.Report{Outcome: pipeline.OutcomeIgnored}}
	h := New(proc, Options{})

	post(h, envelope("media-in", "music/2024/song.flac"))

	if proc.callCount() != 1 {
		t.Fatalf("Process called %d times, want 1", proc.callCount())
	}
	got := proc.calls[0]
	if got.Bucket != "media-in" || got.Name != "music/2024/song.flac" {
		t.Errorf("ObjectRef = %+v", got)
	}
	if got.MessageID != "m-1" || got.EventType != pubsub.EventObjectFinalize {
		t.Errorf("ObjectRef metadata = %+v", got)
	}
}

func TestTranscodeAudioRejectsBadEnvelopes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "not json", body: "hello"},
		{name: "no message", body: `{"subscription":"s"}`},
		{name: "no attributes", body: `{"message":{"data":""}}`},
		{name: "missing objectId", body: `{"message":{"attributes":{"bucketId":"b"}}}`},
		{name: "missing bucketId", body: `{"message":{"attributes":{"objectId":"o"}}}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			proc := &fakeProcessor{}
			h := New(proc, Options{})

			w := post(h, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %q)", w.Code, w.Body.String())
			}
			if proc.callCount() != 0 {
				t.Errorf("Process called %d times, want 0", proc.callCount())
			}
		})
	}
}

func TestTranscodeAudioBodyLimit(t *testing.T) {
	t.Parallel()

	proc := &fakeProcessor{}
	h := New(proc, Options{MaxBodyBytes: 64})

	w := post(h, envelope("bucket-with-a-rather-long-name", "a/very/long/object/name/song.wav"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "exceeds 64 bytes") {
		t.Errorf("body = %q", w.Body.String())
	}
	if proc.callCount() != 0 {
		t.Error("Process should not run for an oversized body")
	}
}

func TestTranscodeAudioRecordsOutcome(t *testing.T) {
	busy := metrics.PipelineOutcomesTotal.WithLabelValues("busy")
	badEnvelope := metrics.PipelineOutcomesTotal.WithLabelValues("bad_envelope")
	transcoded := metrics.PipelineOutcomesTotal.WithLabelValues("transcoded")
	beforeBusy := testutil.ToFloat64(busy)
	beforeBad := testutil.ToFloat64(badEnvelope)
	beforeDone := testutil.ToFloat64(transcoded)

	post(New(&fakeProcessor{err: pipeline.ErrBusy}, Options{}), envelope("b", "o"))
	post(New(&fakeProcessor{}, Options{}), "{")
	post(New(&fakeProcessor{report: &pipeline.Report{Outcome: pipeline.OutcomeTranscoded}}, Options{}), envelope("b", "o"))

	if got := testutil.ToFloat64(busy) - beforeBusy; got != 1 {
		t.Errorf("busy outcome delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(badEnvelope) - beforeBad; got != 1 {
		t.Errorf("bad_envelope outcome delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(transcoded) - beforeDone; got != 1 {
		t.Errorf("transcoded outcome delta = %v, want 1", got)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{pubsub.ErrBadEnvelope, http.StatusBadRequest},
		{pubsub.ErrBadEvent, http.StatusBadRequest},
		{pipeline.ErrUnsupported, http.StatusBadRequest},
		{pipeline.ErrNotFound, http.StatusNotFound},
		{pipeline.ErrBusy, http.StatusConflict},
		{pipeline.ErrTranscodeFailed, http.StatusInternalServerError},
		{pipeline.ErrStorage, http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(fmt.Errorf("wrapped: %w", tt.err)); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	h := New(&fakeProcessor{}, Options{
		StorageBackend: "gcs",
		LockBackend:    "file",
		Stats: metrics.StatsProviderFunc(func() metrics.Stats {
			return metrics.Stats{ScratchWorkspaces: 2, ScratchBytes: 4096}
		}),
		ActiveEncodes: func() int { return 1 },
	})

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status before ready = %d, want 503", w.Code)
	}

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != statusHealthy || !resp.Ready {
		t.Errorf("status = %q ready = %v", resp.Status, resp.Ready)
	}
	if resp.Version != startup.Version {
		t.Errorf("version = %q, want %q", resp.Version, startup.Version)
	}
	if resp.StorageBackend != "gcs" || resp.LockBackend != "file" {
		t.Errorf("backends = %q/%q", resp.StorageBackend, resp.LockBackend)
	}
	if resp.ActiveEncodes != 1 || resp.ScratchWorkspaces != 2 || resp.ScratchBytes != 4096 {
		t.Errorf("work = %+v", resp)
	}
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()

	h := New(&fakeProcessor{}, Options{})

	w := httptest.NewRecorder()
	h.LivenessCheck(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alive") {
		t.Errorf("GET /livez = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.LivenessCheck(w, httptest.NewRequest(http.MethodHead, "/livez", nil))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD /livez = %d with %d body bytes", w.Code, w.Body.Len())
	}
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()

	h := New(&fakeProcessor{}, Options{})

	w := httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "not_ready") {
		t.Errorf("before ready = %d %q", w.Code, w.Body.String())
	}

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ready"`) {
		t.Errorf("after ready = %d %q", w.Code, w.Body.String())
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h := New(&fakeProcessor{}, Options{})
	w := httptest.NewRecorder()
	h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != startup.Version || info.GoVersion == "" {
		t.Errorf("info = %+v", info)
	}
	if w.Header().Get("Cache-Control") != "no-cache" {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	h := New(&fakeProcessor{}, Options{})
	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "audio_transcoder_") {
		t.Error("metrics output does not contain audio_transcoder_ series")
	}
}
