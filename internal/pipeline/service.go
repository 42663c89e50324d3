package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"audio-transcoder/internal/eligibility"
	"audio-transcoder/internal/filesystem"
	"audio-transcoder/internal/lock"
	"audio-transcoder/internal/logging"
	"audio-transcoder/internal/mediatypes"
	"audio-transcoder/internal/pubsub"
	"audio-transcoder/internal/storage"
	"audio-transcoder/internal/transcoder"
)

// Encoder converts a local file to AAC/M4A.
type Encoder interface {
	Transcode(ctx context.Context, src, dst string) (*transcoder.Result, error)
}

// Sniffer detects the MIME type of a local file.
type Sniffer interface {
	DetectFile(localPath string) (string, error)
}

// Scratch hands out per-request workspaces.
type Scratch interface {
	Create() (*filesystem.Workspace, error)
}

// Outcome is the result of a successful Process call.
type Outcome string

const (
	// OutcomeTranscoded means a new or replaced object was uploaded.
	OutcomeTranscoded Outcome = "transcoded"
	// OutcomeAlreadyDone means the object needed no work.
	OutcomeAlreadyDone Outcome = "already_done"
	// OutcomeIgnored means the notification was not an upload.
	OutcomeIgnored Outcome = "ignored"
)

// Options tune pipeline behavior.
type Options struct {
	// TagSourceOnRename also tags the source object when the output was
	// written under a new name, so redeliveries for the source are skipped.
	TagSourceOnRename bool
	// ProcessAllEvents disables the eventType filter.
	ProcessAllEvents bool
}

// Deps are the collaborators of a Service.
type Deps struct {
	Storage storage.Backend
	Encoder Encoder
	Sniffer Sniffer
	Locker  lock.Locker
	Scratch Scratch
	Options Options
}

// Service runs the transcoding pipeline for one notification at a time per
// call; it holds no per-request state and is safe for concurrent use.
type Service struct {
	storage storage.Backend
	encoder Encoder
	sniffer Sniffer
	locker  lock.Locker
	scratch Scratch
	opts    Options
}

// Report describes what Process did.
type Report struct {
	Source      pubsub.ObjectRef
	Outcome     Outcome
	Destination string
	Renamed     bool
	// ContentType is the declared type, or the sniffed type when the
	// declared one was application/octet-stream.
	ContentType string
	Sniffed     bool
	Reason      string
	Encoder     *transcoder.Result
	Duration    time.Duration
}

// Message is the human-readable response body for a successful outcome.
func (r *Report) Message() string {
	switch r.Outcome {
	case OutcomeTranscoded:
		return fmt.Sprintf("Transcoded file uploaded: %s (source: %s)", r.Destination, r.Source.Name)
	case OutcomeAlreadyDone:
		return fmt.Sprintf("Already transcoded: %s (%s)", r.Source.Name, r.Reason)
	case OutcomeIgnored:
		return fmt.Sprintf("ignored: %s", r.Reason)
	default:
		return string(r.Outcome)
	}
}

// New creates a Service. A nil Locker disables locking.
func New(d Deps) *Service {
	locker := d.Locker
	if locker == nil {
		locker = lock.Noop{}
	}
	sniffer := d.Sniffer
	if sniffer == nil {
		sniffer = mediatypes.Sniffer{}
	}
	return &Service{
		storage: d.Storage,
		encoder: d.Encoder,
		sniffer: sniffer,
		locker:  locker,
		scratch: d.Scratch,
		opts:    d.Options,
	}
}

// Process runs the pipeline for ref. On success the Report's Outcome says
// what happened; errors wrap one of the package's sentinel errors. The
// returned Report is never nil.
func (s *Service) Process(ctx context.Context, ref pubsub.ObjectRef) (*Report, error) {
	start := time.Now()
	report := &Report{Source: ref}
	log := logging.With("bucket", ref.Bucket, "object", ref.Name, "messageId", ref.MessageID)

	err := s.process(ctx, ref, report)
	report.Duration = time.Since(start)

	if err != nil {
		log.Warnw("pipeline failed", "error", err, "outcome", Label(err), "duration", report.Duration)
		return report, err
	}

	log.Infow("pipeline finished",
		"outcome", report.Outcome,
		"destination", report.Destination,
		"contentType", report.ContentType,
		"reason", report.Reason,
		"duration", report.Duration,
	)
	return report, nil
}

func (s *Service) process(ctx context.Context, ref pubsub.ObjectRef, report *Report) error {
	if !ref.IsFinalize() && !s.opts.ProcessAllEvents {
		report.Outcome = OutcomeIgnored
		report.Reason = "event type " + ref.EventType
		return nil
	}

	unlock, err := s.locker.TryLock(ctx, lock.Key(ref.Bucket, ref.Name))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return fmt.Errorf("%w: %s is being processed by another delivery", ErrBusy, ref)
		}
		return fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	defer unlock()

	attrs, err := s.storage.Stat(ctx, ref.Bucket, ref.Name)
	if err != nil {
		return storageErr(err)
	}

	decision := eligibility.Decide(attrs.ContentType, attrs.Metadata)
	report.ContentType = decision.ContentType
	switch decision.Verdict {
	case eligibility.AlreadyDone:
		report.Outcome = OutcomeAlreadyDone
		report.Reason = decision.Reason
		return nil
	case eligibility.Unsupported:
		return fmt.Errorf("%w: %s", ErrUnsupported, decision.Reason)
	}

	ws, err := s.scratch.Create()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	defer func() { _ = ws.Cleanup() }()

	if _, err := s.storage.Download(ctx, attrs, ws.SourcePath); err != nil {
		return storageErr(err)
	}

	if decision.NeedsSniff {
		sniffed, err := s.sniffer.DetectFile(ws.SourcePath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
		resolved := eligibility.Resolve(sniffed)
		report.ContentType = resolved.ContentType
		report.Sniffed = true
		switch resolved.Verdict {
		case eligibility.AlreadyDone:
			report.Outcome = OutcomeAlreadyDone
			report.Reason = resolved.Reason
			return nil
		case eligibility.Unsupported:
			return fmt.Errorf("%w: %s", ErrUnsupported, resolved.Reason)
		}
	}

	dest, renamed := mediatypes.DestinationName(ref.Name)
	report.Destination = dest
	report.Renamed = renamed

	result, err := s.encoder.Transcode(ctx, ws.SourcePath, ws.DestPath)
	report.Encoder = result
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTranscodeFailed, err)
	}
	if info, statErr := os.Stat(ws.DestPath); statErr != nil || info.Size() == 0 {
		return fmt.Errorf("%w: encoder produced no output", ErrTranscodeFailed)
	}

	uploaded, err := s.storage.Upload(ctx, ref.Bucket, dest, ws.DestPath, mediatypes.TargetContentType)
	if err != nil {
		return storageErr(err)
	}
	if uploaded == nil {
		uploaded = &storage.ObjectAttrs{Bucket: ref.Bucket, Name: dest, ContentType: mediatypes.TargetContentType}
	}

	if _, err := s.storage.SetMetadata(ctx, uploaded, map[string]string{
		eligibility.TagTranscoded: eligibility.TagValueTrue,
	}); err != nil {
		return storageErr(err)
	}

	if renamed && s.opts.TagSourceOnRename {
		// The output is already published; a failure here only costs a
		// repeated transcode on redelivery.
		if _, err := s.storage.SetMetadata(ctx, attrs, map[string]string{
			eligibility.TagTranscoded:   eligibility.TagValueTrue,
			eligibility.TagTranscodedTo: dest,
		}); err != nil {
			logging.Warn("failed to tag source %s after publishing %s: %v", ref, dest, err)
		}
	}

	report.Outcome = OutcomeTranscoded
	return nil
}

// storageErr maps backend errors onto ErrNotFound or ErrStorage.
func storageErr(err error) error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
