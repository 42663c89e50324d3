package eligibility

import (
	"fmt"

	"audio-transcoder/internal/mediatypes"
)

// Metadata keys written to processed objects.
const (
	TagTranscoded   = "transcoded"
	TagTranscodedTo = "transcodedTo"
	TagValueTrue    = "true"
)

// Verdict is the outcome of an eligibility check.
type Verdict int

const (
	// Eligible means the object should be transcoded.
	Eligible Verdict = iota
	// AlreadyDone means the object is tagged or already in the target format.
	AlreadyDone
	// Unsupported means the object is neither audio nor video.
	Unsupported
)

func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case AlreadyDone:
		return "already_done"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Decision carries a verdict and the normalized content type it was based on.
type Decision struct {
	Verdict     Verdict
	ContentType string
	// NeedsSniff is set for eligible objects declared as application/octet-stream.
	NeedsSniff bool
	Reason     string
}

// Decide applies the metadata-only rules:
//
//  1. transcoded=true tag, or a target content type: AlreadyDone
//  2. not audio/*, video/* or application/octet-stream: Unsupported
//  3. otherwise Eligible
func Decide(contentType string, metadata map[string]string) Decision {
	ct := mediatypes.Normalize(contentType)

	if metadata[TagTranscoded] == TagValueTrue {
		return Decision{Verdict: AlreadyDone, ContentType: ct, Reason: "object is tagged transcoded=true"}
	}
	if mediatypes.IsTargetFormat(ct) {
		return Decision{Verdict: AlreadyDone, ContentType: ct, Reason: "content type " + ct + " is already the target format"}
	}

	switch mediatypes.GetCategory(ct) {
	case mediatypes.CategoryAudio, mediatypes.CategoryVideo:
		return Decision{Verdict: Eligible, ContentType: ct}
	case mediatypes.CategoryBinary:
		return Decision{Verdict: Eligible, ContentType: ct, NeedsSniff: true}
	default:
		return Decision{Verdict: Unsupported, ContentType: ct, Reason: "content type " + ct + " is not audio or video"}
	}
}

// Resolve applies the content rules to a sniffed type.
func Resolve(sniffed string) Decision {
	ct := mediatypes.Normalize(sniffed)

	if !mediatypes.IsAudioOrVideo(ct) {
		return Decision{Verdict: Unsupported, ContentType: ct, Reason: "sniffed content type " + ct + " is not audio or video"}
	}
	if mediatypes.IsTargetFormat(ct) {
		return Decision{Verdict: AlreadyDone, ContentType: ct, Reason: "sniffed content type " + ct + " is already the target format"}
	}
	return Decision{Verdict: Eligible, ContentType: ct}
}
