package pubsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"audio-transcoder/internal/logging"
)

var (
	// ErrBadEnvelope is returned when the body is not a well-formed push envelope.
	ErrBadEnvelope = errors.New("bad envelope")
	// ErrBadEvent is returned when the envelope does not identify a storage object.
	ErrBadEvent = errors.New("bad event")
)

// EventObjectFinalize is the eventType attribute sent when an object is created
// or overwritten.
const EventObjectFinalize = "OBJECT_FINALIZE"

// maxLoggedBody caps how much of a raw envelope is written to the debug log.
const maxLoggedBody = 4096

// ObjectRef identifies the storage object a notification refers to.
type ObjectRef struct {
	Bucket    string `validate:"required"`
	Name      string `validate:"required"`
	EventType string
	MessageID string
}

// String returns bucket/name.
func (r ObjectRef) String() string {
	return r.Bucket + "/" + r.Name
}

// IsFinalize reports whether the notification announces new object content.
// Notifications without an eventType are treated as finalize events.
func (r ObjectRef) IsFinalize() bool {
	return r.EventType == "" || r.EventType == EventObjectFinalize
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse extracts an ObjectRef from a raw push envelope.
// Shape errors wrap ErrBadEnvelope; missing identifiers wrap ErrBadEvent.
func Parse(body []byte) (ObjectRef, error) {
	logging.Debug("pubsub: received envelope: %s", truncate(body, maxLoggedBody))

	ref, err := parse(body)
	if err != nil {
		logging.Warn("pubsub: rejected envelope: %v", err)
		return ObjectRef{}, err
	}
	return ref, nil
}

func parse(body []byte) (ObjectRef, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return ObjectRef{}, fmt.Errorf("%w: empty body", ErrBadEnvelope)
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ObjectRef{}, fmt.Errorf("%w: invalid JSON: %v", ErrBadEnvelope, err)
	}

	envelope, ok := raw.(map[string]interface{})
	if !ok {
		return ObjectRef{}, fmt.Errorf("%w: body is not a JSON object", ErrBadEnvelope)
	}

	rawMessage, ok := envelope["message"]
	if !ok {
		return ObjectRef{}, fmt.Errorf("%w: missing message", ErrBadEnvelope)
	}
	message, ok := rawMessage.(map[string]interface{})
	if !ok {
		return ObjectRef{}, fmt.Errorf("%w: message is not an object", ErrBadEnvelope)
	}

	rawAttrs, ok := message["attributes"]
	if !ok {
		return ObjectRef{}, fmt.Errorf("%w: missing message.attributes", ErrBadEnvelope)
	}
	attrs, ok := rawAttrs.(map[string]interface{})
	if !ok {
		return ObjectRef{}, fmt.Errorf("%w: message.attributes is not an object", ErrBadEnvelope)
	}

	// Only the identifying fields are read. Anything else in the envelope,
	// whatever its type, is ignored.
	ref := ObjectRef{
		Bucket:    stringField(attrs, "bucketId"),
		Name:      stringField(attrs, "objectId"),
		EventType: stringField(attrs, "eventType"),
		MessageID: stringField(message, "messageId"),
	}
	if err := validate.Struct(ref); err != nil {
		return ObjectRef{}, fmt.Errorf("%w: %s", ErrBadEvent, describe(err))
	}
	return ref, nil
}

// describe turns validator errors into attribute names.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Bucket":
			fields = append(fields, "bucketId")
		case "Name":
			fields = append(fields, "objectId")
		default:
			fields = append(fields, fe.Field())
		}
	}
	return "missing " + strings.Join(fields, ", ")
}

// stringField returns m[key] when it is a string and "" otherwise.
func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
