// Package pubsub parses push-delivery envelopes carrying storage-change
// notifications and extracts the object they refer to.
//
// Parsing is layered. The body is first decoded into a generic JSON value
// and walked structurally (envelope, message, attributes), which yields
// [ErrBadEnvelope] on any shape problem. The identifying attributes are then
// copied into an [ObjectRef] and checked with go-playground/validator, which
// yields [ErrBadEvent] when bucketId or objectId is missing or empty.
//
//	ref, err := pubsub.Parse(body)
//	if errors.Is(err, pubsub.ErrBadEnvelope) || errors.Is(err, pubsub.ErrBadEvent) {
//	    // 400
//	}
package pubsub
