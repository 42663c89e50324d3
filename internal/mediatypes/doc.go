// Package mediatypes provides MIME classification, output naming and content
// sniffing for the audio transcoder.
//
// # Classification
//
// Content types are normalized with [Normalize] (lower case, parameters
// stripped, empty treated as application/octet-stream) and then classified:
//
//	mediatypes.GetCategory("audio/wav")                // CategoryAudio
//	mediatypes.GetCategory("video/mp4; codecs=avc1")   // CategoryVideo
//	mediatypes.GetCategory("application/octet-stream") // CategoryBinary
//	mediatypes.GetCategory("text/plain")               // CategoryOther
//
// [IsTargetFormat] reports whether a type is already AAC/M4A
// (audio/mp4 or audio/x-m4a).
//
// # Naming
//
// [DestinationName] maps a source object name to the name of the transcoded
// object. Extensions are replaced with .m4a; names without an extension are
// overwritten in place.
//
// # Sniffing
//
// [Sniffer] wraps github.com/gabriel-vasile/mimetype and is used when an
// object was uploaded as application/octet-stream.
package mediatypes
