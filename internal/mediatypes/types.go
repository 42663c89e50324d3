package mediatypes

import (
	"path"
	"strings"
)

// Category is the coarse class of a MIME type as far as transcoding is concerned.
type Category string

const (
	// CategoryAudio is any audio/* type.
	CategoryAudio Category = "audio"
	// CategoryVideo is any video/* type.
	CategoryVideo Category = "video"
	// CategoryBinary is the generic application/octet-stream type.
	CategoryBinary Category = "binary"
	// CategoryOther is anything that cannot be transcoded.
	CategoryOther Category = "other"
)

const (
	// OctetStream is the generic binary stream type that requires sniffing.
	OctetStream = "application/octet-stream"

	// TargetContentType is the canonical MIME type of transcoded output.
	TargetContentType = "audio/mp4"

	// TargetExtension is the file extension given to renamed output objects.
	TargetExtension = ".m4a"
)

// TargetFormats lists MIME types that are already AAC/M4A and need no work.
var TargetFormats = map[string]bool{
	"audio/mp4":   true,
	"audio/x-m4a": true,
}

// Normalize lower-cases a content type and strips MIME parameters.
// An empty content type is reported as OctetStream, which is how object
// stores describe objects uploaded without a type.
func Normalize(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "" {
		return OctetStream
	}
	return ct
}

// GetCategory classifies a content type. The input is normalized first.
func GetCategory(contentType string) Category {
	ct := Normalize(contentType)
	switch {
	case IsOctetStream(ct):
		return CategoryBinary
	case strings.HasPrefix(ct, "audio/"):
		return CategoryAudio
	case strings.HasPrefix(ct, "video/"):
		return CategoryVideo
	default:
		return CategoryOther
	}
}

// IsAudioOrVideo returns true for audio/* and video/* types.
func IsAudioOrVideo(contentType string) bool {
	c := GetCategory(contentType)
	return c == CategoryAudio || c == CategoryVideo
}

// IsTargetFormat returns true if the content type is already AAC/M4A.
func IsTargetFormat(contentType string) bool {
	return TargetFormats[Normalize(contentType)]
}

// IsOctetStream returns true for the generic binary stream type.
func IsOctetStream(contentType string) bool {
	return Normalize(contentType) == OctetStream
}

// DestinationName derives the output object name for a source object.
// A name with an extension gets TargetExtension in its place, keeping any
// directory prefix ("music/song.wav" -> "music/song.m4a"). A name without
// an extension is returned unchanged, meaning the source is overwritten in
// place. A base name that only starts with a dot (".hidden") has no extension.
func DestinationName(objectName string) (dest string, renamed bool) {
	base := path.Base(objectName)
	ext := path.Ext(base)
	if ext == "" || ext == base || !strings.HasSuffix(objectName, base) {
		return objectName, false
	}

	dest = strings.TrimSuffix(objectName, ext) + TargetExtension
	return dest, dest != objectName
}
