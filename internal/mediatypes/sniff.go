package mediatypes

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// Sniffer inspects content bytes and reports their MIME type.
type Sniffer struct{}

// DetectFile calls the package-level DetectFile.
func (Sniffer) DetectFile(localPath string) (string, error) {
	return DetectFile(localPath)
}

// DetectFile sniffs the MIME type of a local file from its leading bytes.
// The returned type is normalized (no parameters).
func DetectFile(localPath string) (string, error) {
	mt, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type of %s: %w", localPath, err)
	}
	return Normalize(mt.String()), nil
}
