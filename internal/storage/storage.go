package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
)

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Backend names accepted by New.
const (
	BackendGCS   = "gcs"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// ObjectAttrs describes a stored object.
type ObjectAttrs struct {
	Bucket      string
	Name        string
	ContentType string
	Metadata    map[string]string
	Size        int64
	// Generation is the GCS object generation; zero on other backends.
	Generation int64
	ETag       string
}

// Backend is the object storage capability.
type Backend interface {
	// Stat returns the attributes of bucket/name or ErrObjectNotFound.
	Stat(ctx context.Context, bucket, name string) (*ObjectAttrs, error)
	// Download writes the object's content to localPath and returns the
	// number of bytes written.
	Download(ctx context.Context, obj *ObjectAttrs, localPath string) (int64, error)
	// Upload stores the file at localPath as bucket/name with contentType,
	// replacing any existing object.
	Upload(ctx context.Context, bucket, name, localPath, contentType string) (*ObjectAttrs, error)
	// SetMetadata merges md into the object's custom metadata.
	SetMetadata(ctx context.Context, obj *ObjectAttrs, md map[string]string) (*ObjectAttrs, error)
	// Name returns the backend name used in logs and metrics.
	Name() string
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// GCSEndpoint targets an emulator when set.
	GCSEndpoint string

	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	MinIORegion    string
}

// New builds the configured backend wrapped with metrics.
func New(ctx context.Context, cfg Config) (Backend, error) {
	var (
		b   Backend
		err error
	)

	switch strings.ToLower(cfg.Backend) {
	case BackendGCS, "":
		b, err = NewGCSFromConfig(ctx, cfg)
	case BackendS3:
		b, err = NewS3FromConfig(ctx, cfg)
	case BackendMinIO:
		b, err = NewMinIOFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return WithMetrics(b), nil
}

// mergeMetadata returns a copy of base with md applied on top.
func mergeMetadata(base, md map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(md))
	maps.Copy(merged, base)
	maps.Copy(merged, md)
	return merged
}

// lowerKeys returns a copy of md with lower-cased keys. S3-style stores
// transport metadata as HTTP headers and do not preserve key case.
func lowerKeys(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[strings.ToLower(k)] = v
	}
	return out
}
