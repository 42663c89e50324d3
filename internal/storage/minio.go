package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO implements Backend on a MinIO server.
type MinIO struct {
	client *minio.Client
}

// NewMinIO wraps an existing client.
func NewMinIO(client *minio.Client) *MinIO {
	return &MinIO{client: client}
}

// NewMinIOFromConfig connects with static credentials.
func NewMinIOFromConfig(cfg Config) (*MinIO, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
		Region: cfg.MinIORegion,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}
	return NewMinIO(client), nil
}

// Name returns "minio".
func (m *MinIO) Name() string { return BackendMinIO }

// Close does nothing; the client has no resources that need release.
func (m *MinIO) Close() error { return nil }

// Stat returns the object's attributes.
func (m *MinIO) Stat(ctx context.Context, bucket, name string) (*ObjectAttrs, error) {
	info, err := m.client.StatObject(ctx, bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if isMinIONotFound(err) {
			return nil, fmt.Errorf("minio://%s/%s: %w", bucket, name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to stat minio://%s/%s: %w", bucket, name, err)
	}

	return &ObjectAttrs{
		Bucket:      bucket,
		Name:        name,
		ContentType: info.ContentType,
		Metadata:    lowerKeys(info.UserMetadata),
		Size:        info.Size,
		ETag:        info.ETag,
	}, nil
}

// Download fetches the object into localPath.
func (m *MinIO) Download(ctx context.Context, obj *ObjectAttrs, localPath string) (int64, error) {
	opts := minio.GetObjectOptions{}
	if obj.ETag != "" {
		if err := opts.SetMatchETag(obj.ETag); err != nil {
			return 0, fmt.Errorf("invalid etag for minio://%s/%s: %w", obj.Bucket, obj.Name, err)
		}
	}

	if err := m.client.FGetObject(ctx, obj.Bucket, obj.Name, localPath, opts); err != nil {
		if isMinIONotFound(err) {
			return 0, fmt.Errorf("minio://%s/%s: %w", obj.Bucket, obj.Name, ErrObjectNotFound)
		}
		return 0, fmt.Errorf("failed to download minio://%s/%s: %w", obj.Bucket, obj.Name, err)
	}

	stat, err := os.Stat(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	return stat.Size(), nil
}

// Upload stores localPath as bucket/name.
func (m *MinIO) Upload(ctx context.Context, bucket, name, localPath, contentType string) (*ObjectAttrs, error) {
	info, err := m.client.FPutObject(ctx, bucket, name, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload minio://%s/%s: %w", bucket, name, err)
	}

	return &ObjectAttrs{
		Bucket:      bucket,
		Name:        name,
		ContentType: contentType,
		Metadata:    map[string]string{},
		Size:        info.Size,
		ETag:        info.ETag,
	}, nil
}

// SetMetadata copies the object onto itself with replaced metadata.
func (m *MinIO) SetMetadata(ctx context.Context, obj *ObjectAttrs, md map[string]string) (*ObjectAttrs, error) {
	userMeta := lowerKeys(mergeMetadata(obj.Metadata, md))
	if obj.ContentType != "" {
		// Standard headers in UserMetadata are sent as-is, which keeps the
		// content type across a REPLACE copy.
		userMeta["Content-Type"] = obj.ContentType
	}

	src := minio.CopySrcOptions{Bucket: obj.Bucket, Object: obj.Name}
	if obj.ETag != "" {
		src.MatchETag = obj.ETag
	}

	if _, err := m.client.CopyObject(ctx, minio.CopyDestOptions{
		Bucket:          obj.Bucket,
		Object:          obj.Name,
		UserMetadata:    userMeta,
		ReplaceMetadata: true,
	}, src); err != nil {
		if isMinIONotFound(err) {
			return nil, fmt.Errorf("minio://%s/%s: %w", obj.Bucket, obj.Name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to update metadata of minio://%s/%s: %w", obj.Bucket, obj.Name, err)
	}

	return m.Stat(ctx, obj.Bucket, obj.Name)
}

func isMinIONotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}
