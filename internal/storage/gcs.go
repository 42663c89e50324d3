package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS implements Backend on Google Cloud Storage.
type GCS struct {
	client *gcs.Client
}

// NewGCS wraps an existing client.
func NewGCS(client *gcs.Client) *GCS {
	return &GCS{client: client}
}

// NewGCSFromConfig creates a client with application default credentials,
// or an unauthenticated client against cfg.GCSEndpoint when it is set.
func NewGCSFromConfig(ctx context.Context, cfg Config) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.GCSEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.GCSEndpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return NewGCS(client), nil
}

// Name returns "gcs".
func (g *GCS) Name() string { return BackendGCS }

// Close closes the client.
func (g *GCS) Close() error { return g.client.Close() }

// Stat returns the object's attributes.
func (g *GCS) Stat(ctx context.Context, bucket, name string) (*ObjectAttrs, error) {
	attrs, err := g.client.Bucket(bucket).Object(name).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to stat gs://%s/%s: %w", bucket, name, err)
	}
	return fromGCSAttrs(attrs), nil
}

// Download reads the exact generation that was stat'ed, when known.
func (g *GCS) Download(ctx context.Context, obj *ObjectAttrs, localPath string) (int64, error) {
	handle := g.client.Bucket(obj.Bucket).Object(obj.Name)
	if obj.Generation > 0 {
		handle = handle.Generation(obj.Generation)
	}

	r, err := handle.NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return 0, fmt.Errorf("gs://%s/%s: %w", obj.Bucket, obj.Name, ErrObjectNotFound)
		}
		return 0, fmt.Errorf("failed to open gs://%s/%s: %w", obj.Bucket, obj.Name, err)
	}
	defer r.Close()

	return writeFile(localPath, r)
}

// Upload writes localPath to bucket/name.
func (g *GCS) Upload(ctx context.Context, bucket, name, localPath, contentType string) (*ObjectAttrs, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	w := g.client.Bucket(bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to upload gs://%s/%s: %w", bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gs://%s/%s: %w", bucket, name, err)
	}
	return fromGCSAttrs(w.Attrs()), nil
}

// SetMetadata merges md into the object's metadata.
func (g *GCS) SetMetadata(ctx context.Context, obj *ObjectAttrs, md map[string]string) (*ObjectAttrs, error) {
	update := gcs.ObjectAttrsToUpdate{Metadata: mergeMetadata(obj.Metadata, md)}

	attrs, err := g.client.Bucket(obj.Bucket).Object(obj.Name).Update(ctx, update)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", obj.Bucket, obj.Name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to update metadata of gs://%s/%s: %w", obj.Bucket, obj.Name, err)
	}
	return fromGCSAttrs(attrs), nil
}

func fromGCSAttrs(a *gcs.ObjectAttrs) *ObjectAttrs {
	if a == nil {
		return nil
	}
	return &ObjectAttrs{
		Bucket:      a.Bucket,
		Name:        a.Name,
		ContentType: a.ContentType,
		Metadata:    a.Metadata,
		Size:        a.Size,
		Generation:  a.Generation,
		ETag:        a.Etag,
	}
}

// writeFile copies r into a new file at path.
func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return n, fmt.Errorf("failed to write %s: %w", path, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return n, nil
}
