package storage

import (
	"context"
	"time"

	"audio-transcoder/internal/logging"
	"audio-transcoder/internal/metrics"
)

// Operation labels used in storage metrics.
const (
	OpStat        = "stat"
	OpDownload    = "download"
	OpUpload      = "upload"
	OpSetMetadata = "set_metadata"
)

type instrumented struct {
	Backend
}

// WithMetrics times and counts every call to b.
func WithMetrics(b Backend) Backend {
	return &instrumented{Backend: b}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	backend := i.Backend.Name()
	metrics.StorageOperationDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StorageOperationsTotal.WithLabelValues(backend, op, status).Inc()
}

func (i *instrumented) Stat(ctx context.Context, bucket, name string) (*ObjectAttrs, error) {
	start := time.Now()
	attrs, err := i.Backend.Stat(ctx, bucket, name)
	i.observe(OpStat, start, err)
	return attrs, err
}

func (i *instrumented) Download(ctx context.Context, obj *ObjectAttrs, localPath string) (int64, error) {
	start := time.Now()
	n, err := i.Backend.Download(ctx, obj, localPath)
	i.observe(OpDownload, start, err)
	if err == nil {
		metrics.PipelineBytesTotal.WithLabelValues("download").Add(float64(n))
		logging.Debug("Downloaded %s/%s (%d bytes) in %v", obj.Bucket, obj.Name, n, time.Since(start))
	}
	return n, err
}

func (i *instrumented) Upload(ctx context.Context, bucket, name, localPath, contentType string) (*ObjectAttrs, error) {
	start := time.Now()
	attrs, err := i.Backend.Upload(ctx, bucket, name, localPath, contentType)
	i.observe(OpUpload, start, err)
	if err == nil && attrs != nil {
		metrics.PipelineBytesTotal.WithLabelValues("upload").Add(float64(attrs.Size))
		logging.Debug("Uploaded %s/%s (%d bytes) in %v", bucket, name, attrs.Size, time.Since(start))
	}
	return attrs, err
}

func (i *instrumented) SetMetadata(ctx context.Context, obj *ObjectAttrs, md map[string]string) (*ObjectAttrs, error) {
	start := time.Now()
	attrs, err := i.Backend.SetMetadata(ctx, obj, md)
	i.observe(OpSetMetadata, start, err)
	return attrs, err
}
