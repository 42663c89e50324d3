package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3 implements Backend on Amazon S3 and S3-compatible stores.
type S3 struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// NewS3 wraps an existing client.
func NewS3(client *s3.Client) *S3 {
	return &S3{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}
}

// NewS3FromConfig loads the default AWS configuration, overridden by static
// credentials and a custom endpoint when configured.
func NewS3FromConfig(ctx context.Context, cfg Config) (*S3, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	return NewS3(client), nil
}

// Name returns "s3".
func (s *S3) Name() string { return BackendS3 }

// Close does nothing; the SDK client holds no resources that need release.
func (s *S3) Close() error { return nil }

// Stat issues a HEAD request for the object.
func (s *S3) Stat(ctx context.Context, bucket, name string) (*ObjectAttrs, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to stat s3://%s/%s: %w", bucket, name, err)
	}

	return &ObjectAttrs{
		Bucket:      bucket,
		Name:        name,
		ContentType: aws.ToString(out.ContentType),
		Metadata:    lowerKeys(out.Metadata),
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(out.ETag),
	}, nil
}

// Download fetches the object with the multipart downloader.
func (s *S3) Download(ctx context.Context, obj *ObjectAttrs, localPath string) (int64, error) {
	f, err := os.OpenFile(localPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(obj.Bucket),
		Key:    aws.String(obj.Name),
	}
	if obj.ETag != "" {
		input.IfMatch = aws.String(obj.ETag)
	}

	n, err := s.downloader.Download(ctx, f, input)
	closeErr := f.Close()
	if err != nil {
		if isS3NotFound(err) {
			return n, fmt.Errorf("s3://%s/%s: %w", obj.Bucket, obj.Name, ErrObjectNotFound)
		}
		return n, fmt.Errorf("failed to download s3://%s/%s: %w", obj.Bucket, obj.Name, err)
	}
	if closeErr != nil {
		return n, fmt.Errorf("failed to close %s: %w", localPath, closeErr)
	}
	return n, nil
}

// Upload stores localPath with the multipart uploader.
func (s *S3) Upload(ctx context.Context, bucket, name, localPath, contentType string) (*ObjectAttrs, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(name),
		Body:        f,
		ContentType: aws.String(contentType),
	}); err != nil {
		return nil, fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, name, err)
	}

	return s.Stat(ctx, bucket, name)
}

// SetMetadata copies the object onto itself with replaced metadata.
// S3 has no in-place metadata update.
func (s *S3) SetMetadata(ctx context.Context, obj *ObjectAttrs, md map[string]string) (*ObjectAttrs, error) {
	input := &s3.CopyObjectInput{
		Bucket:            aws.String(obj.Bucket),
		Key:               aws.String(obj.Name),
		CopySource:        aws.String(copySource(obj.Bucket, obj.Name)),
		Metadata:          lowerKeys(mergeMetadata(obj.Metadata, md)),
		MetadataDirective: types.MetadataDirectiveReplace,
	}
	if obj.ContentType != "" {
		// REPLACE drops the content type unless it is sent again.
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.ETag != "" {
		input.CopySourceIfMatch = aws.String(obj.ETag)
	}

	if _, err := s.client.CopyObject(ctx, input); err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", obj.Bucket, obj.Name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to update metadata of s3://%s/%s: %w", obj.Bucket, obj.Name, err)
	}

	return s.Stat(ctx, obj.Bucket, obj.Name)
}

// copySource returns the URL-encoded "bucket/key" form CopyObject expects.
func copySource(bucket, key string) string {
	return (&url.URL{Path: bucket + "/" + key}).EscapedPath()
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
