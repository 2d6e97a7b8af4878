// internal/media/s3.go
// Package media provides S3-compatible storage for martyr media assets.
// It handles public uploads, best-effort deletion, and presigned URL
// generation, and derives the approximate metadata recorded on assets.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadInput describes one binary payload plus its declared metadata.
type UploadInput struct {
	Bucket      string    // Target bucket name
	Key         string    // Object key within the bucket
	Filename    string    // Original filename (for the derived title)
	ContentType string    // Declared MIME type
	Size        int64     // Declared size in bytes
	Body        io.Reader // Payload
}

// UploadResult is what callers persist about a stored object.
type UploadResult struct {
	URL       string    // Publicly resolvable URL of the object
	Key       string    // Object key, used for later deletion or signing
	Title     string    // Filename stem
	Size      string    // Human-readable MB string
	SizeBytes int64     // Declared size in bytes
	CreatedAt time.Time // Upload time
}

// Uploader is the narrow contract the repository needs from object storage.
type Uploader interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, bucket, key string) error
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// S3Uploader implements Uploader against any S3-compatible service
// (AWS S3, MinIO, Supabase storage).
type S3Uploader struct {
	client   *s3.Client
	endpoint string

	// knownBuckets remembers buckets already ensured this process lifetime,
	// so each category bucket is checked at most once. Guarded by mu since
	// one uploader serves all concurrent requests.
	mu           sync.Mutex
	knownBuckets map[string]bool
}

// NewS3Uploader creates an uploader for the given S3-compatible endpoint.
func NewS3Uploader(endpoint, region, accessKey, secretKey string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
		awsconfig.WithBaseEndpoint(endpoint),
		awsconfig.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			})),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for MinIO and other S3-compatible services
	})

	return &S3Uploader{
		client:       client,
		endpoint:     strings.TrimRight(endpoint, "/"),
		knownBuckets: make(map[string]bool),
	}, nil
}

// ensureBucket creates the bucket if it does not exist. Existence-check
// failures are logged, not fatal: the subsequent PutObject decides whether
// the upload actually works.
func (u *S3Uploader) ensureBucket(ctx context.Context, bucket string) {
	u.mu.Lock()
	known := u.knownBuckets[bucket]
	u.mu.Unlock()
	if known {
		return
	}

	// The S3 round trip runs outside the lock. Two concurrent first uploads
	// to the same bucket may both check it; CreateBucket tolerates that.
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		if _, cerr := u.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); cerr != nil {
			slog.Warn("bucket ensure failed, continuing", "bucket", bucket, "error", cerr)
		}
	}

	u.mu.Lock()
	u.knownBuckets[bucket] = true
	u.mu.Unlock()
}

// Upload stores the payload under the given key with public-read access and
// returns the public URL plus derived metadata.
func (u *S3Uploader) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	u.ensureBucket(ctx, in.Bucket)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(in.Bucket),
		Key:           aws.String(in.Key),
		Body:          in.Body,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	return &UploadResult{
		URL:       fmt.Sprintf("%s/%s/%s", u.endpoint, in.Bucket, in.Key),
		Key:       in.Key,
		Title:     TitleFromFilename(in.Filename),
		Size:      FormatSizeMB(in.Size),
		SizeBytes: in.Size,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Delete removes an object best-effort. Missing objects are not errors; only
// transport-level failures are reported.
func (u *S3Uploader) Delete(ctx context.Context, bucket, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Warn("media delete failed", "bucket", bucket, "key", key, "error", err)
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// SignedURL returns a time-limited read URL for private access patterns.
func (u *S3Uploader) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(u.client)

	presignResult, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignResult.URL, nil
}
