package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrymomot/routekit/core/upload"
)

// Compile-time check that S3Storage implements the upload.Storage interface.
var _ upload.Storage = (*S3Storage)(nil)

// S3Client defines the subset of S3 operations used by S3Storage.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3aws.HeadObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
}

// S3Storage persists uploaded files in Amazon S3 or an S3-compatible service.
// Safe for concurrent use.
type S3Storage struct {
	client         S3Client
	bucket         string
	region         string
	endpoint       string // Custom endpoint for S3-compatible services
	baseURL        string // Custom CDN or public URL base (if provided)
	prefix         string // Key prefix for all stored objects
	forcePathStyle bool   // Required for MinIO and some S3-compatible services
	uploadTimeout  time.Duration
}

// S3Config contains configuration for S3 storage.
type S3Config struct {
	Bucket         string
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string // For S3-compatible services like MinIO, Wasabi
	BaseURL        string // Custom CDN or public URL base (auto-generated if empty)
	Prefix         string // Optional key prefix, e.g. "uploads"
	ForcePathStyle bool   // Required for MinIO and some S3-compatible services
}

// S3Option defines a function that configures S3Storage.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient      *http.Client
	s3Client        S3Client
	s3ConfigOptions []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3aws.Options)
	uploadTimeout   time.Duration
}

// WithS3Client sets a custom pre-configured S3 client.
// Primarily used for testing with mocks.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithS3ConfigOption adds a custom AWS config option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, option)
	}
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(option func(*s3aws.Options)) S3Option {
	return func(o *s3Options) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// WithUploadTimeout caps how long a single Save may take. If not set, the
// caller's context deadline applies.
func WithUploadTimeout(timeout time.Duration) S3Option {
	return func(o *s3Options) {
		o.uploadTimeout = timeout
	}
}

// New creates a new S3 storage instance. Supports both AWS S3 and
// S3-compatible services via a custom endpoint.
func New(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}

		// Static credentials when provided; IAM roles / env vars otherwise.
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}
		awsOptions = append(awsOptions, options.s3ConfigOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("s3: failed to load AWS config: %w", err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(o *s3aws.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle

			for _, opt := range options.s3ClientOptions {
				opt(o)
			}
		})
	}

	return &S3Storage{
		client:         client,
		bucket:         cfg.Bucket,
		region:         cfg.Region,
		endpoint:       cfg.Endpoint,
		baseURL:        cfg.BaseURL,
		prefix:         strings.Trim(cfg.Prefix, "/"),
		forcePathStyle: cfg.ForcePathStyle,
		uploadTimeout:  options.uploadTimeout,
	}, nil
}

// Save implements upload.Storage. The stream is uploaded under a UUID-prefixed
// key and the object's public URL is returned as the location.
func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	key, err := s.objectKey(uuid.New().String() + "_" + upload.SanitizeFilename(name))
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", classifyError(err, "upload object")
	}

	return s.URL(key), nil
}

// Exists checks whether an object exists under the given key.
func (s *S3Storage) Exists(ctx context.Context, key string) bool {
	key, err := s.objectKey(key)
	if err != nil {
		return false
	}

	_, err = s.client.HeadObject(ctx, &s3aws.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

// Delete removes an object. Existence is verified first so missing objects
// yield ErrObjectNotFound consistently across backends.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	key, err := s.objectKey(key)
	if err != nil {
		return err
	}

	if _, err := s.client.HeadObject(ctx, &s3aws.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return classifyError(err, "check object")
	}

	if _, err := s.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return classifyError(err, "delete object")
	}

	return nil
}

// URL returns the public URL for an object key. A configured BaseURL (CDN)
// wins; then the custom endpoint; then the standard AWS format, path-style or
// virtual-hosted-style per ForcePathStyle.
func (s *S3Storage) URL(key string) string {
	key = strings.TrimPrefix(key, "/")

	if s.baseURL != "" {
		return strings.TrimSuffix(s.baseURL, "/") + "/" + key
	}

	if s.endpoint != "" {
		endpoint := strings.TrimSuffix(s.endpoint, "/")
		protocol := "https://"
		if after, ok := strings.CutPrefix(endpoint, "http://"); ok {
			protocol = "http://"
			endpoint = after
		} else if after, ok := strings.CutPrefix(endpoint, "https://"); ok {
			endpoint = after
		}

		if s.forcePathStyle {
			return fmt.Sprintf("%s%s/%s/%s", protocol, endpoint, s.bucket, key)
		}
		return fmt.Sprintf("%s%s.%s/%s", protocol, s.bucket, endpoint, key)
	}

	if s.forcePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", s.region, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// objectKey normalizes and validates a key, applying the configured prefix.
// Keys containing traversal sequences are rejected.
func (s *S3Storage) objectKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if s.prefix != "" && !strings.HasPrefix(key, s.prefix+"/") {
		key = s.prefix + "/" + key
	}
	return key, nil
}
