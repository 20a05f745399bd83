package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrInvalidConfig is returned when required configuration is missing.
	ErrInvalidConfig = errors.New("s3: bucket and region are required")
	// ErrInvalidKey is returned for object keys that escape the bucket namespace.
	ErrInvalidKey = errors.New("s3: invalid object key")
	// ErrObjectNotFound is returned when the requested object does not exist.
	ErrObjectNotFound = errors.New("s3: object not found")
	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("s3: bucket not found")
	// ErrAccessDenied is returned when credentials lack permission for the operation.
	ErrAccessDenied = errors.New("s3: access denied")
	// ErrServiceUnavailable is returned for retryable service-side throttling.
	ErrServiceUnavailable = errors.New("s3: service unavailable")
	// ErrOperationTimeout is returned when the operation's context deadline expired.
	ErrOperationTimeout = errors.New("s3: operation timed out")
	// ErrOperationCanceled is returned when the operation's context was canceled.
	ErrOperationCanceled = errors.New("s3: operation canceled")
)

// classifyError converts S3 SDK errors to domain-specific errors so callers
// can branch with errors.Is instead of string matching.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrOperationTimeout, operation)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s", ErrOperationCanceled, operation)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, operation)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return fmt.Errorf("%w: %s", ErrAccessDenied, operation)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: %s", ErrServiceUnavailable, operation)
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s", ErrObjectNotFound, operation)
		case "NoSuchBucket":
			return ErrBucketNotFound
		default:
			return fmt.Errorf("s3: %s failed (code: %s): %w", operation, apiErr.ErrorCode(), err)
		}
	}

	return fmt.Errorf("s3: %s failed: %w", operation, err)
}
