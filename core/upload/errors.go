package upload

import "errors"

// Error variables for multipart parsing and storage failures.
var (
	// ErrNotMultipart indicates the request content type is not multipart/form-data.
	ErrNotMultipart = errors.New("upload: request is not multipart")

	// ErrTooLarge indicates a single part exceeded the configured size cap.
	ErrTooLarge = errors.New("upload: file exceeds size limit")

	// ErrStorageFailed indicates the backend rejected or failed the write.
	ErrStorageFailed = errors.New("upload: storage write failed")

	// ErrInvalidName indicates a stored name resolved outside the storage root.
	ErrInvalidName = errors.New("upload: invalid file name")
)
