// Package s3 provides an S3-backed upload storage for Amazon S3 and
// S3-compatible services (MinIO, Wasabi, DigitalOcean Spaces).
//
// S3Storage implements the upload.Storage interface, so it plugs directly
// into the multipart parser:
//
//	store, err := s3.New(ctx, s3.S3Config{
//		Bucket: "uploads",
//		Region: "us-east-1",
//	})
//	if err != nil {
//		return err
//	}
//	parser := upload.NewParser(store)
//
// Uploaded objects are keyed with a UUID prefix so concurrent uploads of the
// same filename never overwrite each other. Public URLs follow the configured
// BaseURL, custom endpoint, or standard AWS format.
package s3
