// Package upload parses multipart request bodies into a flat list of file
// descriptors and streams each part into a pluggable Storage backend.
//
// The parser always produces an array of File values regardless of how many
// files a route expects; cardinality checks belong to the route's schema.
// LocalStorage keeps uploads on disk; the integration/storage/s3 package
// provides an S3-compatible backend for the same Storage interface.
package upload
