// Package middleware provides ready-made chain entries for the request
// pipeline: request ID tagging, request logging and global throttling.
//
// Each constructor returns a routekit.HandlerFunc suitable for a chain entry:
//
//	chain := routekit.NewChain(
//		routekit.Entry{SortKey: "00_request_id", Fn: middleware.RequestID()},
//		routekit.Entry{SortKey: "10_logging", Fn: middleware.Logging()},
//	)
//
// A middleware observes the request and returns nil to pass control to the
// next entry. Responding through the context (Send or Throw) short-circuits
// the rest of the pipeline.
package middleware
