package routekit

import (
	"errors"
	"net/http"
)

// ErrStop signals that a response has already been written for the current
// request. Middleware entries and handlers return it (usually by returning
// the result of Context.Send or Context.Throw) to end processing early.
// The pipeline never treats it as a fault.
var ErrStop = errors.New("routekit: response already sent")

// Error represents a structured error response that implements the error interface.
type Error struct {
	Status  int            `json:"-"`                 // HTTP status code (not in JSON)
	Code    string         `json:"code"`              // Machine-readable error code
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Optional context
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e Error) WithMessage(message string) Error {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e Error) WithDetails(details map[string]any) Error {
	e.Details = details
	return e
}

// Predefined HTTP errors covering every pipeline rejection.
var (
	ErrBadRequest          = Error{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: http.StatusText(http.StatusBadRequest)}
	ErrUnauthorized        = Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: http.StatusText(http.StatusUnauthorized)}
	ErrNotFound            = Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: http.StatusText(http.StatusNotFound)}
	ErrMethodNotAllowed    = Error{Status: http.StatusMethodNotAllowed, Code: "METHOD_NOT_ALLOWED", Message: http.StatusText(http.StatusMethodNotAllowed)}
	ErrValidationFailed    = Error{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "request validation failed"}
	ErrTooManyRequests     = Error{Status: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS", Message: http.StatusText(http.StatusTooManyRequests)}
	ErrInternalServerError = Error{Status: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: http.StatusText(http.StatusInternalServerError)}
	ErrRouteDisabled       = Error{Status: http.StatusServiceUnavailable, Code: "ROUTE_DISABLED", Message: "this endpoint is temporarily disabled"}
)

// Route-table registration errors.
var (
	ErrInvalidPattern = errors.New("routekit: routing pattern must begin with '/'")
	ErrDuplicateParam = errors.New("routekit: routing pattern contains duplicate param key")
	ErrEmptyParam     = errors.New("routekit: routing pattern contains an unnamed ':' param")
	ErrNilRoute       = errors.New("routekit: cannot register nil route")
	ErrInvalidMethod  = errors.New("routekit: invalid http method")
	ErrNilHandler     = errors.New("routekit: route has no handlers")
)
