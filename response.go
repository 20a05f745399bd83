package routekit

import (
	"encoding/json"
	"net/http"
)

// EnvelopeLevel selects how much metadata the response envelope carries.
type EnvelopeLevel int

const (
	// LevelFull wraps data in the complete envelope:
	// {error, code, message, durationMs, route:{path, methods}, data}.
	LevelFull EnvelopeLevel = iota
	// LevelReduced drops timing and route metadata: {error, code, data}.
	LevelReduced
	// LevelData writes the bare data value with no envelope.
	LevelData
)

// RouteInfo identifies the matched route in a full envelope.
type RouteInfo struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// envelope is the uniform response shape. Error responses use the same
// structure as successful ones so clients always parse one format.
type envelope struct {
	Error      bool       `json:"error"`
	Code       int        `json:"code"`
	Message    string     `json:"message,omitempty"`
	DurationMS float64    `json:"durationMs"`
	Route      *RouteInfo `json:"route,omitempty"`
	Data       any        `json:"data"`
}

// reducedEnvelope is the LevelReduced wire shape.
type reducedEnvelope struct {
	Error bool `json:"error"`
	Code  int  `json:"code"`
	Data  any  `json:"data"`
}

// writeEnvelope encodes the response at the requested verbosity level.
// JSON is streamed directly to the writer, matching the write-once tracking
// of responseWriter.
func writeEnvelope(w http.ResponseWriter, level EnvelopeLevel, status int, env envelope) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	switch level {
	case LevelReduced:
		return json.NewEncoder(w).Encode(reducedEnvelope{
			Error: env.Error,
			Code:  env.Code,
			Data:  env.Data,
		})
	case LevelData:
		return json.NewEncoder(w).Encode(env.Data)
	default:
		return json.NewEncoder(w).Encode(env)
	}
}
