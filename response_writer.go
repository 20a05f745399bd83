package routekit

import "net/http"

// responseWriter wraps http.ResponseWriter to track response state. It is the
// transport-level defense against double sends: only the first WriteHeader
// reaches the wire, everything after is dropped.
type responseWriter struct {
	http.ResponseWriter
	written bool
	status  int
	size    int
}

func (w *responseWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Written returns true if the response has been written.
func (w *responseWriter) Written() bool {
	return w.written
}

// Status returns the HTTP status code of the response.
func (w *responseWriter) Status() int {
	return w.status
}

// Size returns the number of body bytes written so far.
func (w *responseWriter) Size() int {
	return w.size
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
