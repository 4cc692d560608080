// Package responsewriter records what a handler wrote, for the middleware
// that wraps it.
package responsewriter

import (
	"context"
	"errors"
	"net/http"
)

// Using an unexported type prevents key collisions from other packages.
type responseWriterKey string

// RecorderKey is the context key for the recorder of the current request.
const RecorderKey responseWriterKey = "response-recorder"

// Recorder wraps an http.ResponseWriter and remembers the status code and
// the number of body bytes written through it.
type Recorder struct {
	http.ResponseWriter

	status  int
	written int64
}

func NewRecorder(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w}
}

func (r *Recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *Recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)

	return n, err
}

// Status is the status sent to the client, or 200 when the handler wrote
// nothing explicit.
func (r *Recorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

func (r *Recorder) BytesWritten() int64 {
	return r.written
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *Recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware wraps the response writer in a Recorder and makes it available
// to later handlers through the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := NewRecorder(w)
		ctx := context.WithValue(r.Context(), RecorderKey, rec)
		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

// RecorderFromContext retrieves the recorder installed by Middleware.
func RecorderFromContext(ctx context.Context) (*Recorder, error) {
	rec, ok := ctx.Value(RecorderKey).(*Recorder)
	if !ok {
		return nil, errors.New("response recorder not found in context")
	}
	return rec, nil
}
