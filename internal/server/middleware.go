// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/requirements-engine/internal/caller"
)

// CallerHeader carries the opaque caller identity set by the upstream
// authentication layer.
const CallerHeader = "X-Caller-ID"

func withCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(CallerHeader)); id != "" {
			r = r.WithContext(caller.WithID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter records the response status. It keeps Flush available for
// event streams.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start).Round(time.Millisecond))
	})
}
