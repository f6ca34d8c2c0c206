// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/requirements-engine/internal/caller"
)

func TestWithCaller(t *testing.T) {
	var got string
	h := withCaller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = caller.ID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CallerHeader, "  analyst-9 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "analyst-9", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, got)
}

func TestLogRequests(t *testing.T) {
	var buf bytes.Buffer
	flushed := false
	h := logRequests(log.New(&buf, "", 0), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		assert.True(t, ok, "event streams need Flush")
		w.WriteHeader(http.StatusTeapot)
		f.Flush()
		flushed = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usage", nil))

	assert.True(t, flushed)
	assert.True(t, rec.Flushed)
	assert.Contains(t, buf.String(), "GET /api/usage 418")
}

func TestLogRequestsImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	h := logRequests(log.New(&buf, "", 0), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, buf.String(), "GET /x 200")
}
