// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/requirements-engine/internal/normalize"
	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

func testPayload() prompt.Payload {
	in := normalize.BusinessInput{InputMode: types.ModeQuick, Project: normalize.Project{Description: "Build an online bookstore"}}
	return prompt.Compile(in, prompt.Options{Standard: types.StandardIEEE, Language: "English", Style: types.StyleWaterfall})
}

func localBackend(url string) *LocalBackend {
	return NewLocalBackend(types.LocalBackendConfig{BaseURL: url, Model: "llama-test"})
}

// drain reads a stream to the end and returns the fragments and final error.
func drain(t *testing.T, s Stream) ([]Fragment, error) {
	t.Helper()
	defer s.Close()
	var got []Fragment
	for s.Next() {
		got = append(got, s.Current())
	}
	return got, s.Err()
}

func ndjson(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	for _, l := range lines {
		fmt.Fprintln(w, l)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func TestLocalGenerate(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"model":"llama-test:8b","message":{"role":"assistant","content":"# Shelf BRD"},"done":true,"prompt_eval_count":10,"eval_count":5}`)
	}))
	defer ts.Close()

	res, err := localBackend(ts.URL).Generate(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, "# Shelf BRD", res.Content)
	assert.Equal(t, types.BackendLocal, res.Backend)
	assert.Equal(t, "llama-test:8b", res.Model)
	assert.Equal(t, 15, res.Tokens)

	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, testPayload().User(), got.Messages[1].Content)
}

func TestLocalGenerateDefaultsModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"content":"x"},"done":true}`)
	}))
	defer ts.Close()

	res, err := localBackend(ts.URL).Generate(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, "llama-test", res.Model)
}

func TestLocalGenerateMissingModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model \"llama-test\" not found, try pulling it first"}`)
	}))
	defer ts.Close()

	_, err := localBackend(ts.URL).Generate(context.Background(), testPayload())
	assert.ErrorIs(t, err, reqerr.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "not found")
}

func TestLocalGenerateUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := localBackend(url).Generate(context.Background(), testPayload())
	assert.ErrorIs(t, err, reqerr.ErrBackendUnavailable)
}

func TestLocalNeverRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := localBackend(ts.URL).Generate(context.Background(), testPayload())
	assert.ErrorIs(t, err, reqerr.ErrBackendUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLocalStream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		ndjson(w,
			`{"model":"llama-test","message":{"content":"# Shelf"},"done":false}`,
			``,
			`{"model":"llama-test","message":{"content":" BRD\n"},"done":false}`,
			`{"model":"llama-test","message":{"content":""},"done":false}`,
			`{"model":"llama-test","message":{"content":"Body."},"done":false}`,
			`{"model":"llama-test","message":{"content":""},"done":true,"eval_count":3}`,
		)
	}))
	defer ts.Close()

	frags, err := drain(t, localBackend(ts.URL).GenerateStream(context.Background(), testPayload()))
	require.NoError(t, err)

	var texts []string
	for _, f := range frags {
		texts = append(texts, f.Text)
		assert.Equal(t, types.BackendLocal, f.Backend)
		assert.Equal(t, "llama-test", f.Model)
	}
	assert.Equal(t, []string{"# Shelf", " BRD\n", "Body."}, texts)
}

func TestLocalStreamIsLazy(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		ndjson(w, `{"message":{"content":"x"},"done":true}`)
	}))
	defer ts.Close()

	s := localBackend(ts.URL).GenerateStream(context.Background(), testPayload())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	require.True(t, s.Next())
	assert.Equal(t, "x", s.Current().Text)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
	assert.NoError(t, s.Close())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLocalStreamErrorLine(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ndjson(w,
			`{"message":{"content":"one"},"done":false}`,
			`{"message":{"content":"two"},"done":false}`,
			`{"error":"out of memory"}`,
		)
	}))
	defer ts.Close()

	frags, err := drain(t, localBackend(ts.URL).GenerateStream(context.Background(), testPayload()))
	assert.Len(t, frags, 2)
	assert.ErrorIs(t, err, reqerr.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestLocalStreamTruncated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ndjson(w, `{"message":{"content":"partial"},"done":false}`)
	}))
	defer ts.Close()

	frags, err := drain(t, localBackend(ts.URL).GenerateStream(context.Background(), testPayload()))
	assert.Len(t, frags, 1)
	assert.ErrorIs(t, err, reqerr.ErrBackendUnavailable)
}

func TestLocalStreamMissingModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer ts.Close()

	frags, err := drain(t, localBackend(ts.URL).GenerateStream(context.Background(), testPayload()))
	assert.Empty(t, frags)
	assert.ErrorIs(t, err, reqerr.ErrBackendUnavailable)
}

func TestLocalStreamCancelled(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ndjson(w, `{"message":{"content":"first"},"done":false}`)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	s := localBackend(ts.URL).GenerateStream(ctx, testPayload())
	defer s.Close()

	require.True(t, s.Next())
	cancel()
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), context.Canceled)
	assert.False(t, reqerr.Classified(s.Err()))
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens("   "))
	assert.Equal(t, 1, ApproxTokens("word"))
	assert.Equal(t, 4, ApproxTokens("The system shall\nwork."))
	assert.Equal(t, 3, ApproxTokens(strings.Repeat("a ", 3)))
}
