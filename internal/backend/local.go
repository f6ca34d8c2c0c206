// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/requirements-engine/internal/httputil"
	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

const (
	defaultLocalURL   = "http://localhost:11434"
	defaultLocalModel = "llama3.1"

	// maxLineBytes bounds one NDJSON line of a streamed response.
	maxLineBytes = 1 << 20
)

// LocalBackend calls a locally hosted, Ollama-compatible inference server
// through its /api/chat endpoint. Usage is unmetered; the only failures are
// connectivity and a missing model.
type LocalBackend struct {
	BaseURL   string
	Model     string
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client
}

// NewLocalBackend builds a LocalBackend from cfg, applying defaults.
func NewLocalBackend(cfg types.LocalBackendConfig) *LocalBackend {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultLocalURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultLocalModel
	}
	return &LocalBackend{
		BaseURL:   baseURL,
		Model:     model,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Client:    http.DefaultClient,
	}
}

// Name returns the backend identifier.
func (b *LocalBackend) Name() types.BackendChoice { return types.BackendLocal }

// chatRequest is the request body for /api/chat.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatChunk is one /api/chat response object; a blocking call returns one,
// a streaming call returns one per line.
type chatChunk struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error"`
}

func (b *LocalBackend) post(ctx context.Context, p prompt.Payload, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System()},
			{Role: "user", Content: p.User()},
		},
		Stream: stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, httputil.TransportError(fmt.Errorf("calling local backend: %w", err))
	}
	// Every non-2xx answer from a local server (404 for an unpulled model,
	// 5xx while loading) means the backend cannot serve the call.
	if err := httputil.ResponseError(resp); err != nil {
		return nil, reqerr.Wrap(reqerr.ErrBackendUnavailable, fmt.Errorf("local backend: %w", err))
	}
	return resp, nil
}

// Generate performs a blocking chat call.
func (b *LocalBackend) Generate(ctx context.Context, p prompt.Payload) (Result, error) {
	ctx, cancel := callContext(ctx, b.Timeout)
	defer cancel()

	resp, err := b.post(ctx, p, false)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	var chunk chatChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return Result{}, httputil.TransportError(fmt.Errorf("decoding local response: %w", err))
	}
	if chunk.Error != "" {
		return Result{}, reqerr.New(reqerr.ErrBackendUnavailable, "local backend: %s", chunk.Error)
	}
	return Result{
		Content: chunk.Message.Content,
		Backend: types.BackendLocal,
		Model:   orDefault(chunk.Model, b.Model),
		Tokens:  chunk.PromptEvalCount + chunk.EvalCount,
	}, nil
}

// GenerateStream starts a streaming chat call on the first Next.
func (b *LocalBackend) GenerateStream(ctx context.Context, p prompt.Payload) Stream {
	return &localStream{backend: b, ctx: ctx, payload: p}
}

type localStream struct {
	backend *LocalBackend
	ctx     context.Context
	payload prompt.Payload

	started  bool
	finished bool
	cancel   context.CancelFunc
	resp     *http.Response
	scanner  *bufio.Scanner
	cur      Fragment
	err      error
}

func (s *localStream) Next() bool {
	if s.finished {
		return false
	}
	if !s.started {
		s.started = true
		if !s.open() {
			return false
		}
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return s.fail(reqerr.Wrap(reqerr.ErrBackendUnavailable, fmt.Errorf("decoding stream line: %w", err)))
		}
		if chunk.Error != "" {
			return s.fail(reqerr.New(reqerr.ErrBackendUnavailable, "local backend: %s", chunk.Error))
		}
		if chunk.Done {
			s.finished = true
		}
		if chunk.Message.Content == "" {
			if s.finished {
				return false
			}
			continue
		}
		s.cur = Fragment{
			Text:    chunk.Message.Content,
			Backend: types.BackendLocal,
			Model:   orDefault(chunk.Model, s.backend.Model),
		}
		return true
	}

	if err := s.scanner.Err(); err != nil {
		return s.fail(httputil.TransportError(fmt.Errorf("reading local stream: %w", err)))
	}
	// The server closed the body without a done marker: the output is
	// truncated and must not be treated as complete.
	return s.fail(reqerr.New(reqerr.ErrBackendUnavailable, "local stream ended before completion"))
}

func (s *localStream) open() bool {
	ctx, cancel := callContext(s.ctx, s.backend.Timeout)
	s.cancel = cancel
	resp, err := s.backend.post(ctx, s.payload, true)
	if err != nil {
		return s.fail(err)
	}
	s.resp = resp
	s.scanner = bufio.NewScanner(resp.Body)
	s.scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return true
}

func (s *localStream) fail(err error) bool {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	s.err = err
	s.finished = true
	return false
}

func (s *localStream) Current() Fragment { return s.cur }
func (s *localStream) Err() error        { return s.err }

func (s *localStream) Close() error {
	s.finished = true
	var err error
	if s.resp != nil {
		err = s.resp.Body.Close()
		s.resp = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	return err
}
