// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/pdiddy/requirements-engine/internal/httputil"
	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend is the cloud backend for the Gemini API.
type GeminiBackend struct {
	client  *genai.Client
	model   string
	timeout time.Duration

	// initErr is returned by every call when the client could not be built.
	initErr error
}

// NewGeminiBackend builds the backend from cfg. Client construction errors
// (typically a missing key) surface on each call as reqerr.ErrBackendAuth.
func NewGeminiBackend(ctx context.Context, cfg types.CloudBackendConfig) *GeminiBackend {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	b := &GeminiBackend{model: model, timeout: cfg.Timeout}

	if strings.TrimSpace(cfg.APIKey) == "" {
		b.initErr = reqerr.New(reqerr.ErrBackendAuth,
			"cloud API key is not configured; set backends.cloud.api_key or .secrets/gemini-api-key")
		return b
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		b.initErr = reqerr.Wrap(reqerr.ErrBackendAuth, fmt.Errorf("gemini: creating client: %w", err))
		return b
	}
	b.client = client
	return b
}

// Name returns the backend identifier.
func (b *GeminiBackend) Name() types.BackendChoice { return types.BackendCloud }

func geminiConfig(p prompt.Payload) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System(), genai.RoleUser),
	}
}

// Generate performs a blocking generateContent call.
func (b *GeminiBackend) Generate(ctx context.Context, p prompt.Payload) (Result, error) {
	if b.initErr != nil {
		return Result{}, b.initErr
	}
	ctx, cancel := callContext(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(p.User()), geminiConfig(p))
	if err != nil {
		return Result{}, classifyGemini(err)
	}
	res := Result{
		Content: resp.Text(),
		Backend: types.BackendCloud,
		Model:   orDefault(resp.ModelVersion, b.model),
	}
	if resp.UsageMetadata != nil {
		res.Tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return res, nil
}

// GenerateStream starts a streaming generateContent call. The SDK's push
// iterator is converted to a pull stream; Close stops it.
func (b *GeminiBackend) GenerateStream(ctx context.Context, p prompt.Payload) Stream {
	if b.initErr != nil {
		return errStream{err: b.initErr}
	}
	callCtx, cancel := callContext(ctx, b.timeout)
	seq := b.client.Models.GenerateContentStream(callCtx, b.model, genai.Text(p.User()), geminiConfig(p))
	next, stop := iter.Pull2(seq)
	return &geminiStream{ctx: ctx, next: next, stop: stop, cancel: cancel, model: b.model}
}

type geminiStream struct {
	ctx    context.Context
	next   func() (*genai.GenerateContentResponse, error, bool)
	stop   func()
	cancel context.CancelFunc
	model  string
	done   bool
	// finished is set once a candidate carries a finish reason.
	finished bool
	cur      Fragment
	err      error
}

func (s *geminiStream) Next() bool {
	for !s.done {
		resp, err, ok := s.next()
		if !ok {
			s.done = true
			switch {
			case s.ctx.Err() != nil:
				s.err = s.ctx.Err()
			case !s.finished:
				s.err = reqerr.New(reqerr.ErrBackendUnavailable, "gemini stream ended before completion")
			}
			return false
		}
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			s.err = classifyGemini(err)
			s.done = true
			return false
		}
		if resp == nil {
			continue
		}
		if resp.ModelVersion != "" {
			s.model = resp.ModelVersion
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].FinishReason != "" {
			s.finished = true
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		s.cur = Fragment{Text: text, Backend: types.BackendCloud, Model: s.model}
		return true
	}
	return false
}

func (s *geminiStream) Current() Fragment { return s.cur }
func (s *geminiStream) Err() error        { return s.err }

func (s *geminiStream) Close() error {
	s.done = true
	s.stop()
	s.cancel()
	return nil
}

// classifyGemini maps SDK errors onto the taxonomy.
func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := httputil.KindForStatus(apiErr.Code)
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			kind = reqerr.ErrBackendQuota
		}
		return reqerr.Wrap(kind, fmt.Errorf("gemini: %w", err))
	}
	return httputil.TransportError(fmt.Errorf("gemini: %w", err))
}
