// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/pdiddy/requirements-engine/internal/httputil"
	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIBackend is the cloud backend for OpenAI and OpenAI-compatible
// endpoints. The SDK's own retry loop is disabled.
type OpenAIBackend struct {
	client  openai.Client
	model   string
	timeout time.Duration
	keyless bool
}

// NewOpenAIBackend builds the backend from cfg. A missing API key is not an
// error here; every call then fails with reqerr.ErrBackendAuth.
func NewOpenAIBackend(cfg types.CloudBackendConfig) *OpenAIBackend {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, option.WithHeader("User-Agent", cfg.UserAgent))
	}
	return &OpenAIBackend{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: cfg.Timeout,
		keyless: strings.TrimSpace(cfg.APIKey) == "",
	}
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() types.BackendChoice { return types.BackendCloud }

var errMissingOpenAIKey = reqerr.New(reqerr.ErrBackendAuth,
	"cloud API key is not configured; set backends.cloud.api_key or .secrets/openai-api-key")

func (b *OpenAIBackend) params(p prompt.Payload) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System()),
			openai.UserMessage(p.User()),
		},
	}
}

// Generate performs a blocking chat completion.
func (b *OpenAIBackend) Generate(ctx context.Context, p prompt.Payload) (Result, error) {
	if b.keyless {
		return Result{}, errMissingOpenAIKey
	}
	ctx, cancel := callContext(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.Chat.Completions.New(ctx, b.params(p))
	if err != nil {
		return Result{}, classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, reqerr.New(reqerr.ErrBackendUnavailable, "openai: empty choices")
	}
	return Result{
		Content: resp.Choices[0].Message.Content,
		Backend: types.BackendCloud,
		Model:   orDefault(resp.Model, b.model),
		Tokens:  int(resp.Usage.TotalTokens),
	}, nil
}

// GenerateStream starts a streaming chat completion.
func (b *OpenAIBackend) GenerateStream(ctx context.Context, p prompt.Payload) Stream {
	if b.keyless {
		return errStream{err: errMissingOpenAIKey}
	}
	callCtx, cancel := callContext(ctx, b.timeout)
	return &openaiStream{
		ctx:    ctx,
		stream: b.client.Chat.Completions.NewStreaming(callCtx, b.params(p)),
		cancel: cancel,
		model:  b.model,
	}
}

type openaiStream struct {
	ctx    context.Context
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	cancel context.CancelFunc
	model  string
	// finished is set once a chunk carries a finish_reason.
	finished bool
	cur      Fragment
	err      error
}

func (s *openaiStream) Next() bool {
	if s.err != nil {
		return false
	}
	for s.stream.Next() {
		chunk := s.stream.Current()
		if chunk.Model != "" {
			s.model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if chunk.Choices[0].FinishReason != "" {
			s.finished = true
		}
		if chunk.Choices[0].Delta.Content == "" {
			continue
		}
		s.cur = Fragment{Text: chunk.Choices[0].Delta.Content, Backend: types.BackendCloud, Model: s.model}
		return true
	}
	switch err := s.stream.Err(); {
	case s.ctx.Err() != nil:
		s.err = s.ctx.Err()
	case err != nil:
		s.err = classifyOpenAI(err)
	case !s.finished:
		s.err = reqerr.New(reqerr.ErrBackendUnavailable, "openai stream ended before completion")
	}
	return false
}

func (s *openaiStream) Current() Fragment { return s.cur }
func (s *openaiStream) Err() error        { return s.err }

func (s *openaiStream) Close() error {
	err := s.stream.Close()
	s.cancel()
	return err
}

// classifyOpenAI maps SDK errors onto the taxonomy.
func classifyOpenAI(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		kind := httputil.KindForStatus(apiErr.StatusCode)
		if apiErr.StatusCode == http.StatusBadRequest && apiErr.Code == "insufficient_quota" {
			kind = reqerr.ErrBackendQuota
		}
		return reqerr.Wrap(kind, fmt.Errorf("openai: %w", err))
	}
	return httputil.TransportError(fmt.Errorf("openai: %w", err))
}
