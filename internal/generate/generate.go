// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate orchestrates one generation request: validate,
// normalize, compile, invoke a backend, title the result and persist the
// Artifact with its AuditRecord.
//
// Run is the blocking convention. RunStreaming forwards fragments through a
// relay.Relay and persists only after the backend stream ended without
// error.
// Implements: docs/ARCHITECTURE § Generation, § Streaming Relay.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/requirements-engine/internal/backend"
	"github.com/pdiddy/requirements-engine/internal/caller"
	"github.com/pdiddy/requirements-engine/internal/document"
	"github.com/pdiddy/requirements-engine/internal/normalize"
	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/internal/relay"
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Store is the part of the artifact store the orchestrator needs.
type Store interface {
	normalize.Lookup
	CreateWithAudit(ctx context.Context, a *types.Artifact, r *types.AuditRecord) error
}

// Orchestrator runs generation requests. It holds no per-request state and
// is safe for concurrent use.
type Orchestrator struct {
	backends backend.Registry
	store    Store
	defaults types.GenerationConfig
	log      *log.Logger

	now   func() time.Time
	newID func() string
}

// New returns an orchestrator over the given backends and store. Empty
// request fields are filled from defaults. A nil logger uses log.Default().
func New(backends backend.Registry, store Store, defaults types.GenerationConfig, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		backends: backends,
		store:    store,
		defaults: defaults.WithDefaults(),
		log:      logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// plan is everything resolved before the backend is called.
type plan struct {
	req     types.GenerationRequest
	input   normalize.Input
	payload prompt.Payload
	backend backend.Backend
}

func (o *Orchestrator) applyDefaults(req types.GenerationRequest) types.GenerationRequest {
	if req.TemplateStandard == "" {
		req.TemplateStandard = o.defaults.DefaultStandard
	}
	if req.ProcessStyle == "" {
		req.ProcessStyle = o.defaults.DefaultStyle
	}
	if req.OutputLanguage == "" {
		req.OutputLanguage = o.defaults.DefaultLanguage
	}
	if req.Backend == "" {
		req.Backend = o.defaults.DefaultBackend
	}
	return req
}

// validate checks the request shape and resolves the backend.
func (o *Orchestrator) validate(req types.GenerationRequest) (backend.Backend, error) {
	if err := normalize.Validate(req); err != nil {
		return nil, err
	}
	return o.backends.Lookup(req.Backend)
}

// compile normalizes the input (reading the source artifact in derived
// mode) and builds the prompt.
func (o *Orchestrator) compile(ctx context.Context, req types.GenerationRequest) (normalize.Input, prompt.Payload, error) {
	in, err := normalize.Normalize(ctx, req, o.store)
	if err != nil {
		return nil, prompt.Payload{}, err
	}
	payload := prompt.Compile(in, prompt.Options{
		Standard: req.TemplateStandard,
		Language: req.OutputLanguage,
		Style:    req.ProcessStyle,
	})
	return in, payload, nil
}

// Run generates and persists one artifact, blocking until the backend
// returns.
func (o *Orchestrator) Run(ctx context.Context, req types.GenerationRequest) (*types.Artifact, error) {
	req = o.applyDefaults(req)
	o.started(req, false)

	b, err := o.validate(req)
	if err != nil {
		return nil, o.failed(req, err)
	}
	in, payload, err := o.compile(ctx, req)
	if err != nil {
		return nil, o.failed(req, err)
	}

	res, err := b.Generate(ctx, payload)
	if err != nil {
		return nil, o.failed(req, err)
	}

	a, err := o.finish(ctx, plan{req: req, input: in, payload: payload, backend: b}, res)
	if err != nil {
		return nil, o.failed(req, err)
	}
	return a, nil
}

// RunStreaming generates one artifact, forwarding fragments to e as they
// arrive. It emits exactly one terminal event unless the caller went away
// (ctx cancelled or e refused a fragment), in which case it emits none.
// The artifact is persisted only when the backend stream ended cleanly.
func (o *Orchestrator) RunStreaming(ctx context.Context, req types.GenerationRequest, e relay.Emitter) (*types.Artifact, error) {
	req = o.applyDefaults(req)
	o.started(req, true)
	r := relay.New(e)

	fail := func(err error) (*types.Artifact, error) {
		if ferr := r.Fail(err); ferr != nil && !errors.Is(ferr, relay.ErrFinalized) {
			o.log.Printf("generation: emitting error event: %v", ferr)
		}
		return nil, o.failed(req, err)
	}

	if err := r.Advance(relay.Validating); err != nil {
		return fail(err)
	}
	b, err := o.validate(req)
	if err != nil {
		return fail(err)
	}

	if err := r.Advance(relay.Compiling); err != nil {
		return fail(err)
	}
	in, payload, err := o.compile(ctx, req)
	if err != nil {
		return fail(err)
	}

	if err := r.Advance(relay.Streaming); err != nil {
		return fail(err)
	}
	if err := r.Pump(ctx, b.GenerateStream(ctx, payload)); err != nil {
		if r.State() == relay.Failed {
			o.log.Printf("generation cancelled: kind=%s backend=%s: %v", req.ArtifactKind, req.Backend, err)
			return nil, err
		}
		return fail(err)
	}

	used, model := r.Source()
	if used == "" {
		used = b.Name()
	}
	a, err := o.finish(ctx, plan{req: req, input: in, payload: payload, backend: b},
		backend.Result{Content: r.Body(), Backend: used, Model: model})
	if err != nil {
		return fail(err)
	}

	if err := r.Complete(a.ID); err != nil {
		o.log.Printf("generation: emitting completed event for %s: %v", a.ID, err)
	}
	return a, nil
}

// finish titles the body and persists the artifact with its audit record.
// The write ignores cancellation of ctx: a complete document is always
// persisted.
func (o *Orchestrator) finish(ctx context.Context, p plan, res backend.Result) (*types.Artifact, error) {
	if res.Content == "" {
		return nil, reqerr.New(reqerr.ErrBackendUnavailable, "%s backend returned no content", p.backend.Name())
	}
	kind := p.input.Kind()
	now := o.now().UTC()

	a := &types.Artifact{
		ID:               o.newID(),
		Kind:             kind,
		Title:            document.TitleOr(res.Content, kind.DefaultTitle()),
		Body:             res.Content,
		TemplateStandard: p.req.TemplateStandard,
		ProcessStyle:     p.req.ProcessStyle,
		OutputLanguage:   p.req.OutputLanguage,
		CreatedBy:        caller.ID(ctx),
		CreatedAt:        now,
	}
	if src := normalize.SourceOf(p.input); src != nil {
		a.SourceArtifactID = src.ID
	}

	tokens := res.Tokens
	if tokens <= 0 {
		tokens = backend.ApproxTokens(p.payload.Text()) + backend.ApproxTokens(res.Content)
	}
	used := res.Backend
	if used == "" {
		used = p.backend.Name()
	}
	record := &types.AuditRecord{
		ArtifactID:   a.ID,
		InputMode:    p.input.Mode(),
		InputDigest:  p.payload.Digest(),
		Backend:      used,
		Model:        res.Model,
		ApproxTokens: tokens,
		Sections:     len(document.Outline(res.Content)),
		CreatedAt:    now,
	}

	if err := o.store.CreateWithAudit(context.WithoutCancel(ctx), a, record); err != nil {
		if reqerr.Classified(err) {
			return nil, err
		}
		return nil, reqerr.Wrap(reqerr.ErrPersistence, fmt.Errorf("persisting artifact %s: %w", a.ID, err))
	}

	o.log.Printf("generation completed: id=%s kind=%s backend=%s model=%s tokens=%d",
		a.ID, a.Kind, record.Backend, record.Model, record.ApproxTokens)
	return a, nil
}

func (o *Orchestrator) started(req types.GenerationRequest, streaming bool) {
	o.log.Printf("generation started: kind=%s mode=%s backend=%s streaming=%t",
		req.ArtifactKind, req.InputMode, req.Backend, streaming)
}

func (o *Orchestrator) failed(req types.GenerationRequest, err error) error {
	o.log.Printf("generation failed: kind=%s backend=%s code=%s: %v",
		req.ArtifactKind, req.Backend, reqerr.Code(err), err)
	return err
}
