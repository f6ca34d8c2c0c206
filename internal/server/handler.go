// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/pdiddy/requirements-engine/internal/relay"
	"github.com/pdiddy/requirements-engine/internal/reqerr"
	"github.com/pdiddy/requirements-engine/internal/store"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

const maxRequestBytes = 1 << 20

// Generator runs generation requests.
type Generator interface {
	Run(ctx context.Context, req types.GenerationRequest) (*types.Artifact, error)
	RunStreaming(ctx context.Context, req types.GenerationRequest, e relay.Emitter) (*types.Artifact, error)
}

// Reader is the read side of the artifact store.
type Reader interface {
	Get(ctx context.Context, id string) (*types.Artifact, error)
	Children(ctx context.Context, id string) ([]types.Artifact, error)
	Lineage(ctx context.Context, id string) ([]types.Artifact, error)
	List(ctx context.Context, opts store.ListOptions) ([]types.Artifact, error)
	Audit(ctx context.Context, artifactID string) (*types.AuditRecord, error)
	Usage(ctx context.Context) ([]types.UsageSummary, error)
}

// Handler serves the artifact API.
type Handler struct {
	gen   Generator
	store Reader
	log   *log.Logger
}

// NewHandler returns the API handler. A nil logger uses log.Default().
func NewHandler(gen Generator, st Reader, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{gen: gen, store: st, log: logger}
}

// Routes returns the API mux wrapped with caller identity and request
// logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/artifacts/generate", h.handleGenerate)
	mux.HandleFunc("POST /api/artifacts/generate/stream", h.handleGenerateStream)
	mux.HandleFunc("GET /api/artifacts", h.handleList)
	mux.HandleFunc("GET /api/artifacts/{id}", h.handleGet)
	mux.HandleFunc("GET /api/artifacts/{id}/children", h.handleChildren)
	mux.HandleFunc("GET /api/artifacts/{id}/lineage", h.handleLineage)
	mux.HandleFunc("GET /api/artifacts/{id}/audit", h.handleAudit)
	mux.HandleFunc("GET /api/usage", h.handleUsage)
	return logRequests(h.log, withCaller(mux))
}

// generateRequest is the wire form of types.GenerationRequest. raw_input
// is free text (quick), an artifact id (derived) or a form object
// (guided).
type generateRequest struct {
	ArtifactKind     types.ArtifactKind     `json:"artifact_kind"`
	InputMode        types.InputMode        `json:"input_mode"`
	RawInput         json.RawMessage        `json:"raw_input"`
	TemplateStandard types.TemplateStandard `json:"template_standard"`
	OutputLanguage   string                 `json:"output_language"`
	ProcessStyle     types.ProcessStyle     `json:"process_style"`
	Backend          types.BackendChoice    `json:"backend"`
	SourceArtifactID string                 `json:"source_artifact_id"`
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (types.GenerationRequest, error) {
	var wire generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return types.GenerationRequest{}, reqerr.Wrap(reqerr.ErrInvalidInput, fmt.Errorf("decoding request: %w", err))
	}

	req := types.GenerationRequest{
		ArtifactKind:     wire.ArtifactKind,
		InputMode:        wire.InputMode,
		TemplateStandard: wire.TemplateStandard,
		OutputLanguage:   wire.OutputLanguage,
		ProcessStyle:     wire.ProcessStyle,
		Backend:          wire.Backend,
		SourceArtifactID: wire.SourceArtifactID,
	}

	raw := bytes.TrimSpace(wire.RawInput)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &req.RawInput.Text); err != nil {
			return types.GenerationRequest{}, reqerr.Wrap(reqerr.ErrInvalidInput, fmt.Errorf("decoding raw_input: %w", err))
		}
	case raw[0] == '{':
		var form types.GuidedForm
		if err := json.Unmarshal(raw, &form); err != nil {
			return types.GenerationRequest{}, reqerr.Wrap(reqerr.ErrInvalidInput, fmt.Errorf("decoding raw_input form: %w", err))
		}
		req.RawInput.Form = &form
	default:
		return types.GenerationRequest{}, reqerr.New(reqerr.ErrInvalidInput, "raw_input must be a string or an object")
	}
	return req, nil
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := h.gen.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := newSSEEmitter(w)
	if err != nil {
		writeError(w, err)
		return
	}
	// Every outcome has already been reported on the stream.
	_, _ = h.gen.RunStreaming(r.Context(), req, e)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOptions{
		Kind:      types.ArtifactKind(q.Get("kind")),
		CreatedBy: q.Get("created_by"),
	}
	if opts.Kind != "" && !opts.Kind.Valid() {
		writeError(w, reqerr.New(reqerr.ErrInvalidInput, "unknown artifact kind %q", opts.Kind))
		return
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, reqerr.New(reqerr.ErrInvalidInput, "limit must be a non-negative integer"))
			return
		}
		opts.Limit = n
	}
	list, err := h.store.List(r.Context(), opts)
	respond(w, nonNil(list), err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Get(r.Context(), r.PathValue("id"))
	respond(w, a, err)
}

func (h *Handler) handleChildren(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.store.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	children, err := h.store.Children(r.Context(), id)
	respond(w, nonNil(children), err)
}

func (h *Handler) handleLineage(w http.ResponseWriter, r *http.Request) {
	chain, err := h.store.Lineage(r.Context(), r.PathValue("id"))
	respond(w, chain, err)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Audit(r.Context(), r.PathValue("id"))
	respond(w, rec, err)
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.store.Usage(r.Context())
	respond(w, nonNil(usage), err)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// errorBody is the JSON error shape shared by responses and SSE error
// events.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorBody(err error) errorBody {
	return errorBody{Code: reqerr.Code(err), Message: err.Error()}
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, reqerr.ErrInvalidInput), errors.Is(err, reqerr.ErrWrongArtifactKind):
		return http.StatusBadRequest
	case errors.Is(err, reqerr.ErrNotFound), errors.Is(err, reqerr.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, reqerr.ErrBackendAuth):
		return http.StatusBadGateway
	case errors.Is(err, reqerr.ErrBackendQuota):
		return http.StatusTooManyRequests
	case errors.Is(err, reqerr.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), newErrorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
