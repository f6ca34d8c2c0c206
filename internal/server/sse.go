// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/requirements-engine/internal/relay"
)

// sseEmitter writes relay events as server-sent events, flushing after
// each one. Headers are sent with the first event.
type sseEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newSSEEmitter(w http.ResponseWriter) (*sseEmitter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported by response writer")
	}
	return &sseEmitter{w: w, flusher: f}, nil
}

type fragmentData struct {
	Text string `json:"text"`
}

type completedData struct {
	ArtifactID string `json:"artifact_id"`
}

func (e *sseEmitter) Fragment(text string) error {
	return e.send(relay.EventFragment, fragmentData{Text: text})
}

func (e *sseEmitter) Completed(artifactID string) error {
	return e.send(relay.EventCompleted, completedData{ArtifactID: artifactID})
}

func (e *sseEmitter) Failed(err error) error {
	return e.send(relay.EventError, newErrorBody(err))
}

func (e *sseEmitter) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	if !e.started {
		h := e.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}
