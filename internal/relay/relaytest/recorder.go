// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relaytest provides an in-memory relay.Emitter for tests.
package relaytest

import (
	"io"
	"sync"

	"github.com/pdiddy/requirements-engine/internal/relay"
)

// Event is one emitted event.
type Event struct {
	Kind       string
	Text       string
	ArtifactID string
	Err        error
}

// Recorder keeps every event in memory. RejectAfter, when positive, makes
// Fragment fail once that many fragments were taken.
type Recorder struct {
	RejectAfter int

	mu     sync.Mutex
	events []Event
	frags  int
}

var _ relay.Emitter = (*Recorder)(nil)

func (r *Recorder) Fragment(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RejectAfter > 0 && r.frags >= r.RejectAfter {
		return io.ErrClosedPipe
	}
	r.frags++
	r.events = append(r.events, Event{Kind: relay.EventFragment, Text: text})
	return nil
}

func (r *Recorder) Completed(artifactID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: relay.EventCompleted, ArtifactID: artifactID})
	return nil
}

func (r *Recorder) Failed(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: relay.EventError, Err: err})
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kind of every recorded event, in order.
func (r *Recorder) Kinds() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Kind)
	}
	return out
}
