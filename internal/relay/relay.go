// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relay drives one streaming generation: it forwards backend
// fragments to an Emitter in order, accumulates the document body, and
// owns the request's state machine so that exactly one terminal event is
// emitted.
// Implements: docs/ARCHITECTURE § Streaming Relay.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/requirements-engine/internal/backend"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// Event kinds on the streaming channel.
const (
	EventFragment  = "content-fragment"
	EventCompleted = "completed"
	EventError     = "error"
)

// State is a step of a streaming request.
type State int

const (
	Idle State = iota
	Validating
	Compiling
	Streaming
	Finalizing
	Completed
	Failed
)

var stateNames = [...]string{"idle", "validating", "compiling", "streaming", "finalizing", "completed", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Completed || s == Failed }

// next lists the forward transition out of each non-terminal state.
// Failed is reachable from all of them.
var next = map[State]State{
	Idle:       Validating,
	Validating: Compiling,
	Compiling:  Streaming,
	Streaming:  Finalizing,
	Finalizing: Completed,
}

var (
	// ErrFinalized is returned by terminal calls after the first one.
	ErrFinalized = errors.New("relay: request already finalized")

	// ErrDisconnected reports that the emitter refused a fragment, which
	// means the caller is gone.
	ErrDisconnected = errors.New("relay: caller disconnected")
)

// Emitter receives the events of one request. A non-nil error from
// Fragment stops the relay.
type Emitter interface {
	Fragment(text string) error
	Completed(artifactID string) error
	Failed(err error) error
}

// Relay is the state of one streaming request.
type Relay struct {
	emitter Emitter

	mu      sync.Mutex
	state   State
	body    strings.Builder
	backend types.BackendChoice
	model   string
}

// New returns a relay in state Idle.
func New(e Emitter) *Relay {
	return &Relay{emitter: e}
}

// State returns the current state.
func (r *Relay) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Advance moves to the given state. Only the forward transition and Failed
// are legal; Completed and Failed are reached through Complete and Fail.
func (r *Relay) Advance(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advance(to)
}

func (r *Relay) advance(to State) error {
	if r.state.Terminal() {
		return ErrFinalized
	}
	if to != Failed && next[r.state] != to {
		return fmt.Errorf("relay: illegal transition %s -> %s", r.state, to)
	}
	r.state = to
	return nil
}

// Pump drains s, forwarding each non-empty fragment to the emitter and
// appending it to the body. The stream is always closed.
//
// A nil return means the stream ended cleanly and the relay is Finalizing.
// A backend error is returned with the relay still Streaming so the caller
// can Fail it. Cancellation of ctx or a refused fragment moves the relay
// straight to Failed without emitting anything and returns the cause.
func (r *Relay) Pump(ctx context.Context, s backend.Stream) error {
	defer s.Close()

	if st := r.State(); st != Streaming {
		return fmt.Errorf("relay: pump in state %s", st)
	}

	for s.Next() {
		if err := ctx.Err(); err != nil {
			return r.abort(err)
		}
		frag := s.Current()
		if frag.Text == "" {
			continue
		}
		if err := r.emitter.Fragment(frag.Text); err != nil {
			return r.abort(fmt.Errorf("%w: %w", ErrDisconnected, err))
		}
		r.mu.Lock()
		r.body.WriteString(frag.Text)
		r.backend = frag.Backend
		if frag.Model != "" {
			r.model = frag.Model
		}
		r.mu.Unlock()
	}

	if err := ctx.Err(); err != nil {
		return r.abort(err)
	}
	if err := s.Err(); err != nil {
		return err
	}
	return r.Advance(Finalizing)
}

func (r *Relay) abort(cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Terminal() {
		r.state = Failed
	}
	return cause
}

// Body returns the text accumulated so far.
func (r *Relay) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

// Source returns the backend and model reported by the last fragment.
func (r *Relay) Source() (types.BackendChoice, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend, r.model
}

// Complete emits the completed event for artifactID. It is legal only in
// Finalizing and only once.
func (r *Relay) Complete(artifactID string) error {
	r.mu.Lock()
	if err := r.advance(Completed); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()
	return r.emitter.Completed(artifactID)
}

// Fail emits the error event for err and moves to Failed. After any
// terminal call it returns ErrFinalized and emits nothing.
func (r *Relay) Fail(err error) error {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return ErrFinalized
	}
	r.state = Failed
	r.mu.Unlock()
	return r.emitter.Failed(err)
}
