// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"log"

	"github.com/pdiddy/requirements-engine/internal/prompt"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// WithLogging wraps b to log request size and errors. A nil logger uses
// log.Default().
func WithLogging(b Backend, logger *log.Logger) Backend {
	if logger == nil {
		logger = log.Default()
	}
	return &logging{next: b, log: logger}
}

type logging struct {
	next Backend
	log  *log.Logger
}

func (l *logging) Name() types.BackendChoice { return l.next.Name() }

func (l *logging) Generate(ctx context.Context, p prompt.Payload) (Result, error) {
	l.log.Printf("backend request (%s): %d bytes", l.next.Name(), len(p.System())+len(p.User()))
	res, err := l.next.Generate(ctx, p)
	if err != nil {
		l.log.Printf("backend error (%s): %v", l.next.Name(), err)
	}
	return res, err
}

func (l *logging) GenerateStream(ctx context.Context, p prompt.Payload) Stream {
	l.log.Printf("backend stream request (%s): %d bytes", l.next.Name(), len(p.System())+len(p.User()))
	return &loggedStream{Stream: l.next.GenerateStream(ctx, p), name: l.next.Name(), log: l.log}
}

type loggedStream struct {
	Stream
	name   types.BackendChoice
	log    *log.Logger
	logged bool
}

func (s *loggedStream) Next() bool {
	if s.Stream.Next() {
		return true
	}
	if err := s.Stream.Err(); err != nil && !s.logged {
		s.logged = true
		s.log.Printf("backend stream error (%s): %v", s.name, err)
	}
	return false
}
