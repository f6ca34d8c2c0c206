// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import (
	"fmt"
	"io"
)

// WriterEmitter prints fragments to W as they arrive, for terminal use.
// Terminal events are left to the caller.
type WriterEmitter struct {
	W io.Writer
}

func (e WriterEmitter) Fragment(text string) error {
	_, err := io.WriteString(e.W, text)
	return err
}

func (e WriterEmitter) Completed(string) error {
	_, err := fmt.Fprintln(e.W)
	return err
}

func (e WriterEmitter) Failed(error) error {
	_, err := fmt.Fprintln(e.W)
	return err
}
