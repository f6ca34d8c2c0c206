// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the generation backends.
// Backends never retry: a failed call is classified once and returned.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/requirements-engine/internal/reqerr"
)

// ErrorBodyLimit caps how much of an error response body is read into the
// error message.
var ErrorBodyLimit int64 = 4096

// KindForStatus maps an HTTP status code to a taxonomy kind.
func KindForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return reqerr.ErrBackendAuth
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return reqerr.ErrBackendQuota
	}
	return reqerr.ErrBackendUnavailable
}

// ResponseError returns nil for a 2xx response. Otherwise it drains up to
// ErrorBodyLimit bytes of the body, closes it, and returns an unclassified
// error carrying the status and body.
func ResponseError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, ErrorBodyLimit))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
}

// TransportError classifies a failure to complete an HTTP exchange.
// Cancellation by the caller is returned unchanged so it is never mistaken
// for a backend fault; everything else means the backend is unreachable.
func TransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || reqerr.Classified(err) {
		return err
	}
	return reqerr.Wrap(reqerr.ErrBackendUnavailable, err)
}
