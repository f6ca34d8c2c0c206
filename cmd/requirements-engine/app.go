// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/requirements-engine/internal/backend"
	"github.com/pdiddy/requirements-engine/internal/generate"
	"github.com/pdiddy/requirements-engine/internal/store"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

// app holds the components built from configuration for one command run.
type app struct {
	cfg    types.AppConfig
	db     *store.Store
	store  *store.Cached
	logger *log.Logger
}

// openApp loads configuration and opens the artifact store.
func openApp() (*app, error) {
	cfg := appConfig(viper.GetViper())

	db, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	cached, err := store.NewCached(db, cfg.Store.CacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &app{
		cfg:    cfg,
		db:     db,
		store:  cached,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// orchestrator builds the backends and the generation orchestrator.
func (a *app) orchestrator(ctx context.Context) (*generate.Orchestrator, error) {
	reg, err := backend.FromConfig(ctx, a.cfg.Backends, a.logger)
	if err != nil {
		return nil, err
	}
	return generate.New(reg, a.store, a.cfg.Generation, a.logger), nil
}

// output selects how results are printed.
type output struct {
	json bool
	yaml bool
}

func (o output) structured() bool { return o.json || o.yaml }

// print writes v as JSON or YAML. It reports false when neither was
// requested.
func (o output) print(w io.Writer, v any) (bool, error) {
	switch {
	case o.json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case o.yaml:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("encoding YAML: %w", err)
		}
		return true, enc.Close()
	}
	return false, nil
}
