// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/requirements-engine/internal/caller"
	"github.com/pdiddy/requirements-engine/internal/relay"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate [text...]",
	Short: "Generate a requirements document",
	Long: `Generate produces one Business (B), System (S) or Functional (F)
requirements document and stores it with its audit record.

The input mode follows from the flags: positional text is quick mode,
--form reads a guided-form YAML file, and --source derives the document
from an existing artifact (S from a B, F from an S).

With --stream the document is printed as it is generated; it is stored
only if generation finishes without error.`,
	RunE: runGenerate,
}

// generateOptions are the generate flags.
type generateOptions struct {
	kind     string
	text     string
	formPath string
	source   string
	standard string
	style    string
	language string
	backend  string
}

// request builds the generation request. Empty enum fields are left for
// the orchestrator's defaults.
func (o generateOptions) request() (types.GenerationRequest, error) {
	req := types.GenerationRequest{
		ArtifactKind:     types.ArtifactKind(strings.ToUpper(o.kind)),
		TemplateStandard: types.TemplateStandard(strings.ToLower(o.standard)),
		ProcessStyle:     types.ProcessStyle(strings.ToLower(o.style)),
		OutputLanguage:   o.language,
		Backend:          types.BackendChoice(strings.ToLower(o.backend)),
	}

	set := 0
	for _, s := range []string{o.text, o.formPath, o.source} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return types.GenerationRequest{}, fmt.Errorf("use only one of text, --form or --source")
	}

	switch {
	case o.formPath != "":
		form, err := loadForm(o.formPath)
		if err != nil {
			return types.GenerationRequest{}, err
		}
		req.InputMode = types.ModeGuided
		req.RawInput.Form = form
	case o.source != "":
		req.InputMode = types.ModeDerived
		req.SourceArtifactID = o.source
	default:
		req.InputMode = types.ModeQuick
		req.RawInput.Text = o.text
	}
	return req, nil
}

// loadForm reads a guided form from a YAML file.
func loadForm(path string) (*types.GuidedForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading form %s: %w", path, err)
	}
	var form types.GuidedForm
	if err := yaml.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("parsing form %s: %w", path, err)
	}
	return &form, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts := generateOptions{text: strings.Join(args, " ")}
	opts.kind, _ = cmd.Flags().GetString("kind")
	opts.formPath, _ = cmd.Flags().GetString("form")
	opts.source, _ = cmd.Flags().GetString("source")
	opts.standard, _ = cmd.Flags().GetString("standard")
	opts.style, _ = cmd.Flags().GetString("style")
	opts.language, _ = cmd.Flags().GetString("language")
	opts.backend, _ = cmd.Flags().GetString("backend")
	stream, _ := cmd.Flags().GetBool("stream")
	callerID, _ := cmd.Flags().GetString("caller")
	out := outputFlags(cmd)

	req, err := opts.request()
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if callerID != "" {
		ctx = caller.WithID(ctx, callerID)
	}

	orch, err := a.orchestrator(ctx)
	if err != nil {
		return err
	}

	var art *types.Artifact
	if stream && !out.structured() {
		art, err = orch.RunStreaming(ctx, req, relay.WriterEmitter{W: os.Stdout})
	} else {
		art, err = orch.Run(ctx, req)
	}
	if err != nil {
		return err
	}

	if ok, err := out.print(os.Stdout, art); ok {
		return err
	}
	if !stream {
		fmt.Fprintln(os.Stdout, art.Body)
	}
	fmt.Fprintf(os.Stderr, "created %s %s: %s\n", art.Kind.DocumentName(), art.ID, art.Title)
	return nil
}

// outputFlags reads the shared --json and --yaml flags.
func outputFlags(cmd *cobra.Command) output {
	j, _ := cmd.Flags().GetBool("json")
	y, _ := cmd.Flags().GetBool("yaml")
	return output{json: j, yaml: y}
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "output as JSON")
	cmd.Flags().Bool("yaml", false, "output as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func init() {
	generateCmd.Flags().String("kind", "B", "artifact kind: B, S or F")
	generateCmd.Flags().String("form", "", "guided-form YAML file (guided mode)")
	generateCmd.Flags().String("source", "", "source artifact id (derived mode)")
	generateCmd.Flags().String("standard", "", "template standard: ieee, babok or volere (default from config)")
	generateCmd.Flags().String("style", "", "process style: waterfall or agile (default from config)")
	generateCmd.Flags().String("language", "", "output language (default from config)")
	generateCmd.Flags().String("backend", "", "backend: local or cloud (default from config)")
	generateCmd.Flags().Bool("stream", false, "print the document as it is generated")
	generateCmd.Flags().String("caller", "", "caller identity recorded on the artifact")
	addOutputFlags(generateCmd)

	rootCmd.AddCommand(generateCmd)
}
