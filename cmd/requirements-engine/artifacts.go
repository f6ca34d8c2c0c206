// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/requirements-engine/internal/store"
	"github.com/pdiddy/requirements-engine/pkg/types"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Browse stored artifacts (show, list, children, lineage, audit)",
	Long: `Artifacts reads the artifact store. Artifacts are immutable; derived
artifacts link to their source, which children and lineage follow.`,
}

// --- show subcommand ---

var artifactsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		art, err := a.store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		if ok, err := outputFlags(cmd).print(os.Stdout, art); ok {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s %s  %s  %s/%s/%s",
			art.Kind.DocumentName(), art.ID, art.CreatedAt.Format("2006-01-02 15:04"),
			art.TemplateStandard, art.ProcessStyle, art.OutputLanguage)
		if art.SourceArtifactID != "" {
			fmt.Fprintf(os.Stdout, "  from %s", art.SourceArtifactID)
		}
		fmt.Fprintf(os.Stdout, "\n\n%s\n", art.Body)
		return nil
	},
}

// --- list subcommand ---

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifacts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		createdBy, _ := cmd.Flags().GetString("created-by")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.store.List(context.Background(), store.ListOptions{
			Kind:      types.ArtifactKind(strings.ToUpper(kind)),
			CreatedBy: createdBy,
			Limit:     limit,
		})
		if err != nil {
			return err
		}
		return printArtifacts(cmd, list)
	},
}

// --- children subcommand ---

var artifactsChildrenCmd = &cobra.Command{
	Use:   "children <id>",
	Short: "List artifacts derived directly from an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		if _, err := a.store.Get(ctx, args[0]); err != nil {
			return err
		}
		children, err := a.store.Children(ctx, args[0])
		if err != nil {
			return err
		}
		return printArtifacts(cmd, children)
	},
}

// --- lineage subcommand ---

var artifactsLineageCmd = &cobra.Command{
	Use:   "lineage <id>",
	Short: "Show the chain of artifacts an artifact derives from, root first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		chain, err := a.store.Lineage(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printArtifacts(cmd, chain)
	},
}

// --- audit subcommand ---

var artifactsAuditCmd = &cobra.Command{
	Use:   "audit <id>",
	Short: "Show the audit record of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.store.Audit(context.Background(), args[0])
		if err != nil {
			return err
		}
		if ok, err := outputFlags(cmd).print(os.Stdout, rec); ok {
			return err
		}
		fmt.Fprintf(os.Stdout, "artifact:  %s\nmode:      %s\nbackend:   %s\nmodel:     %s\ntokens:    %d\nsections:  %d\ndigest:    %s\ncreated:   %s\n",
			rec.ArtifactID, rec.InputMode, rec.Backend, rec.Model, rec.ApproxTokens,
			rec.Sections, rec.InputDigest, rec.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func printArtifacts(cmd *cobra.Command, list []types.Artifact) error {
	if list == nil {
		list = []types.Artifact{}
	}
	if ok, err := outputFlags(cmd).print(os.Stdout, list); ok {
		return err
	}
	writeArtifactTable(os.Stdout, list)
	return nil
}

func writeArtifactTable(w io.Writer, list []types.Artifact) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No artifacts found.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-4s  %-40s  %-36s  %s\n", "ID", "Kind", "Title", "Source", "Created")
	fmt.Fprintln(w, strings.Repeat("-", 140))
	for _, a := range list {
		title := a.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		source := a.SourceArtifactID
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "%-36s  %-4s  %-40s  %-36s  %s\n",
			a.ID, a.Kind.DocumentName(), title, source, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%d artifacts\n", len(list))
}

func init() {
	artifactsListCmd.Flags().String("kind", "", "filter by kind: B, S or F")
	artifactsListCmd.Flags().String("created-by", "", "filter by caller identity")
	artifactsListCmd.Flags().Int("limit", 0, "maximum results (0 = 50)")

	for _, c := range []*cobra.Command{artifactsShowCmd, artifactsListCmd, artifactsChildrenCmd, artifactsLineageCmd, artifactsAuditCmd} {
		addOutputFlags(c)
		artifactsCmd.AddCommand(c)
	}

	rootCmd.AddCommand(artifactsCmd)
}
