// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/requirements-engine/pkg/types"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize generations and tokens per backend and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		usage, err := a.store.Usage(context.Background())
		if err != nil {
			return err
		}
		if usage == nil {
			usage = []types.UsageSummary{}
		}
		if ok, err := outputFlags(cmd).print(os.Stdout, usage); ok {
			return err
		}
		writeUsageTable(os.Stdout, usage)
		return nil
	},
}

func writeUsageTable(w io.Writer, usage []types.UsageSummary) {
	if len(usage) == 0 {
		fmt.Fprintln(w, "No generations recorded.")
		return
	}
	fmt.Fprintf(w, "%-8s  %-30s  %11s  %10s\n", "Backend", "Model", "Generations", "Tokens")
	fmt.Fprintln(w, strings.Repeat("-", 65))
	var gens, tokens int
	for _, u := range usage {
		fmt.Fprintf(w, "%-8s  %-30s  %11d  %10d\n", u.Backend, u.Model, u.Generations, u.Tokens)
		gens += u.Generations
		tokens += u.Tokens
	}
	fmt.Fprintln(w, strings.Repeat("-", 65))
	fmt.Fprintf(w, "%-8s  %-30s  %11d  %10d\n", "total", "", gens, tokens)
}

func init() {
	addOutputFlags(usageCmd)
	rootCmd.AddCommand(usageCmd)
}
