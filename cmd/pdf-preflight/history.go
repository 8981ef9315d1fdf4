// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-preflight/internal/history"
	"github.com/pdiddy/pdf-preflight/internal/logging"
	"github.com/pdiddy/pdf-preflight/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [PATH]",
	Short: "List recorded analyses from the history database",
	Long: `History lists the analyses recorded by check --db, newest first. Pass a
PATH to show only the analyses of that file, or --check NAME to list the
files whose latest analysis flagged that check (for example tables or
contains_images).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), cmd)
	if err != nil {
		return err
	}
	if cfg.DB == "" {
		return fmt.Errorf("history database required: set --db or db in the config file")
	}

	store, err := history.NewStore(cfg.DB, logging.New(cfg.LogLevel, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if check, _ := cmd.Flags().GetString("check"); check != "" {
		paths, err := store.Flagged(ctx, check)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, paths)
		}
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	entries, err := store.List(ctx, path)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, entries)
	}
	formatHistory(out, entries)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded analyses.")
		return
	}

	fmt.Fprintf(w, "%-5s  %-20s  %-12s  %-5s  %-40s  %s\n",
		"ID", "Analyzed", "Digest", "Pages", "Status", "Path")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, e := range entries {
		digest := e.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		pages := "-"
		status := "failed: " + e.Error
		if !e.Failed() && e.Result != nil {
			pages = fmt.Sprintf("%d", e.Result.PageCount)
			status = summarizeChecks(e.Result)
		}
		status = truncate(status, 40)
		fmt.Fprintf(w, "%-5d  %-20s  %-12s  %-5s  %-40s  %s\n",
			e.ID, e.AnalyzedAt.Format("2006-01-02 15:04:05"), digest, pages, status, e.Path)
	}

	fmt.Fprintf(w, "\n%d analyses\n", len(entries))
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// summarizeChecks names the checks a result flagged.
func summarizeChecks(r *types.AnalysisResult) string {
	var names []string
	for _, c := range r.PageChecks() {
		if len(c.Pages) > 0 {
			names = append(names, c.Name)
		}
	}
	if r.MultiPageTables {
		names = append(names, types.CheckMultiPageTables)
	}
	if len(r.AspectRatioVariations) > 0 {
		names = append(names, types.CheckAspectRatioVariations)
	}
	if len(names) == 0 {
		return "clean"
	}
	return strings.Join(names, ", ")
}

func init() {
	historyCmd.Flags().String("db", "", "history database (default: db from the config file)")
	historyCmd.Flags().String("check", "", "list files whose latest analysis flagged this check")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}
