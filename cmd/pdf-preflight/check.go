// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-preflight/internal/history"
	"github.com/pdiddy/pdf-preflight/internal/logging"
	"github.com/pdiddy/pdf-preflight/internal/preflight"
	"github.com/pdiddy/pdf-preflight/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check [PATH]",
	Short: "Analyse a PDF file or every PDF in a directory",
	Long: `Check runs the structural and layout scans over a single PDF file or the
.pdf files directly inside a directory, prints a report per file, and saves
all results to an artifact (preflight_results.json by default).

A file that cannot be analysed is reported and recorded; the remaining files
are still checked. With --db each analysis is also recorded in a history
database, and --reuse skips files whose content has not changed since their
last recorded analysis.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), cmd)
	if err != nil {
		return err
	}

	target, err := checkTarget(cmd, args)
	if err != nil {
		return err
	}
	files, err := preflight.CollectPDFs(target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	quiet, _ := cmd.Flags().GetBool("quiet")
	progress := out
	if quiet {
		progress = io.Discard
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No PDF files found in %s\n", target)
		return nil
	}

	logger := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	runner := preflight.NewRunner(cfg.HeuristicConfig, logger)
	if cfg.DB != "" {
		store, err := history.NewStore(cfg.DB, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		runner.SetRecorder(store, cfg.Reuse)
	}

	bundle, result := runner.AnalyzeBatch(cmd.Context(), files, progress)
	if !quiet {
		report.WriteSummary(out, bundle)
	}

	if err := report.WriteFile(cfg.Output, bundle, cfg.Format); err != nil {
		return err
	}
	fmt.Fprintf(out, "📁 Results saved to %s\n", cfg.Output)
	fmt.Fprintf(out, "\nanalyzed: %d, reused: %d, failed: %d\n", result.Analyzed, result.Reused, result.Failed)

	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("check interrupted after %d of %d file(s): %w", result.Total(), len(files), err)
	}
	if result.Total() > 0 && result.Failed == result.Total() {
		return fmt.Errorf("all %d file(s) failed analysis", result.Failed)
	}
	return nil
}

// checkTarget returns the one input named by --file, --directory or the
// positional argument.
func checkTarget(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	dir, _ := cmd.Flags().GetString("directory")

	var sources []string
	for _, s := range []string{file, dir} {
		if s != "" {
			sources = append(sources, s)
		}
	}
	sources = append(sources, args...)
	if len(sources) != 1 {
		return "", fmt.Errorf("%w: exactly one of --file, --directory or PATH is required", preflight.ErrInvalidPath)
	}

	switch {
	case file != "":
		if info, err := os.Stat(file); err == nil && info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", preflight.ErrInvalidPath, file)
		}
	case dir != "":
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", preflight.ErrInvalidPath, dir)
		}
	}
	return sources[0], nil
}

func init() {
	checkCmd.Flags().StringP("file", "f", "", "PDF file to check")
	checkCmd.Flags().StringP("directory", "d", "", "directory whose .pdf files are checked")
	checkCmd.Flags().StringP("output", "o", "", "artifact path (default preflight_results.json)")
	checkCmd.Flags().String("format", "", "artifact format: json or yaml (default json)")
	checkCmd.Flags().String("db", "", "history database; analyses are recorded when set")
	checkCmd.Flags().Bool("reuse", false, "reuse recorded results for unchanged files (requires --db)")
	checkCmd.Flags().BoolP("quiet", "q", false, "print only the artifact path and totals")

	rootCmd.AddCommand(checkCmd)
}
