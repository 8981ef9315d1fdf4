// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preflight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/phuslu/log"

	"github.com/pdiddy/pdf-preflight/internal/layout"
	"github.com/pdiddy/pdf-preflight/internal/logging"
	"github.com/pdiddy/pdf-preflight/internal/structural"
	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// StructuralScanner produces the object-graph findings of a document.
type StructuralScanner interface {
	Scan(ctx context.Context, path string) (*structural.Findings, error)
}

// LayoutAnalyzer produces the layout findings of a document. imagePages are
// the pages the structural scan found images on.
type LayoutAnalyzer interface {
	Analyze(ctx context.Context, path string, imagePages []int) (*layout.Findings, error)
}

// Recorder keeps a history of analyses keyed by path and content digest.
type Recorder interface {
	Save(ctx context.Context, path, digest string, result *types.AnalysisResult) error
	SaveFailure(ctx context.Context, path, digest string, cause error) error
	// Lookup returns the latest successful analysis of path whose digest matches.
	Lookup(ctx context.Context, path, digest string) (*types.AnalysisResult, bool, error)
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Analyzed int
	Reused   int
	Failed   int
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Analyzed + r.Reused + r.Failed
}

// HasFailures reports whether any file failed analysis.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Runner analyses files with a structural scanner and a layout analyzer.
type Runner struct {
	scanner  StructuralScanner
	analyzer LayoutAnalyzer
	recorder Recorder
	reuse    bool
	logger   *log.Logger
}

// NewRunner returns a Runner backed by pdfcpu and tabula.
func NewRunner(cfg types.HeuristicConfig, logger *log.Logger) *Runner {
	return NewRunnerWith(structural.NewScanner(logger), layout.NewAnalyzer(cfg, logger), logger)
}

// NewRunnerWith returns a Runner over the given scanner and analyzer.
func NewRunnerWith(s StructuralScanner, a LayoutAnalyzer, logger *log.Logger) *Runner {
	return &Runner{scanner: s, analyzer: a, logger: logging.OrDiscard(logger)}
}

// SetRecorder attaches a history. With reuse set, a file whose digest matches
// its latest recorded analysis is not scanned again.
func (r *Runner) SetRecorder(rec Recorder, reuse bool) {
	r.recorder = rec
	r.reuse = reuse
}

// AnalyzeFile runs both scans over path and merges them.
func (r *Runner) AnalyzeFile(ctx context.Context, path string) (*types.AnalysisResult, error) {
	sf, err := r.scanner.Scan(ctx, path)
	if err != nil {
		return nil, err
	}
	lf, err := r.analyzer.Analyze(ctx, path, sf.ContainsImages)
	if err != nil {
		return nil, err
	}
	result, err := Merge(sf, lf)
	if err != nil {
		return nil, fmt.Errorf("merging findings for %s: %w", path, err)
	}
	return result, nil
}

// AnalyzeBatch analyses paths in order, printing a status line per file to
// w. A failing file is recorded in the bundle and the batch moves on. A
// cancelled context stops the batch before the next file.
func (r *Runner) AnalyzeBatch(ctx context.Context, paths []string, w io.Writer) (*types.ReportBundle, BatchResult) {
	bundle := types.NewReportBundle()
	var result BatchResult

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprintf(w, "\n🔍 Checking: %s\n\n", path)

		analysis, reused, err := r.analyzeOne(ctx, path)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}
			r.logger.Warn().Str("path", path).Err(err).Msg("analysis failed")
			bundle.AddFailure(path, err)
			result.Failed++
			continue
		}

		bundle.Add(path, analysis)
		if reused {
			result.Reused++
		} else {
			result.Analyzed++
		}
		r.logger.Info().
			Str("path", path).
			Int("pages", analysis.PageCount).
			Bool("reused", reused).
			Msg("analysis complete")
	}

	return bundle, result
}

func (r *Runner) analyzeOne(ctx context.Context, path string) (*types.AnalysisResult, bool, error) {
	var digest string
	if r.recorder != nil {
		d, err := FileDigest(path)
		if err != nil {
			return nil, false, fmt.Errorf("hashing %s: %w", path, err)
		}
		digest = d
	}

	if r.recorder != nil && r.reuse {
		prev, ok, err := r.recorder.Lookup(ctx, path, digest)
		switch {
		case err != nil:
			r.logger.Warn().Str("path", path).Err(err).Msg("history lookup failed")
		case ok:
			return prev, true, nil
		}
	}

	result, err := r.safeAnalyze(ctx, path)

	if r.recorder != nil && ctx.Err() == nil {
		var recErr error
		if err != nil {
			recErr = r.recorder.SaveFailure(ctx, path, digest, err)
		} else {
			recErr = r.recorder.Save(ctx, path, digest, result)
		}
		if recErr != nil {
			r.logger.Warn().Str("path", path).Err(recErr).Msg("history write skipped")
		}
	}

	return result, false, err
}

// safeAnalyze turns a panic inside the PDF libraries into an error for the file.
func (r *Runner) safeAnalyze(ctx context.Context, path string) (result *types.AnalysisResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("analysing %s: panic: %v", path, rec)
		}
	}()
	return r.AnalyzeFile(ctx, path)
}

// FileDigest returns the hex SHA-256 of the file contents.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
