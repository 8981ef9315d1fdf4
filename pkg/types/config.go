// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ArtifactFormat selects the serialization of the persisted report.
type ArtifactFormat string

const (
	FormatJSON ArtifactFormat = "json"
	FormatYAML ArtifactFormat = "yaml"
)

// DefaultOutput is the artifact written to the working directory when no
// output path is given.
const DefaultOutput = "preflight_results.json"

// DefaultMathSymbols lists the symbols that mark a page as containing
// mathematical notation.
const DefaultMathSymbols = "∑∫π√∞≈≠≤≥±∂∇"

// HeuristicConfig holds the tunable thresholds of the layout checks.
type HeuristicConfig struct {
	// ColumnThreshold is the multi-column sensitivity: a page is flagged when
	// its words start at more than this many distinct x-coordinates (default 2).
	ColumnThreshold int `json:"column_threshold" yaml:"column_threshold" mapstructure:"column_threshold"`

	// NestedColumnThreshold is the nested-column sensitivity: a page is flagged
	// when its text lines fall into more than this many x clusters (default 2).
	NestedColumnThreshold int `json:"nested_column_threshold" yaml:"nested_column_threshold" mapstructure:"nested_column_threshold"`

	// ColumnClusterWidth is the rounding unit for text-line x clusters (default 10).
	ColumnClusterWidth float64 `json:"column_cluster_width" yaml:"column_cluster_width" mapstructure:"column_cluster_width"`

	// AspectRatioPrecision is the number of decimals aspect ratios are
	// quantized to before grouping (default 2).
	AspectRatioPrecision int `json:"aspect_ratio_precision" yaml:"aspect_ratio_precision" mapstructure:"aspect_ratio_precision"`

	// MathSymbols is the set of runes treated as mathematical notation.
	MathSymbols string `json:"math_symbols" yaml:"math_symbols" mapstructure:"math_symbols"`

	// TableMinRows and TableMinCols bound the smallest grid counted as a table.
	TableMinRows int `json:"table_min_rows" yaml:"table_min_rows" mapstructure:"table_min_rows"`
	TableMinCols int `json:"table_min_cols" yaml:"table_min_cols" mapstructure:"table_min_cols"`

	// TableMinConfidence is the confidence floor of the text-alignment table detector.
	TableMinConfidence float64 `json:"table_min_confidence" yaml:"table_min_confidence" mapstructure:"table_min_confidence"`
}

// PreflightConfig groups the settings of a check run.
type PreflightConfig struct {
	HeuristicConfig `yaml:",inline" mapstructure:",squash"`

	// Output is the artifact path (default preflight_results.json).
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// Format selects the artifact format: json or yaml.
	Format ArtifactFormat `json:"format" yaml:"format" mapstructure:"format"`

	// DB is the history database path. History is disabled when empty.
	DB string `json:"db,omitempty" yaml:"db,omitempty" mapstructure:"db"`

	// Reuse skips files whose content digest matches the latest recorded analysis.
	Reuse bool `json:"reuse" yaml:"reuse" mapstructure:"reuse"`

	// LogLevel is the logger level: debug, info, warn or error.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// DefaultHeuristicConfig returns the thresholds the checks were tuned with.
func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		ColumnThreshold:       2,
		NestedColumnThreshold: 2,
		ColumnClusterWidth:    10,
		AspectRatioPrecision:  2,
		MathSymbols:           DefaultMathSymbols,
		TableMinRows:          2,
		TableMinCols:          2,
		TableMinConfidence:    0.5,
	}
}

// DefaultPreflightConfig returns a configuration with every default applied.
func DefaultPreflightConfig() PreflightConfig {
	return PreflightConfig{
		HeuristicConfig: DefaultHeuristicConfig(),
		Output:          DefaultOutput,
		Format:          FormatJSON,
		LogLevel:        "info",
	}
}

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate reports the first out-of-range heuristic setting.
func (c HeuristicConfig) Validate() error {
	switch {
	case c.ColumnThreshold <= 0:
		return fmt.Errorf("%w: column_threshold must be positive, got %d", ErrInvalidConfig, c.ColumnThreshold)
	case c.NestedColumnThreshold <= 0:
		return fmt.Errorf("%w: nested_column_threshold must be positive, got %d", ErrInvalidConfig, c.NestedColumnThreshold)
	case c.ColumnClusterWidth <= 0:
		return fmt.Errorf("%w: column_cluster_width must be positive, got %g", ErrInvalidConfig, c.ColumnClusterWidth)
	case c.AspectRatioPrecision < 0:
		return fmt.Errorf("%w: aspect_ratio_precision must not be negative, got %d", ErrInvalidConfig, c.AspectRatioPrecision)
	case c.TableMinRows <= 0 || c.TableMinCols <= 0:
		return fmt.Errorf("%w: table_min_rows and table_min_cols must be positive", ErrInvalidConfig)
	case c.TableMinConfidence < 0 || c.TableMinConfidence > 1:
		return fmt.Errorf("%w: table_min_confidence must be within [0, 1], got %g", ErrInvalidConfig, c.TableMinConfidence)
	}
	return nil
}

// Validate checks the heuristics and the artifact settings.
func (c PreflightConfig) Validate() error {
	if err := c.HeuristicConfig.Validate(); err != nil {
		return err
	}
	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: unknown format %q (want json or yaml)", ErrInvalidConfig, c.Format)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidConfig)
	}
	return nil
}
