// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// setDefaults registers every configuration key so that config files and
// PDF_PREFLIGHT_* variables can override it.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPreflightConfig()
	v.SetDefault("column_threshold", d.ColumnThreshold)
	v.SetDefault("nested_column_threshold", d.NestedColumnThreshold)
	v.SetDefault("column_cluster_width", d.ColumnClusterWidth)
	v.SetDefault("aspect_ratio_precision", d.AspectRatioPrecision)
	v.SetDefault("math_symbols", d.MathSymbols)
	v.SetDefault("table_min_rows", d.TableMinRows)
	v.SetDefault("table_min_cols", d.TableMinCols)
	v.SetDefault("table_min_confidence", d.TableMinConfidence)
	v.SetDefault("output", d.Output)
	v.SetDefault("format", string(d.Format))
	v.SetDefault("db", d.DB)
	v.SetDefault("reuse", d.Reuse)
	v.SetDefault("log_level", d.LogLevel)
}

// loadConfig resolves the run configuration from v and then applies the
// flags set explicitly on cmd.
func loadConfig(v *viper.Viper, cmd *cobra.Command) (types.PreflightConfig, error) {
	var cfg types.PreflightConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		cfg.Format = types.ArtifactFormat(format)
	}
	if flags.Changed("db") {
		cfg.DB, _ = flags.GetString("db")
	}
	if flags.Changed("reuse") {
		cfg.Reuse, _ = flags.GetBool("reuse")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
