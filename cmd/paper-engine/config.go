// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/paper-engine/pkg/types"
)

// setDefaults registers every configuration default so that environment
// variables are honoured for keys absent from the config file.
func setDefaults(v *viper.Viper) {
	userAgent := "paper-engine/" + version

	v.SetDefault("pipeline.stage_timeout", 5*time.Minute)

	v.SetDefault("ai.timeout", 120*time.Second)
	v.SetDefault("ai.user_agent", userAgent)
	v.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.requests_per_minute", 50)

	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.user_agent", userAgent)
	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.enable_openalex", true)
	v.SetDefault("search.enable_semantic_scholar", true)
	v.SetDefault("search.semantic_scholar_api_key", "")
	v.SetDefault("search.openalex_email", "")
	v.SetDefault("search.recency_bias_window", 2*365*24*time.Hour)

	v.SetDefault("ingestion.data_dir", "data")
	v.SetDefault("ingestion.max_rows", 10000)

	v.SetDefault("output.output_dir", "output/papers")
	v.SetDefault("output.format", string(types.OutputMarkdown))

	v.SetDefault("run_log.dir", ".paper-engine")
	v.SetDefault("run_log.disabled", false)
}

// newLogger builds a console (development) or json (production) logger
// writing to stderr.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid --log-format %q: use console or json", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
