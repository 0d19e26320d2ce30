// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/claude"
	"github.com/pdiddy/paper-engine/internal/compile"
	"github.com/pdiddy/paper-engine/internal/compose"
	"github.com/pdiddy/paper-engine/internal/format"
	"github.com/pdiddy/paper-engine/internal/httputil"
	"github.com/pdiddy/paper-engine/internal/ingest"
	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/internal/quality"
	"github.com/pdiddy/paper-engine/internal/search"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// Scholarly APIs tolerate about one request per second without a key.
const (
	searchRequestsPerMinute = 60
	searchMaxRetries        = 3
)

// buildRegistry binds a concrete provider to every capability.
func buildRegistry(cfg types.EngineConfig, logger *zap.Logger) (pipeline.Registry, error) {
	if cfg.AI.APIKey == "" {
		return nil, fmt.Errorf("no Anthropic API key: set ai.api_key, PAPER_ENGINE_AI_API_KEY, or .secrets/anthropic-api-key")
	}

	formatter, err := format.New(cfg.Output.Format, logger.Named("format"))
	if err != nil {
		return nil, err
	}

	model := claude.New(cfg.AI, logger.Named("claude"))
	searchClient := httputil.NewClient(cfg.Search.Timeout, searchRequestsPerMinute, searchMaxRetries, logger.Named("http"))

	reg := pipeline.Registry{
		pipeline.DataIngestion:       ingest.NewIngestor(cfg.Ingestion, ingest.NewAutoConverter(), logger.Named("ingest")),
		pipeline.ContentDrafting:     compose.NewDraftingProvider(model, logger.Named("drafting")),
		pipeline.FigureSynthesis:     compose.NewFigureProvider(model, logger.Named("figures")),
		pipeline.ReferenceResolution: search.NewResolver(cfg.Search, searchClient, logger.Named("search")),
		pipeline.DraftCompilation:    compile.New(logger.Named("compile")),
		pipeline.QualityValidation:   quality.New(logger.Named("quality")),
		pipeline.OutputFormatting:    formatter,
	}
	return reg, reg.Validate()
}

// newOrchestrator builds the registry and wraps it in an orchestrator.
func newOrchestrator(cfg types.EngineConfig, logger *zap.Logger) (*pipeline.Orchestrator, error) {
	reg, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(reg,
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithStageTimeout(cfg.Pipeline.StageTimeout),
	)
}
