// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/httputil"
	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// maxQueryKeywords bounds how many extracted keywords join the search text.
const maxQueryKeywords = 3

// Resolver serves the ReferenceResolution capability.
type Resolver struct {
	backends []Backend
	cfg      types.SearchConfig
	logger   *zap.Logger
}

// NewResolver builds a resolver over the backends enabled in cfg. All
// backends share client and therefore its rate limit.
func NewResolver(cfg types.SearchConfig, client *httputil.Client, logger *zap.Logger) *Resolver {
	var backends []Backend
	if cfg.EnableOpenAlex {
		backends = append(backends, &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	return NewResolverWithBackends(backends, cfg, logger)
}

// NewResolverWithBackends builds a resolver over explicit backends.
func NewResolverWithBackends(backends []Backend, cfg types.SearchConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{backends: backends, cfg: cfg, logger: logger}
}

// Name implements pipeline.Provider.
func (r *Resolver) Name() string { return "scholarly-search" }

// Execute searches for works related to the paper and renders them in the
// requested citation style, at most MaxReferences of them.
func (r *Resolver) Execute(ctx context.Context, input any, call pipeline.CallContext) (pipeline.Result, error) {
	in, ok := input.(types.ReferenceInput)
	if !ok {
		return pipeline.Fail("expected ReferenceInput, got %T", input), nil
	}
	if in.MaxReferences <= 0 {
		return pipeline.Succeed(types.ReferenceOutput{References: []types.Reference{}}), nil
	}

	query := buildQuery(in)
	if query.IsEmpty() {
		return pipeline.Fail("no search terms: paper has no title, topics, or keywords"), nil
	}

	cfg := r.cfg
	if cfg.MaxResults < in.MaxReferences {
		cfg.MaxResults = in.MaxReferences
	}
	out, err := Search(ctx, query, r.backends, cfg, r.logger)
	if err != nil {
		return pipeline.Result{}, err
	}

	candidates := out.Candidates
	if len(candidates) > in.MaxReferences {
		candidates = candidates[:in.MaxReferences]
	}
	refs := make([]types.Reference, len(candidates))
	for i, c := range candidates {
		refs[i] = Cite(c, in.CitationStyle, i+1)
	}

	r.logger.Debug("references resolved",
		zap.String("run_id", call.RunID),
		zap.String("query", query.text()),
		zap.Int("count", len(refs)),
		zap.Int("duplicates_removed", out.DupsRemoved),
	)
	return pipeline.Succeed(types.ReferenceOutput{References: refs}), nil
}

// buildQuery searches by paper title, falling back to the first topic, and
// adds the leading keywords.
func buildQuery(in types.ReferenceInput) Query {
	q := Query{FreeText: strings.TrimSpace(in.PaperTitle)}
	if q.FreeText == "" && len(in.Topics) > 0 {
		q.FreeText = strings.TrimSpace(in.Topics[0])
	}
	kw := in.Keywords
	if len(kw) > maxQueryKeywords {
		kw = kw[:maxQueryKeywords]
	}
	q.Keywords = append([]string(nil), kw...)
	return q
}
