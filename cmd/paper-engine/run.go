// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/draft"
	"github.com/pdiddy/paper-engine/internal/pipeline"
	"github.com/pdiddy/paper-engine/internal/runlog"
	"github.com/pdiddy/paper-engine/internal/search"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// outputOptions selects which companion files accompany the paper.
type outputOptions struct {
	Dir    string
	Format types.OutputFormat
	CSL    bool
	BibTeX bool
}

// runOutcome is what one request produced.
type runOutcome struct {
	RunID  string
	Result *types.PipelineResult
	Files  []string
	Err    error
}

// runner executes requests against one orchestrator and records each run.
type runner struct {
	orch   *pipeline.Orchestrator
	ledger *runlog.Store
	out    outputOptions
	logger *zap.Logger
}

// run executes one request, records it in the ledger, and writes the paper
// on success. A ledger failure is logged but does not fail the run.
func (r *runner) run(ctx context.Context, raw types.RawRequest, callerID string) runOutcome {
	id := uuid.NewString()
	ctx = pipeline.ContextWithRunID(ctx, id)

	started := time.Now()
	res, err := r.orch.Execute(ctx, raw, callerID)
	elapsed := time.Since(started)

	if r.ledger != nil {
		entry := runlog.NewRun(id, callerID, raw, started, elapsed, res, err)
		// The run context may already be cancelled; the record should still land.
		if lerr := r.ledger.Record(context.WithoutCancel(ctx), entry); lerr != nil {
			r.logger.Warn("recording run", zap.String("run_id", id), zap.Error(lerr))
		}
	}

	out := runOutcome{RunID: id, Result: res, Err: err}
	if err != nil {
		return out
	}

	files, err := writeOutputs(r.out, id, res)
	out.Files = files
	out.Err = err
	return out
}

// writeOutputs writes the paper and its optional companion files. It returns
// the written paths.
func writeOutputs(opts outputOptions, runID string, res *types.PipelineResult) ([]string, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	stem := filepath.Join(opts.Dir, slugify(res.Sections.Title, runID))
	ext := ".md"
	if opts.Format == types.OutputLaTeX {
		ext = ".tex"
	}

	var files []string
	paper := stem + ext
	if err := os.WriteFile(paper, []byte(res.Formatted), 0o644); err != nil {
		return nil, fmt.Errorf("writing paper: %w", err)
	}
	files = append(files, paper)

	if opts.CSL && len(res.References) > 0 {
		path := stem + ".refs.yaml"
		if err := writeFile(path, func(w io.Writer) error { return search.FormatCSL(res.References, w) }); err != nil {
			return files, fmt.Errorf("writing CSL references: %w", err)
		}
		files = append(files, path)
	}

	if opts.BibTeX && len(res.References) > 0 {
		path := stem + ".bib"
		if err := os.WriteFile(path, []byte(draft.GenerateBibTeX(res.References)), 0o644); err != nil {
			return files, fmt.Errorf("writing BibTeX: %w", err)
		}
		files = append(files, path)
	}
	return files, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// openLedger opens the run ledger unless it is disabled.
func openLedger(cfg types.RunLogConfig) (*runlog.Store, error) {
	if cfg.Disabled {
		return nil, nil
	}
	return runlog.Open(cfg.Dir)
}

// printStages writes the stage telemetry of a run as a table.
func printStages(w io.Writer, records []types.StageRecord) {
	fmt.Fprintf(w, "%-20s  %-20s  %-10s  %8s  %s\n", "Stage", "Provider", "Status", "ms", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, rec := range records {
		detail := rec.Error
		if rec.SkipReason != "" {
			detail = string(rec.SkipReason)
		}
		fmt.Fprintf(w, "%-20s  %-20s  %-10s  %8d  %s\n",
			rec.Name, rec.Provider, rec.Status, rec.DurationMs, truncate(detail, 40))
	}
}

// describeError adds the partial stage table for a fatal stage failure.
func describeError(w io.Writer, err error) {
	var fatal *pipeline.FatalStageError
	if errors.As(err, &fatal) && len(fatal.Records) > 0 {
		printStages(w, fatal.Records)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
