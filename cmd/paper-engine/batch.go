// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch <request-file>...",
	Short: "Generate papers for several requests concurrently",
	Long: `Batch runs every request file through one shared pipeline, at most
--concurrency at a time. A failed run does not stop the others; the command
exits with an error if any run failed.`,
	Example: `  paper-engine batch requests/*.yaml --concurrency 2`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runBatch,
}

type batchEntry struct {
	path string
	out  runOutcome
}

func runBatch(cmd *cobra.Command, args []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	callerID, _ := cmd.Flags().GetString("caller")
	if concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1")
	}

	r, cleanup, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	entries := make([]batchEntry, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)
	for i, path := range args {
		g.Go(func() error {
			entry := batchEntry{path: path}
			raw, err := loadRequest(path)
			if err != nil {
				entry.out.Err = err
			} else {
				entry.out = r.run(ctx, raw, callerID)
			}
			if entry.out.Err != nil {
				logger.Warn("run failed", zap.String("request", path), zap.Error(entry.out.Err))
			}

			entries[i] = entry
			// Per-request failures are reported in the summary, not through
			// the group, so one failure does not cancel the rest.
			return nil
		})
	}
	_ = g.Wait()

	failed := printBatchSummary(entries)
	if failed > 0 {
		return fmt.Errorf("%d of %d run(s) failed", failed, len(entries))
	}
	return nil
}

func printBatchSummary(entries []batchEntry) int {
	failed := 0
	fmt.Fprintf(os.Stdout, "%-30s  %-36s  %-9s  %s\n", "Request", "Run", "Status", "Output")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, e := range entries {
		status := "complete"
		detail := strings.Join(e.out.Files, ", ")
		switch {
		case e.out.Err != nil:
			status = "failed"
			detail = truncate(e.out.Err.Error(), 60)
			failed++
		case e.out.Result.Degraded():
			status = "degraded"
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-36s  %-9s  %s\n",
			truncate(filepath.Base(e.path), 30), e.out.RunID, status, detail)
	}
	return failed
}

func init() {
	batchCmd.Flags().Int("concurrency", 4, "maximum number of concurrent runs")
	addOutputFlags(batchCmd)

	rootCmd.AddCommand(batchCmd)
}
