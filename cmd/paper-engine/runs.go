// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-engine/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run ledger (list, show, export, stats)",
	Long: `Runs reads the SQLite run ledger written by generate and batch. The
ledger holds stage telemetry and paper metadata, never the paper itself.`,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := runlog.Open(engineCfg.RunLog.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), f)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encodeJSON(os.Stdout, runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %8s  %7s  %s\n",
		"Run", "Started", "Status", "ms", "Quality", "Question")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, r := range runs {
		score := "-"
		if r.QualityScore != nil {
			score = fmt.Sprintf("%d", *r.QualityScore)
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %8d  %7s  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status,
			r.DurationMs, score, truncate(r.Question, 40))
	}
	return nil
}

// --- show subcommand ---

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its stage records",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := runlog.Open(engineCfg.RunLog.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encodeJSON(os.Stdout, r)
	}

	fmt.Printf("Run:       %s\n", r.ID)
	if r.CallerID != "" {
		fmt.Printf("Caller:    %s\n", r.CallerID)
	}
	fmt.Printf("Started:   %s\n", r.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("Status:    %s (%d ms)\n", r.Status, r.DurationMs)
	fmt.Printf("Question:  %s\n", r.Question)
	fmt.Printf("Request:   %s\n", r.RequestDigest)
	if r.Error != "" {
		fmt.Printf("Error:     %s\n", r.Error)
	}
	if r.Status == runlog.StatusCompleted || r.Status == runlog.StatusDegraded {
		fmt.Printf("Paper:     %d words, %d pages, %d figures, %d references\n",
			r.Metadata.WordCount, r.Metadata.PageCount, r.Metadata.FigureCount, r.Metadata.ReferenceCount)
	}
	if r.QualityScore != nil {
		fmt.Printf("Quality:   %d/100\n", *r.QualityScore)
	}
	if len(r.Stages) > 0 {
		fmt.Println()
		printStages(os.Stdout, r.Stages)
	}
	return nil
}

// --- export subcommand ---

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs with stage records as YAML or JSON",
	RunE:  runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	store, err := runlog.Open(engineCfg.RunLog.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = os.Stdout
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer file.Close()
		w = file
	}

	switch format {
	case "yaml":
		err = store.ExportYAML(cmd.Context(), w, f)
	case "json":
		err = store.ExportJSON(cmd.Context(), w, f)
	default:
		return fmt.Errorf("unknown export format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported runs to %s\n", outPath)
	}
	return nil
}

// --- stats subcommand ---

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stage outcomes across all recorded runs",
	RunE:  runRunsStats,
}

func runRunsStats(cmd *cobra.Command, args []string) error {
	store, err := runlog.Open(engineCfg.RunLog.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.StageStats(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encodeJSON(os.Stdout, stats)
	}

	fmt.Fprintf(os.Stdout, "%-20s  %9s  %6s  %7s  %10s\n", "Stage", "Completed", "Failed", "Skipped", "Avg ms")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 60))
	for _, s := range stats {
		fmt.Fprintf(os.Stdout, "%-20s  %9d  %6d  %7d  %10.1f\n",
			s.Name, s.Completed, s.Failed, s.Skipped, s.AvgDurationMs)
	}
	return nil
}

// filterFromFlags builds a ledger filter from the list/export flags.
func filterFromFlags(cmd *cobra.Command) (runlog.Filter, error) {
	var f runlog.Filter

	status, _ := cmd.Flags().GetString("status")
	switch runlog.Status(status) {
	case "", runlog.StatusCompleted, runlog.StatusDegraded, runlog.StatusFailed, runlog.StatusInvalid:
		f.Status = runlog.Status(status)
	default:
		return f, fmt.Errorf("unknown --status %q", status)
	}

	f.CallerID, _ = cmd.Flags().GetString("caller")
	f.Limit, _ = cmd.Flags().GetInt("limit")

	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		f.Since = time.Now().Add(-since)
	}
	return f, nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", "", "filter by status: completed, degraded, failed, invalid")
	cmd.Flags().String("caller", "", "filter by caller identifier")
	cmd.Flags().Duration("since", 0, "only runs started within this duration (e.g. 24h)")
	cmd.Flags().Int("limit", runlog.DefaultLimit, "maximum number of runs")
}

func init() {
	addFilterFlags(runsListCmd)
	runsListCmd.Flags().Bool("json", false, "output as JSON")

	runsShowCmd.Flags().Bool("json", false, "output as JSON")

	addFilterFlags(runsExportCmd)
	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsExportCmd.Flags().String("out", "", "write to this file instead of stdout")

	runsStatsCmd.Flags().Bool("json", false, "output as JSON")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsExportCmd, runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}
