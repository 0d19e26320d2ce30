// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one paper from a request file",
	Long: `Generate reads a request (YAML, or JSON when the file ends in .json), runs
the seven-stage pipeline, and writes the paper to the output directory.

The stage table shows which stages completed, failed, or were skipped. A
failure in drafting or compilation aborts the run; any other failure leaves
a degraded but complete paper.`,
	Example: `  paper-engine generate --request request.yaml
  paper-engine generate --request request.json --format latex --bibtex`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	requestPath, _ := cmd.Flags().GetString("request")
	callerID, _ := cmd.Flags().GetString("caller")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	raw, err := loadRequest(requestPath)
	if err != nil {
		return err
	}

	r, cleanup, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := r.run(cmd.Context(), raw, callerID)
	if out.Err != nil {
		describeError(os.Stderr, out.Err)
		return fmt.Errorf("run %s: %w", out.RunID, out.Err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Result)
	}

	printSummary(out)
	return nil
}

// newRunner builds the orchestrator, ledger, and output options from the
// configuration and the command's output flags.
func newRunner(cmd *cobra.Command) (*runner, func(), error) {
	cfg := engineCfg
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		cfg.Output.Format = types.OutputFormat(f)
	}
	if dir, _ := cmd.Flags().GetString("out"); dir != "" {
		cfg.Output.OutputDir = dir
	}

	orch, err := newOrchestrator(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	ledger, err := openLedger(cfg.RunLog)
	if err != nil {
		return nil, nil, err
	}

	csl, _ := cmd.Flags().GetBool("csl")
	bib, _ := cmd.Flags().GetBool("bibtex")

	r := &runner{
		orch:   orch,
		ledger: ledger,
		logger: logger,
		out: outputOptions{
			Dir:    cfg.Output.OutputDir,
			Format: cfg.Output.Format,
			CSL:    csl,
			BibTeX: bib,
		},
	}
	cleanup := func() {
		if ledger != nil {
			ledger.Close()
		}
	}
	return r, cleanup, nil
}

func printSummary(out runOutcome) {
	res := out.Result
	fmt.Printf("Run %s\n\n", out.RunID)
	printStages(os.Stdout, res.StageRecords)
	fmt.Println()

	status := "complete"
	if res.Degraded() {
		status = "degraded"
	}
	fmt.Printf("Paper:      %s (%s)\n", res.Sections.Title, status)
	fmt.Printf("Words:      %d (~%d pages)\n", res.Metadata.WordCount, res.Metadata.PageCount)
	fmt.Printf("Figures:    %d\n", res.Metadata.FigureCount)
	fmt.Printf("References: %d\n", res.Metadata.ReferenceCount)
	if res.Quality != nil {
		fmt.Printf("Quality:    %d/100 (passed: %v, %d issues)\n",
			res.Quality.Score, res.Quality.Passed, len(res.Quality.Issues))
	}
	fmt.Printf("Duration:   %d ms\n", res.TotalDurationMs)
	for _, f := range out.Files {
		fmt.Printf("Wrote %s\n", f)
	}
}

// addOutputFlags registers the flags shared by generate and batch.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("caller", "", "caller identifier recorded in the run ledger")
	cmd.Flags().String("out", "", "output directory (default: output.output_dir)")
	cmd.Flags().String("format", "", "output format: markdown or latex (default: output.format)")
	cmd.Flags().Bool("csl", false, "also write references as CSL YAML (<paper>.refs.yaml)")
	cmd.Flags().Bool("bibtex", false, "also write references as BibTeX (<paper>.bib)")
}

func init() {
	generateCmd.Flags().String("request", "", "request file (YAML or JSON)")
	generateCmd.Flags().Bool("json", false, "print the full result as JSON")
	_ = generateCmd.MarkFlagRequired("request")
	addOutputFlags(generateCmd)

	rootCmd.AddCommand(generateCmd)
}
