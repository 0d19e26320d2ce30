// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-engine CLI. It wires the
// concrete capability providers into a pipeline orchestrator and exposes
// single runs, batch runs, and the run ledger as subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-engine/internal/metrics"
	"github.com/pdiddy/paper-engine/internal/secrets"
	"github.com/pdiddy/paper-engine/internal/tracing"
	"github.com/pdiddy/paper-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// engineCfg is loaded in the persistent pre-run from config, environment,
	// and .secrets/.
	engineCfg types.EngineConfig

	// logger is built from --log-level and --log-format.
	logger = zap.NewNop()

	// shutdownTracing flushes spans when --trace is set.
	shutdownTracing func(context.Context) error
)

// rootCmd is the base command for the paper-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-engine",
	Short: "Generate research papers from experimental data",
	Long: `paper-engine turns a research question and its data into a formatted paper.
A request runs through seven stages: data ingestion, drafting, figure
synthesis, reference resolution, compilation, quality validation, and output
formatting. Figures, references, quality, and formatting are best-effort: a
failure there is recorded and the paper is still produced.

Configuration is read from paper-engine.yaml in the working directory or
~/.config/paper-engine/, from PAPER_ENGINE_* environment variables, and API
keys from .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log_level"), viper.GetString("log_format"))
		if err != nil {
			return err
		}
		logger = l

		if err := viper.Unmarshal(&engineCfg); err != nil {
			return fmt.Errorf("decoding configuration: %w", err)
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		secrets.Apply(&engineCfg, s)

		if viper.GetBool("trace") {
			shutdownTracing = tracing.Install(logger.Named("trace"))
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing != nil {
			if err := shutdownTracing(cmd.Context()); err != nil {
				logger.Warn("flushing spans", zap.Error(err))
			}
		}
		if path := viper.GetString("metrics_file"); path != "" {
			if err := metrics.WriteTextfile(path); err != nil {
				return fmt.Errorf("writing metrics: %w", err)
			}
		}
		_ = logger.Sync()
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-engine.yaml or ~/.config/paper-engine/paper-engine.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.Bool("trace", false, "log OpenTelemetry spans at debug level")

	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("metrics_file", pf.Lookup("metrics-file"))
	_ = viper.BindPFlag("trace", pf.Lookup("trace"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-engine"))
		}
	}

	viper.SetEnvPrefix("PAPER_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
