// Package main implements the sift CLI, the host-side driver that resolves
// new note content since a cutoff across a vault.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sift/internal/cache"
	"github.com/fyrsmithlabs/sift/internal/changeset"
	"github.com/fyrsmithlabs/sift/internal/config"
	"github.com/fyrsmithlabs/sift/internal/logging"
	"github.com/fyrsmithlabs/sift/internal/normalize"
	"github.com/fyrsmithlabs/sift/internal/patch"
	"github.com/fyrsmithlabs/sift/internal/store"
	"github.com/fyrsmithlabs/sift/internal/telemetry"
	"github.com/fyrsmithlabs/sift/internal/worklist"
)

var (
	version = "dev"

	configPath string
	vaultFlag  string
	sinceFlag  time.Duration
	workers    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Extract note content added since a cutoff",
	Long: `sift reconstructs past document states from version archives and
extracts only the text added since a cutoff, so downstream generation
steps see new material instead of whole documents.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "vault directory (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&sinceFlag, "since", 0, "lookback window, e.g. 168h (overrides config)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "concurrent resolves (overrides config)")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(watchCmd)
}

// app bundles the wired components behind each command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	vault     *store.Vault
	resolver  *changeset.Resolver
	results   *cache.ResultCache
	runner    *worklist.Runner
}

// newApp loads config, applies flag overrides, and wires the pipeline.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if vaultFlag != "" {
		cfg.Vault = vaultFlag
	}
	if sinceFlag > 0 {
		cfg.Since = sinceFlag
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger, err := logging.New(&cfg.Logging, nil)
	if err != nil {
		return nil, err
	}

	vault, err := store.NewVault(cfg.Vault, logger.Named("vault"))
	if err != nil {
		return nil, err
	}

	resolver, err := changeset.NewResolver(patch.NewMatchPatch(), normalize.NewMarkdown(), logger.Named("changeset"))
	if err != nil {
		return nil, err
	}

	results := cache.New(cfg.MaxCacheEntries)
	runner, err := worklist.NewRunner(resolver, vault, results, cfg.Workers, logger.Named("worklist"))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		vault:     vault,
		resolver:  resolver,
		results:   results,
		runner:    runner,
	}, nil
}

// close flushes telemetry and logs.
func (a *app) close(ctx context.Context) {
	_ = a.logger.Sync()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
}

// thresholdMs converts the lookback window to a cutoff instant.
func (a *app) thresholdMs() int64 {
	return time.Now().Add(-a.cfg.Since).UnixMilli()
}
