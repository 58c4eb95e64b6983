package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clintrovert/praxis/internal/config"
	"github.com/clintrovert/praxis/internal/extract"
	"github.com/clintrovert/praxis/internal/jira"
	"github.com/clintrovert/praxis/internal/report"
	"github.com/clintrovert/praxis/internal/retry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	var (
		output      string
		pageSize    int
		maxPages    int
		workers     int
		keepPartial bool
	)

	rootCmd := &cobra.Command{
		Use:   "praxis",
		Short: "Consolidated Jira issue metrics extraction",
		Long: "Praxis sweeps every Jira project visible to the configured identity,\n" +
			"pages through each one with a drift-immune ID cursor, and writes a\n" +
			"single consolidated xlsx report for BI tooling.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				cfg.OutputFile = output
			}
			if cmd.Flags().Changed("page-size") {
				cfg.PageSize = pageSize
			}
			if cmd.Flags().Changed("max-pages") {
				cfg.MaxPages = maxPages
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("keep-partial") {
				cfg.KeepPartialRows = keepPartial
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	rootCmd.Version = version
	rootCmd.Flags().StringVarP(&output, "output", "o", "consolidated_report.xlsx", "report file path")
	rootCmd.Flags().IntVar(&pageSize, "page-size", 100, "issues requested per search page")
	rootCmd.Flags().IntVar(&maxPages, "max-pages", 500, "per-project page ceiling")
	rootCmd.Flags().IntVar(&workers, "workers", 1, "projects extracted concurrently")
	rootCmd.Flags().BoolVar(&keepPartial, "keep-partial", true, "keep rows accumulated before a project error")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	start := time.Now()

	client, err := jira.NewClient(jira.Options{
		BaseURL:           cfg.JiraBaseURL,
		Email:             cfg.JiraEmail,
		APIToken:          cfg.JiraAPIToken,
		ProxyURL:          cfg.ProxyURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, logger)
	if err != nil {
		return err
	}

	if err := client.CheckAuth(ctx); err != nil {
		return err
	}

	extractor := extract.NewExtractor(client, extract.WalkerConfig{
		IssueTypes: cfg.IssueTypes,
		PageSize:   cfg.PageSize,
		MaxPages:   cfg.MaxPages,
		MaxRecords: cfg.MaxRecords,
		Retry: retry.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
		},
	}, cfg.KeepPartialRows, logger)

	orchestrator := extract.NewOrchestrator(client, extractor, cfg.Workers, logger)

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run complete",
		zap.Int("projects_discovered", summary.ProjectsDiscovered),
		zap.Int("success", summary.Succeeded),
		zap.Int("empty", summary.Empty),
		zap.Int("denied", summary.Denied),
		zap.Int("error", summary.Errored),
		zap.Int("total_records", summary.TotalRecords),
		zap.Duration("elapsed", time.Since(start)),
	)

	if summary.TotalRecords == 0 {
		logger.Warn("no records retrieved, skipping report")
		return nil
	}

	if err := report.Write(summary.Rows, cfg.OutputFile); err != nil {
		return err
	}
	logger.Info("report written",
		zap.String("path", cfg.OutputFile),
		zap.Int("rows", summary.TotalRecords),
	)
	return nil
}
