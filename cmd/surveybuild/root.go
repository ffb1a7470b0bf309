package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-survey-build/config"
	"github.com/aluiziolira/go-survey-build/logging"
	"github.com/aluiziolira/go-survey-build/models"
	"github.com/aluiziolira/go-survey-build/pipeline"
	"github.com/aluiziolira/go-survey-build/process"
	"github.com/aluiziolira/go-survey-build/report"
	"github.com/aluiziolira/go-survey-build/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// fetchTransport overrides the fetcher's HTTP transport when set.
var fetchTransport http.RoundTripper

type rootOptions struct {
	configFile     string
	queryURL       string
	where          string
	pageSize       int
	timeout        time.Duration
	output         string
	processCommand string
	skipProcess    bool
	summary        string
	metricsAddr    string
	logLevel       string
	logPretty      bool
	verbose        bool
}

// NewRootCmd creates the surveybuild command.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "surveybuild",
		Short: "Export survey submissions to CSV and run the survey processor",
		Long: `surveybuild pages through the survey's feature-service query endpoint,
writes every submission to a CSV with the columns Username, Email address and
Neighborhood, and then runs the downstream processor on that file.

Settings are read from defaults, then the config file, then SURVEY_*
environment variables, then flags.`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runBuild(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Config file (default ./"+config.DefaultConfigFile+" or "+config.XDGConfigFile()+")")
	flags.StringVar(&opts.queryURL, "query-url", defaults.QueryURL, "Feature service query endpoint")
	flags.StringVar(&opts.where, "where", defaults.Where, "Query filter, use "+config.WhereAll+" for every submission")
	flags.IntVar(&opts.pageSize, "page-size", defaults.PageSize, "Records requested per page")
	flags.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Per-request timeout")
	flags.StringVarP(&opts.output, "output", "o", defaults.OutputFile, "Raw CSV output path")
	flags.StringVar(&opts.processCommand, "process-command", strings.Join(defaults.ProcessCommand, " "), "Downstream processor command line")
	flags.BoolVar(&opts.skipProcess, "skip-process", false, "Write the CSV without running the processor")
	flags.StringVar(&opts.summary, "summary", "", "Write a Markdown run summary to this path")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	flags.BoolVar(&opts.logPretty, "log-pretty", false, "Human-readable console logs")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	cmd.AddCommand(NewVersionCmd())
	return cmd, opts
}

// buildConfig layers defaults, config file, environment and explicitly set flags.
func buildConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path := config.FindConfigFile(opts.configFile); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("query-url") {
		cfg.QueryURL = opts.queryURL
	}
	if flags.Changed("where") {
		cfg.Where = opts.where
	}
	if flags.Changed("page-size") {
		cfg.PageSize = opts.pageSize
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("output") {
		cfg.OutputFile = opts.output
	}
	if flags.Changed("process-command") {
		cfg.ProcessCommand = strings.Fields(opts.processCommand)
	}
	if flags.Changed("skip-process") {
		cfg.SkipProcess = opts.skipProcess
	}
	if flags.Changed("summary") {
		cfg.SummaryFile = opts.summary
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-pretty") {
		cfg.LogPretty = opts.logPretty
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runBuild(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: stderr,
	})

	logger.Info().
		Str("query_url", cfg.QueryURL).
		Str("where", cfg.Where).
		Int("page_size", cfg.PageSize).
		Str("output", cfg.OutputFile).
		Msg("Starting survey build")

	fetcher, err := scraper.NewFetcher(cfg)
	if err != nil {
		return fmt.Errorf("initialising fetcher: %w", err)
	}
	if fetchTransport != nil {
		fetcher.SetTransport(fetchTransport)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := startMetricsServer(cfg.MetricsAddr, fetcher.Metrics, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("Metrics server shutdown failed")
			}
		}()
	}

	// A typed nil *process.Runner would not compare equal to nil inside Build.
	var processor pipeline.Processor
	if !cfg.SkipProcess {
		runner := process.NewRunner(cfg.ProcessCommand)
		runner.Stdout = stdout
		runner.Stderr = stderr
		processor = runner
	}

	result, err := pipeline.NewBuild(fetcher, cfg.OutputFile, processor).Run(ctx)
	if err != nil {
		return err
	}

	printSummary(stdout, result)
	if cfg.SummaryFile != "" {
		if err := report.WriteSummaryFile(cfg.SummaryFile, result); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		logger.Info().Str("file", cfg.SummaryFile).Msg("Wrote run summary")
	}
	return nil
}

func startMetricsServer(addr string, metrics *scraper.Metrics, logger zerolog.Logger) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("Metrics server enabled")
	return server
}

func printSummary(w io.Writer, result *models.BuildResult) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "Build complete.")
	fmt.Fprintf(w, "  Records:       %d\n", len(result.Fetch.Records))
	fmt.Fprintf(w, "  Requests:      %d\n", result.Fetch.RequestCount)
	fmt.Fprintf(w, "  Output file:   %s\n", result.OutputFile)
	if result.Processed {
		fmt.Fprintln(w, "  Processor:     ok")
	} else {
		fmt.Fprintln(w, "  Processor:     skipped")
	}
	fmt.Fprintf(w, "  Duration:      %v\n", result.Duration().Round(time.Millisecond))
	fmt.Fprintln(w, separator)
}

// run executes the command line and returns the process exit status. A failed
// downstream processor's own exit status is passed through.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		if code, ok := process.ExitCode(err); ok && code > 0 {
			return code
		}
		return 1
	}
	return 0
}
