// Command leaderboard regenerates the paper tracking leaderboards under docs/.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openlah/leaderboard/internal/app"
	"github.com/openlah/leaderboard/internal/config"
	"github.com/openlah/leaderboard/internal/githubapi"
	"github.com/openlah/leaderboard/internal/gitremote"
	"github.com/openlah/leaderboard/internal/telemetry"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const rateLimitHint = "hint: set GITHUB_TOKEN to raise the GitHub API rate limit"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(os.LookupEnv, ".").ExecuteContext(ctx)
	cancel()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(lookup func(string) (string, bool), workDir string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Generate paper reproducibility leaderboards from GitHub tracking issues",
		Long: `Fetches the open issues of a GitHub repository, scores every paper tracking issue
and writes three Markdown leaderboards into the docs directory.

Environment:
  GITHUB_REPOSITORY       owner/name to read; defaults to the origin remote of the working tree
  GITHUB_TOKEN, GH_TOKEN  API token sent as "Authorization: token <TOKEN>"
  LEADERBOARD_CONFIG      optional YAML configuration file
  LEADERBOARD_LOG_LEVEL   debug, info, warn or error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), lookup, workDir, cmd.OutOrStdout())
		},
	}
}

func run(ctx context.Context, lookup func(string) (string, bool), workDir string, out io.Writer) error {
	cfg, err := loadConfig(lookup)
	if err != nil {
		return err
	}
	if err := resolveRepository(cfg, workDir); err != nil {
		return err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(logLevel(cfg.Log.Level))
	logger, err := loggerConfig.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil && !shouldIgnoreLoggerSyncError(syncErr) {
			_, _ = fmt.Fprintf(os.Stderr, "leaderboard: sync logger: %v\n", syncErr)
		}
	}()

	traceOutput, closeTraceOutput, err := openTraceOutput(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer closeTraceOutput()

	telemetryRuntime, err := telemetry.Setup(telemetry.Config{
		Enabled:          cfg.Telemetry.OTELEnabled,
		ServiceName:      "leaderboard",
		TraceMode:        cfg.Telemetry.OTELTraceMode,
		TraceSampleRatio: cfg.Telemetry.OTELTraceSampleRatio,
		TraceOutput:      traceOutput,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetryRuntime.Shutdown(shutdownCtx)
	}()

	runner, closeSinks, err := app.NewRunnerFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeSinks(); closeErr != nil {
			logger.Warn("close sinks", zap.Error(closeErr))
		}
	}()

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(out, summary)
	return nil
}

// openTraceOutput returns where finished spans are written: the configured
// trace file, or stderr. It returns a nil writer when tracing is disabled.
func openTraceOutput(cfg config.TelemetryConfig) (io.Writer, func(), error) {
	if !cfg.OTELEnabled {
		return nil, func() {}, nil
	}
	if cfg.OTELTraceFile == "" {
		return os.Stderr, func() {}, nil
	}
	traceFile, err := os.OpenFile(cfg.OTELTraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace file: %w", err)
	}
	return traceFile, func() {
		_ = traceFile.Close()
	}, nil
}

func printSummary(out io.Writer, summary app.Summary) {
	pterm.Success.WithWriter(out).Printfln("%s: %d tracking issues out of %d open issues",
		summary.Repository, summary.Entries, summary.IssuesFetched)
	for _, path := range summary.Files {
		pterm.Info.WithWriter(out).Printfln("wrote %s", path)
	}
}

// loadConfig reads LEADERBOARD_CONFIG when set, then overlays the environment.
func loadConfig(lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.Default()
	if path, ok := lookup(config.EnvConfigPath); ok && strings.TrimSpace(path) != "" {
		configFile, err := os.Open(strings.TrimSpace(path))
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer func() {
			_ = configFile.Close()
		}()

		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	cfg.ApplyEnv(lookup)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func resolveRepository(cfg *config.Config, workDir string) error {
	if cfg.GitHub.Repository != "" {
		return nil
	}
	repo, err := gitremote.OriginRepository(workDir)
	if err != nil {
		return fmt.Errorf("resolve repository (set %s): %w", config.EnvRepository, err)
	}
	cfg.GitHub.Repository = repo
	return nil
}

func reportError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "leaderboard: %v\n", err)
	if githubapi.IsRateLimited(err) {
		_, _ = fmt.Fprintf(w, "leaderboard: %s\n", rateLimitHint)
	}
}

func logLevel(raw string) zapcore.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// stderr and stdout return EINVAL or ENOTTY on Sync when attached to a terminal or pipe.
func shouldIgnoreLoggerSyncError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
