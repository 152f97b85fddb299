// Package main is the entry point for the dotnet launcher shipped in the .NET snap.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/canonical/dotnet-launcher/internal/buildinfo"
	"github.com/canonical/dotnet-launcher/internal/config"
	"github.com/canonical/dotnet-launcher/internal/elevation"
	clierrors "github.com/canonical/dotnet-launcher/internal/errors"
	"github.com/canonical/dotnet-launcher/internal/launcher"
	"github.com/canonical/dotnet-launcher/internal/observability"
	"github.com/canonical/dotnet-launcher/internal/output"
	"github.com/canonical/dotnet-launcher/internal/process"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	buildinfo.Version = version
	buildinfo.Commit = commit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := output.Default()

	return execute(ctx, out, newRootCmd(out))
}

// execute runs rootCmd and maps the outcome to an exit code. An interrupt
// exits -1 no matter which step it landed in.
func execute(ctx context.Context, out *output.Writer, rootCmd *cobra.Command) int {
	err := rootCmd.ExecuteContext(ctx)

	if ctx.Err() != nil {
		return clierrors.ExitInterrupted
	}

	if err != nil {
		return handleError(out, err)
	}

	return clierrors.ExitSuccess
}

// handleError prints a launcher error and returns the exit code to use.
// Silent CLIErrors carry a child's exit status and print nothing.
func handleError(out *output.Writer, err error) int {
	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		if cliErr.Silent() {
			return cliErr.Code
		}

		out.Failure("%s", cliErr.Message)

		if cliErr.Hint != "" {
			out.Info("%s", cliErr.Hint)
		}

		return cliErr.Code
	}

	out.Failure("%s", err.Error())

	return clierrors.ExitGeneral
}

func newRootCmd(out *output.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dotnet [installer] [args...]",
		Short: ".NET launcher for the dotnet snap",
		Long: `Runs the .NET host from the snap's install directory.

The first run installs the latest .NET SDK. Component management is
reached through the installer keyword:
  dotnet installer list             List installed components
  dotnet installer install sdk 8.0  Install a component (asks for privileges)
  dotnet installer remove sdk 8.0   Remove a component (asks for privileges)

Every other command line is passed to the .NET host unchanged.`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLauncher(cmd.Context(), out, args)
		},
	}

	return rootCmd
}

// runLauncher resolves configuration, sets up logging and tracing, and runs
// one launcher invocation.
func runLauncher(ctx context.Context, out *output.Writer, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := observability.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		LogFile:    cfg.Log.File,
		StderrMode: cfg.Log.Stderr,
		SessionID:  uuid.NewString(),
		Version:    buildinfo.Version,
		Commit:     buildinfo.Commit,
	}

	logger, cleanup, err := observability.NewLogger(&logCfg)
	if err != nil {
		return &clierrors.CLIError{
			Message: fmt.Sprintf("Invalid logging configuration: %v", err),
			Hint:    "Use DOTNET_LAUNCHER_LOG_LEVEL (error|warn|info|debug), DOTNET_LAUNCHER_LOG_FORMAT (json|text), DOTNET_LAUNCHER_LOG_STDERR (on|off) and/or DOTNET_LAUNCHER_LOG_FILE",
			Code:    clierrors.ExitConfig,
		}
	}

	defer func() {
		_ = cleanup()
	}()

	slog.SetDefault(logger)

	ctx = observability.WithLogger(ctx, logger)

	// Opt-in via OTEL_ENABLED.
	telemetryShutdown, telemetryErr := observability.SetupTelemetry(ctx, &observability.TelemetryConfig{
		Enabled: observability.IsTelemetryEnabled(),
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
	})
	if telemetryErr != nil {
		logger.Warn("telemetry initialization failed", slog.String("error", telemetryErr.Error()))
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()

		if shutdownErr := telemetryShutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", shutdownErr.Error()))
		}
	}()

	runner := process.NewExecRunner()
	elevator := elevation.Select(elevation.Options{
		PkexecPath:  cfg.PkexecPath,
		SudoCommand: cfg.SudoCommand,
	}, runner)

	if _, isSudo := elevator.(*elevation.Sudo); isSudo && !out.Terminal().CanPrompt() {
		logger.Warn("sudo selected without a terminal on stdin, password prompts may fail")
	}

	logger.Debug("launcher starting",
		slog.String("version", buildinfo.String()),
		slog.String("elevation", elevator.Name()),
		slog.String("config_file", cfg.ConfigFile),
		slog.Int("args.count", len(args)),
	)

	return launcher.New(cfg, elevator, runner, out).Run(ctx, args)
}
