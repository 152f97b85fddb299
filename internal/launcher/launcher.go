// Package launcher implements the dotnet entry point of the snap.
//
// A run is a fixed sequence of steps:
//   - bootstrap: install the manifest content snap if its marker is missing
//   - classify: installer mode or runtime pass-through
//   - dispatch: run the installer (elevated for install/remove) or the .NET
//     host, installing the latest SDK first when nothing is installed
//
// Every step returns an error value instead of exiting; the caller maps the
// final error to an exit code. Child exit codes travel as CLIError codes.
package launcher

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/canonical/dotnet-launcher/internal/config"
	"github.com/canonical/dotnet-launcher/internal/elevation"
	clierrors "github.com/canonical/dotnet-launcher/internal/errors"
	"github.com/canonical/dotnet-launcher/internal/manifest"
	"github.com/canonical/dotnet-launcher/internal/observability"
	"github.com/canonical/dotnet-launcher/internal/process"
)

// First-run banner.
const (
	WelcomeHeading = "Welcome to .NET on Snap!"
	WelcomeBody    = "We are downloading and installing the latest SDK for you to use. It should only be a few moments."
)

// DefaultInstallFailure is printed on stdout when the first-run install fails.
const DefaultInstallFailure = "Could not install the latest .NET SDK."

// Presenter prints the lines the launcher itself is responsible for.
type Presenter interface {
	Welcome(heading string, lines ...string)
	Println(args ...interface{})
}

// Launcher runs one invocation.
type Launcher struct {
	cfg       *config.Config
	elevator  elevation.Elevator
	runner    process.Runner
	presenter Presenter

	markerExists func(path string) bool
	loadManifest func(path string) (manifest.Local, error)
}

// Option customizes a Launcher.
type Option func(*Launcher)

// WithMarkerCheck replaces the bootstrap marker existence check.
func WithMarkerCheck(fn func(path string) bool) Option {
	return func(l *Launcher) { l.markerExists = fn }
}

// WithManifestLoader replaces the local manifest loader.
func WithManifestLoader(fn func(path string) (manifest.Local, error)) Option {
	return func(l *Launcher) { l.loadManifest = fn }
}

// New returns a Launcher. Unprivileged children go through runner;
// privileged ones through elevator. Logs go to the logger carried by the
// context passed to Run.
func New(cfg *config.Config, elevator elevation.Elevator, runner process.Runner, presenter Presenter, opts ...Option) *Launcher {
	l := &Launcher{
		cfg:          cfg,
		elevator:     elevator,
		runner:       runner,
		presenter:    presenter,
		markerExists: manifest.MarkerExists,
		loadManifest: manifest.Load,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run executes the full launcher flow for args (the command line without
// the program name). It returns nil when the final child exits zero and a
// *clierrors.CLIError carrying the exit code otherwise. Once ctx is
// cancelled the result is always Interrupted, whatever the children did.
func (l *Launcher) Run(ctx context.Context, args []string) error {
	ctx, span := observability.StartStep(ctx, "run", attribute.Int("args.count", len(args)))

	err := l.run(ctx, args)
	if ctx.Err() != nil {
		err = clierrors.Interrupted()
	}

	code := 0

	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		code = cliErr.Code
	}

	observability.EndStep(span, code, nil)

	return err
}

func (l *Launcher) run(ctx context.Context, args []string) error {
	if err := l.EnsureBootstrap(ctx); err != nil {
		return err
	}

	inv := Classify(l.cfg, args)

	observability.FromContext(ctx).Debug("classified invocation",
		slog.String("mode", inv.Mode.String()),
		slog.Bool("elevate", inv.Elevate),
		slog.Int("forwarded", len(inv.Args)),
	)

	switch inv.Mode {
	case ModeInstaller:
		return l.runInstaller(ctx, inv)
	default:
		return l.runRuntime(ctx, inv)
	}
}

// EnsureBootstrap installs the manifest content snap when its marker is
// missing. A failed install is fatal and carries the installer's exit code.
func (l *Launcher) EnsureBootstrap(ctx context.Context) error {
	if l.markerExists(l.cfg.BootstrapMarker) {
		return nil
	}

	observability.FromContext(ctx).Info("bootstrap marker missing, installing content snap",
		slog.String("marker", l.cfg.BootstrapMarker),
		slog.String("snap", l.cfg.BootstrapSnap),
	)

	cmd := process.Command{
		Path: l.cfg.SnapCommand,
		Args: []string{"install", l.cfg.BootstrapSnap},
	}

	code, err := l.elevate(ctx, "bootstrap", cmd)
	if err != nil {
		return err
	}

	if code != 0 {
		return clierrors.BootstrapFailed(code)
	}

	return nil
}

func (l *Launcher) runInstaller(ctx context.Context, inv Invocation) error {
	installer, err := l.cfg.InstallerPath()
	if err != nil {
		return err
	}

	cmd := process.Command{Path: installer, Args: inv.Args}

	if !inv.Elevate {
		return l.passThrough(ctx, "installer", cmd)
	}

	code, err := l.elevate(ctx, "installer", cmd)
	if err != nil {
		return err
	}

	if code != 0 {
		return clierrors.ChildExited(code)
	}

	return nil
}

func (l *Launcher) runRuntime(ctx context.Context, inv Invocation) error {
	if err := l.ensureDefaultInstall(ctx); err != nil {
		return err
	}

	runtime, err := l.cfg.RuntimePath()
	if err != nil {
		return err
	}

	return l.passThrough(ctx, "runtime", process.Command{Path: runtime, Args: inv.Args})
}

// ensureDefaultInstall installs the latest SDK when the local manifest is empty.
func (l *Launcher) ensureDefaultInstall(ctx context.Context) error {
	manifestPath, err := l.cfg.ManifestPath()
	if err != nil {
		return err
	}

	local, err := l.loadManifest(manifestPath)
	if err != nil {
		return clierrors.ManifestMalformed(manifestPath, err)
	}

	if !local.Empty() {
		attrs := []any{slog.Int("components", len(local))}
		if sdk, ok := local.LatestSDK(); ok {
			attrs = append(attrs, slog.String("latest_sdk", sdk.String()))
		}

		observability.FromContext(ctx).Debug("components installed", attrs...)

		return nil
	}

	installer, err := l.cfg.InstallerPath()
	if err != nil {
		return err
	}

	l.presenter.Welcome(WelcomeHeading, WelcomeBody)

	code, err := l.elevate(ctx, "default_install", process.Command{Path: installer, Args: l.cfg.DefaultInstallArgs})
	if err != nil {
		return err
	}

	if code != 0 {
		l.presenter.Println(DefaultInstallFailure)
		return clierrors.DefaultInstallFailed(code)
	}

	return nil
}

// elevate runs cmd through the elevator and returns its exit code. The error
// is reserved for runs that never produced one (spawn failure, interrupt).
func (l *Launcher) elevate(ctx context.Context, step string, cmd process.Command) (int, error) {
	var installDir string

	if l.elevator.NeedsInstallDir() {
		dir, err := l.cfg.RequireInstallDir()
		if err != nil {
			return 0, err
		}

		installDir = dir
	}

	logger := observability.FromContext(ctx)

	ctx, span := observability.StartStep(ctx, step,
		attribute.String("elevation.mechanism", l.elevator.Name()),
		attribute.String("process.executable", cmd.Path),
	)

	logger.Debug("running elevated",
		slog.String("step", step),
		slog.String("mechanism", l.elevator.Name()),
		slog.String("command", cmd.String()),
	)

	result, err := l.elevator.Run(ctx, cmd, installDir)

	var direct *elevation.DirectFailure
	if errors.As(err, &direct) {
		result.ExitCode = direct.ExitCode
		err = nil
	}

	observability.EndStep(span, result.ExitCode, err)

	if err == nil && ctx.Err() != nil {
		err = process.ErrInterrupted
	}

	if err != nil {
		return result.ExitCode, l.runError(ctx, cmd, err)
	}

	if result.Declined {
		logger.Warn("elevation declined",
			slog.String("step", step),
			slog.String("mechanism", result.Mechanism),
			slog.Int("exit_code", result.ExitCode),
		)
	}

	logger.Debug("elevated command finished", slog.String("step", step), slog.Int("exit_code", result.ExitCode))

	return result.ExitCode, nil
}

// passThrough runs cmd unprivileged and forwards its exit code.
func (l *Launcher) passThrough(ctx context.Context, step string, cmd process.Command) error {
	logger := observability.FromContext(ctx)

	ctx, span := observability.StartStep(ctx, step, attribute.String("process.executable", cmd.Path))

	logger.Debug("running", slog.String("step", step), slog.String("command", cmd.String()))

	code, err := l.runner.Run(ctx, cmd)
	observability.EndStep(span, code, err)

	if err == nil && ctx.Err() != nil {
		err = process.ErrInterrupted
	}

	if err != nil {
		return l.runError(ctx, cmd, err)
	}

	logger.Debug("command finished", slog.String("step", step), slog.Int("exit_code", code))

	if code != 0 {
		return clierrors.ChildExited(code)
	}

	return nil
}

func (l *Launcher) runError(ctx context.Context, cmd process.Command, err error) error {
	if errors.Is(err, process.ErrInterrupted) {
		observability.FromContext(ctx).Info("interrupted", slog.String("command", cmd.Path))
		return clierrors.Interrupted()
	}

	return clierrors.SpawnFailed(cmd.Path, err)
}
