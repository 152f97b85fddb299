// Package elevation runs commands with administrative privileges.
//
// Three strategies implement Elevator:
//   - Direct: the launcher already runs as root, so the command runs in place
//   - Pkexec: polkit's pkexec, which may show a graphical prompt
//   - Sudo: the classic console fallback
//
// Select picks one strategy once, from the effective uid and a lookup for
// pkexec. Callers only ever see the Elevator interface.
package elevation

import (
	"context"
	"fmt"

	"github.com/canonical/dotnet-launcher/internal/process"
)

// InstallDirEnv is forwarded explicitly because neither pkexec nor sudo
// passes the caller's environment through.
const InstallDirEnv = "DOTNET_INSTALL_DIR"

// pkexec exit codes for a dismissed or refused authentication prompt.
const (
	pkexecDismissed    = 126
	pkexecUnauthorized = 127
)

// Result is the outcome of an elevated run.
type Result struct {
	// ExitCode is the exit status of the elevated command (or of the helper).
	ExitCode int

	// Declined is set when the helper reports that the user dismissed the
	// prompt or policy refused authorization.
	Declined bool

	// Mechanism names the strategy that ran the command.
	Mechanism string
}

// Elevator runs a command with administrative privileges. Non-zero exits are
// returned in Result; the error is reserved for failures to run at all.
type Elevator interface {
	Name() string

	// NeedsInstallDir reports whether Run forwards installDir to the child.
	NeedsInstallDir() bool

	Run(ctx context.Context, cmd process.Command, installDir string) (Result, error)
}

// DirectFailure is returned by Direct when the command exits non-zero.
// Running as root leaves no prompt to decline, so any failure is fatal.
type DirectFailure struct {
	Command  string
	ExitCode int
}

func (e *DirectFailure) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}

// Direct runs commands in the current (root) context.
type Direct struct {
	Runner process.Runner
}

// Name implements Elevator.
func (d *Direct) Name() string { return "direct" }

// NeedsInstallDir implements Elevator. The child inherits the environment.
func (d *Direct) NeedsInstallDir() bool { return false }

// Run implements Elevator. The child inherits the launcher's environment.
func (d *Direct) Run(ctx context.Context, cmd process.Command, _ string) (Result, error) {
	code, err := d.Runner.Run(ctx, cmd)
	if err != nil {
		return Result{ExitCode: code, Mechanism: d.Name()}, err
	}

	result := Result{ExitCode: code, Mechanism: d.Name()}
	if code != 0 {
		return result, &DirectFailure{Command: cmd.String(), ExitCode: code}
	}

	return result, nil
}

// Pkexec runs commands through polkit.
type Pkexec struct {
	Path   string
	Runner process.Runner
}

// Name implements Elevator.
func (p *Pkexec) Name() string { return "pkexec" }

// NeedsInstallDir implements Elevator.
func (p *Pkexec) NeedsInstallDir() bool { return true }

// Run implements Elevator.
func (p *Pkexec) Run(ctx context.Context, cmd process.Command, installDir string) (Result, error) {
	wrapped := process.Command{
		Path: p.Path,
		Args: cmd.Argv(),
		Env:  []string{InstallDirEnv + "=" + installDir},
	}

	code, err := p.Runner.Run(ctx, wrapped)

	return Result{
		ExitCode:  code,
		Declined:  err == nil && (code == pkexecDismissed || code == pkexecUnauthorized),
		Mechanism: p.Name(),
	}, err
}

// Sudo runs commands through sudo, preserving the install directory.
type Sudo struct {
	Command string
	Runner  process.Runner
}

// Name implements Elevator.
func (s *Sudo) Name() string { return "sudo" }

// NeedsInstallDir implements Elevator.
func (s *Sudo) NeedsInstallDir() bool { return true }

// Run implements Elevator.
func (s *Sudo) Run(ctx context.Context, cmd process.Command, installDir string) (Result, error) {
	wrapped := process.Command{
		Path: s.Command,
		Args: append([]string{"--preserve-env=" + InstallDirEnv}, cmd.Argv()...),
		Env:  []string{InstallDirEnv + "=" + installDir},
	}

	code, err := s.Runner.Run(ctx, wrapped)

	return Result{ExitCode: code, Mechanism: s.Name()}, err
}

// Options configures Select.
type Options struct {
	PkexecPath  string
	SudoCommand string

	// EffectiveUID reports the launcher's effective uid. Defaults to the OS value.
	EffectiveUID func() int

	// Exists looks for the pkexec binary. Defaults to an executable-file check.
	Exists func(path string) bool
}

// Select picks the strategy for this run.
func Select(opts Options, runner process.Runner) Elevator {
	euid := opts.EffectiveUID
	if euid == nil {
		euid = EffectiveUID
	}

	exists := opts.Exists
	if exists == nil {
		exists = IsExecutable
	}

	if euid() == 0 {
		return &Direct{Runner: runner}
	}

	if opts.PkexecPath != "" && exists(opts.PkexecPath) {
		return &Pkexec{Path: opts.PkexecPath, Runner: runner}
	}

	return &Sudo{Command: opts.SudoCommand, Runner: runner}
}
