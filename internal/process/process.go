// Package process spawns the launcher's child processes.
//
// A Runner starts exactly one child, hands it the launcher's standard
// streams, waits for it and reports its exit code. When the context is
// cancelled the child is killed, so it never outlives the launcher.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// ErrInterrupted is returned when the context is cancelled while a child runs.
var ErrInterrupted = errors.New("interrupted")

// DefaultGracePeriod bounds how long Run waits for a killed child to be reaped.
const DefaultGracePeriod = 2 * time.Second

// Command describes one child process invocation.
type Command struct {
	// Path is the executable, either absolute or resolved through PATH.
	Path string

	// Args are the arguments after the executable.
	Args []string

	// Env replaces the child environment when non-nil. Nil inherits the launcher's.
	Env []string
}

// Argv returns the full argument vector including the executable.
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// String renders the command for logs.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Runner runs a single command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) (exitCode int, err error)
}

// ExecRunner runs commands with os/exec, wiring them to the given streams.
type ExecRunner struct {
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	GracePeriod time.Duration
}

// NewExecRunner returns a Runner attached to the launcher's own stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		GracePeriod: DefaultGracePeriod,
	}
}

// Run starts cmd and waits for it. A non-zero exit is reported through
// exitCode with a nil error; err is only set when the child could not be
// started or was interrupted.
func (r *ExecRunner) Run(ctx context.Context, c Command) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, ErrInterrupted
	}

	cmd := exec.Command(c.Path, c.Args...) //nolint:gosec // G204: forwarding the user's own command line is the launcher's job
	cmd.Env = c.Env
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %s: %w", c.Path, err)
	}

	done := make(chan error, 1)

	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return finished(ctx, err)
	case <-ctx.Done():
		_ = cmd.Process.Kill()

		grace := r.GracePeriod
		if grace <= 0 {
			grace = DefaultGracePeriod
		}

		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-done:
		case <-timer.C:
		}

		return -1, ErrInterrupted
	}
}

// finished reports a reaped child. An interrupt that arrived while the child
// was exiting on its own still wins over the child's exit code.
func finished(ctx context.Context, waitErr error) (int, error) {
	if ctx.Err() != nil {
		return -1, ErrInterrupted
	}

	return exitCode(waitErr)
}

// exitCode maps a Wait error to an exit code. A child killed by a signal
// reports the negated signal number.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, fmt.Errorf("wait: %w", err)
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return -int(status.Signal()), nil
	}

	return exitErr.ExitCode(), nil
}
