// Package errors provides structured launcher error types.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes.
// A CLIError without a Message only carries an exit code and is not printed;
// that is how a child's exit status travels up to main unchanged.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for launcher errors. Child exit codes are forwarded as-is.
const (
	ExitSuccess     = 0  // Successful execution
	ExitGeneral     = 1  // General error
	ExitConfig      = 4  // Configuration error
	ExitInterrupted = -1 // User interrupt
)

// CLIError represents a user-facing launcher error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the process exit code.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.Code)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// Silent reports whether the error should produce no output.
func (e *CLIError) Silent() bool {
	return e.Message == ""
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// ChildExited forwards a child's non-zero exit code without any output.
func ChildExited(code int) *CLIError {
	return &CLIError{Code: code}
}

// BootstrapFailed returns the error for a failed manifest snap install.
// Nothing is printed; the installer helper has already reported the failure.
func BootstrapFailed(code int) *CLIError {
	return &CLIError{Code: code}
}

// DefaultInstallFailed returns the error for a failed first-run SDK install.
// The launcher prints its own notice on stdout, so the error stays silent.
func DefaultInstallFailed(code int) *CLIError {
	return &CLIError{Code: code}
}

// Interrupted returns the error for a user interrupt.
func Interrupted() *CLIError {
	return &CLIError{Code: ExitInterrupted}
}

// EnvNotSet returns an error for a required environment variable that is missing.
func EnvNotSet(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("%s is not set", name),
		Hint:    "Run dotnet through its snap so the snap environment is populated",
		Code:    ExitConfig,
	}
}

// ManifestMalformed returns an error for an unreadable installed-components manifest.
func ManifestMalformed(path string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Installed components manifest is malformed: %s", path),
		Hint:    "Remove the file to reset the list of installed components",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// SpawnFailed returns an error when a child process could not be started.
func SpawnFailed(name string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to run %s", name),
		Cause:   cause,
		Code:    ExitGeneral,
	}
}
