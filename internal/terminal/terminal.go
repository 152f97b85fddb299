// Package terminal provides terminal detection for the launcher.
//
// The launcher hands its standard streams to child processes, so detection
// covers all three: stdout decides colour, stdin decides whether an
// elevation helper can prompt for a password.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Info holds terminal capability information.
type Info struct {
	StdoutTTY bool
	StderrTTY bool
	StdinTTY  bool
	NoColor   bool
}

// Detect returns terminal information for the current environment.
func Detect() *Info {
	// Check NO_COLOR environment variable (https://no-color.org/)
	_, noColor := os.LookupEnv("NO_COLOR")

	if os.Getenv("TERM") == "dumb" {
		noColor = true
	}

	return &Info{
		StdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
		StderrTTY: term.IsTerminal(int(os.Stderr.Fd())),
		StdinTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		NoColor:   noColor,
	}
}

// ColorEnabled returns true if colored output should be used.
func (t *Info) ColorEnabled() bool {
	return t.StdoutTTY && !t.NoColor
}

// CanPrompt returns true if a console password prompt can reach the user.
func (t *Info) CanPrompt() bool {
	return t.StdinTTY
}
