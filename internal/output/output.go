// Package output writes the few lines the launcher prints on its own.
//
// Everything else on stdout/stderr belongs to the child process, so the
// Writer only covers the first-run banner and failure diagnostics:
//   - Testable via io.Writer injection
//   - Colored output with TTY detection
//   - Golden file testing
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/canonical/dotnet-launcher/internal/terminal"
)

// Writer handles launcher output.
type Writer struct {
	Out      io.Writer
	Err      io.Writer
	terminal *terminal.Info

	headingColor *color.Color
	errorColor   *color.Color
	infoColor    *color.Color
}

// Default returns a Writer configured for stdout/stderr.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, terminal.Detect())
}

// NewWriter creates a Writer with custom writers and terminal info.
func NewWriter(out, err io.Writer, term *terminal.Info) *Writer {
	w := &Writer{
		Out:      out,
		Err:      err,
		terminal: term,
	}

	w.headingColor = color.New(color.FgMagenta, color.Bold)
	w.errorColor = color.New(color.FgRed)
	w.infoColor = color.New(color.FgCyan)

	if !term.ColorEnabled() {
		color.NoColor = true
	}

	return w
}

// Terminal returns the terminal info.
func (w *Writer) Terminal() *terminal.Info {
	return w.terminal
}

// Println writes a plain line to stdout.
func (w *Writer) Println(args ...interface{}) {
	fmt.Fprintln(w.Out, args...)
}

// Welcome prints the first-run banner: a heading followed by plain lines.
func (w *Writer) Welcome(heading string, lines ...string) {
	if w.terminal.ColorEnabled() {
		w.headingColor.Fprintln(w.Out, heading)
	} else {
		fmt.Fprintln(w.Out, heading)
	}

	for _, line := range lines {
		fmt.Fprintln(w.Out, line)
	}
}

func (w *Writer) writeStatus(writer io.Writer, tone *color.Color, prefix, message string) {
	if w.terminal.ColorEnabled() {
		tone.Fprint(writer, prefix+" ")
		fmt.Fprintln(writer, message)
	} else {
		fmt.Fprintln(writer, prefix+" "+message)
	}
}

// Failure writes an error message with an X mark to stderr.
func (w *Writer) Failure(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.writeStatus(w.Err, w.errorColor, XMark, msg)
}

// Info writes an info message to stderr.
func (w *Writer) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	w.writeStatus(w.Err, w.infoColor, InfoMark, msg)
}

// Status symbols
const (
	XMark    = "✗" // ✗
	InfoMark = "ℹ" // ℹ
)
