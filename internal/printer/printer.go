// Package printer formats CLI output. Messages go to stdout, errors to
// stderr; both can be redirected with SetOutput.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/HendryAvila/stitch/internal/stitch"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
	bold   = color.New(color.Bold)

	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

// SetOutput redirects message and error output. Nil keeps the current writer.
func SetOutput(stdout, stderr io.Writer) {
	if stdout != nil {
		out = stdout
	}
	if stderr != nil {
		errOut = stderr
	}
}

// ResetOutput restores stdout and stderr.
func ResetOutput() {
	out = os.Stdout
	errOut = os.Stderr
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Fprintf(out, "✓ %s", msg)
	} else {
		green.Fprint(out, msg)
	}
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(out, "⚠️  %s", msg)
	} else {
		yellow.Fprint(out, msg)
	}
}

// Error prints a title, an explanation and suggestions to stderr and returns
// an error holding only the title. Cobra is silenced, so the title is not
// printed twice.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value details between the explanation
// and the suggestions. Keys are printed in the order given by keys when it
// is non-empty.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string, keys ...string) error {
	red.Fprintf(errOut, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(errOut, "%s\n", explanation)
	}

	if len(context) > 0 {
		fmt.Fprintf(errOut, "\n")
		if len(keys) == 0 {
			for key := range context {
				keys = append(keys, key)
			}
		}
		for _, key := range keys {
			if value, ok := context[key]; ok {
				fmt.Fprintf(errOut, "  %s: %s\n", key, value)
			}
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(errOut, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(errOut, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(errOut, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(errOut, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return &reportedError{title: title}
}

// reportedError is returned by Error once the details are on stderr.
type reportedError struct{ title string }

func (e *reportedError) Error() string { return e.title }

// Reported reports whether err was already printed by Error or
// ErrorWithContext.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(out, "→ %s", fmt.Sprintf(format, a...))
}

// Heading prints a bold line.
func Heading(format string, a ...any) {
	bold.Fprintf(out, format, a...)
}

// Faint prints de-emphasized text, such as IDs and timestamps.
func Faint(format string, a ...any) {
	faint.Fprintf(out, format, a...)
}

// Status renders s in the color used for its status everywhere in the CLI.
func Status(s stitch.Status) string {
	switch s {
	case stitch.StatusOpen:
		return cyan.Sprint(s)
	case stitch.StatusClosed:
		return green.Sprint(s)
	case stitch.StatusSuperseded:
		return yellow.Sprint(s)
	case stitch.StatusAbandoned:
		return red.Sprint(s)
	default:
		return string(s)
	}
}

// Println prints a plain message (for output that doesn't need coloring)
func Println(a ...any) {
	fmt.Fprintln(out, a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func Printf(format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
