package diagnostic

import (
	"fmt"
	"os"
	"strings"

	"github.com/cp2k/fortools/fortools/errors"
	"golang.org/x/term"
)

type DiagnosticLevel uint8

const (
	DiagnosticLevelHint DiagnosticLevel = iota
	DiagnosticLevelInfo
	DiagnosticLevelWarning
	DiagnosticLevelError
)

func (self DiagnosticLevel) String() string {
	switch self {
	case DiagnosticLevelHint:
		return "Hint"
	case DiagnosticLevelInfo:
		return "Info"
	case DiagnosticLevelWarning:
		return "Warning"
	case DiagnosticLevelError:
		return "Error"
	default:
		panic("A new diagnostic level was added without updating this code")
	}
}

var colorize = term.IsTerminal(int(os.Stdout.Fd()))

// Colorize switches ANSI escape sequences in Display on or off.
// The default depends on whether stdout is a terminal.
func Colorize(enabled bool) {
	colorize = enabled
}

//
// Diagnostic
//

type Diagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	Message string          `json:"message"`
	Notes   []string        `json:"notes"`
	Span    errors.Span     `json:"span"`
}

func NewWarning(span errors.Span, message string, notes ...string) Diagnostic {
	return Diagnostic{
		Level:   DiagnosticLevelWarning,
		Message: message,
		Notes:   notes,
		Span:    span,
	}
}

func NewError(span errors.Span, message string, notes ...string) Diagnostic {
	return Diagnostic{
		Level:   DiagnosticLevelError,
		Message: message,
		Notes:   notes,
		Span:    span,
	}
}

// FromError converts a positioned error into an error diagnostic.
func FromError(err *errors.Error) Diagnostic {
	return NewError(err.Span, fmt.Sprintf("%s: %s", err.Kind, err.Message))
}

// style returns the marker character used for spans and the ANSI colour
// of the level.
func (self DiagnosticLevel) style() (string, uint8) {
	switch self {
	case DiagnosticLevelHint:
		return "~", 35
	case DiagnosticLevelInfo:
		return "~", 34
	case DiagnosticLevelWarning:
		return "~", 33
	default:
		return "^", 31
	}
}

// gutter renders one numbered source line.
func gutter(lines []string, number int) string {
	return fmt.Sprintf(" %s%- 3d | %s%s", ansiCol(90, false), number, reset(), lines[number-1])
}

// Display renders the diagnostic against the source it refers to: a
// header with the position, up to three source lines with the span
// underlined, the message and the notes.
func (self Diagnostic) Display(program string) string {
	marker, color := self.Level.style()
	start, end := self.Span.Start, self.Span.End

	var notes strings.Builder
	for _, note := range self.Notes {
		fmt.Fprintf(&notes, "%s - note:%s %s\n", ansiCol(36, true), reset(), note)
	}

	lines := strings.Split(program, "\n")
	if start.Line == 0 || start.Line > len(lines) {
		return fmt.Sprintf("%s%s%s in %s%s\n%s\n%s",
			ansiCol(color, true), self.Level, ansiCol(39, true), self.Span.Filename, reset(),
			self.Message, notes.String())
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%s%v%s at %s:%d:%d%s\n",
		ansiCol(color, true), self.Level, ansiCol(39, false),
		self.Span.Filename, start.Line, start.Column, reset())

	if start.Line > 1 {
		out.WriteString("\n" + gutter(lines, start.Line-1))
	}
	out.WriteString("\n" + gutter(lines, start.Line) + "\n")

	indent := strings.Repeat(" ", start.Column+6)
	out.WriteString(ansiCol(color, true) + indent)
	switch {
	case start.Line == end.Line && start.Column >= end.Column:
		out.WriteString("^")
	case start.Line == end.Line:
		// Spans are inclusive.
		out.WriteString(strings.Repeat(marker, end.Column-start.Column+1))
	default:
		width := max(len(lines[start.Line-1])-start.Column+1, 1)
		more := end.Line - start.Line
		plural := "s"
		if more == 1 {
			plural = ""
		}
		fmt.Fprintf(&out, "%s ...\n%s%s+ %d more line%s%s",
			strings.Repeat(marker, width), indent, ansiCol(32, true), more, plural, reset())
	}
	out.WriteString(reset())

	if start.Line < len(lines) {
		out.WriteString("\n" + gutter(lines, start.Line+1))
	}

	fmt.Fprintf(&out, "\n\n%s%s%s\n%s", ansiCol(color, true), self.Message, reset(), notes.String())
	return out.String()
}

func ansiCol(color uint8, bold bool) string {
	if !colorize {
		return ""
	}
	if bold {
		return fmt.Sprintf("\x1b[1;%dm", color)
	}
	return fmt.Sprintf("\x1b[%dm", color)
}

func reset() string {
	if !colorize {
		return ""
	}
	return "\x1b[0m"
}
