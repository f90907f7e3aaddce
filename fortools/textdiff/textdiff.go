// Package textdiff computes line diffs with sergi/go-diff and renders them
// either in the classic normal format of diff(1) or as a unified diff.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sourcegraph/go-diff/diff"
)

type OpKind uint8

const (
	Equal OpKind = iota
	Delete
	Insert
)

// Op is a run of lines with the same fate.
type Op struct {
	Kind  OpKind
	Lines []string
}

// Lines returns the line-level edit script turning before into after.
func Lines(before string, after string) []Op {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	ops := make([]Op, 0, len(diffs))
	for _, item := range diffs {
		lines := splitLines(item.Text)
		if len(lines) == 0 {
			continue
		}

		var kind OpKind
		switch item.Type {
		case diffmatchpatch.DiffEqual:
			kind = Equal
		case diffmatchpatch.DiffDelete:
			kind = Delete
		case diffmatchpatch.DiffInsert:
			kind = Insert
		}

		if len(ops) > 0 && ops[len(ops)-1].Kind == kind {
			ops[len(ops)-1].Lines = append(ops[len(ops)-1].Lines, lines...)
			continue
		}
		ops = append(ops, Op{Kind: kind, Lines: lines})
	}
	return ops
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// Changed reports whether the edit script contains anything but equal runs.
func Changed(ops []Op) bool {
	for _, op := range ops {
		if op.Kind != Equal {
			return true
		}
	}
	return false
}

//
// Normal format
//

// noNewline follows a changed last line which lacks its line terminator.
const noNewline = "\\ No newline at end of file"

// unterminatedLine is the number of the last line of text if that line has
// no trailing newline, 0 otherwise.
func unterminatedLine(text string) int {
	if text == "" || strings.HasSuffix(text, "\n") {
		return 0
	}
	return len(splitLines(text))
}

// Normal renders the diff the way `diff before after` prints it without options:
// `3c3`, `< old`, `---`, `> new`. It returns the empty string for equal
// inputs.
func Normal(before string, after string) string {
	ops := Lines(before, after)
	oldLast, newLast := unterminatedLine(before), unterminatedLine(after)

	var builder strings.Builder
	oldLine, newLine := 0, 0

	for idx := 0; idx < len(ops); idx++ {
		op := ops[idx]
		if op.Kind == Equal {
			oldLine += len(op.Lines)
			newLine += len(op.Lines)
			continue
		}

		// a delete and an insert next to each other form one change
		var deleted, inserted []string
		for ; idx < len(ops) && ops[idx].Kind != Equal; idx++ {
			if ops[idx].Kind == Delete {
				deleted = append(deleted, ops[idx].Lines...)
			} else {
				inserted = append(inserted, ops[idx].Lines...)
			}
		}
		idx--

		switch {
		case len(inserted) == 0:
			fmt.Fprintf(&builder, "%sd%d\n", lineRange(oldLine+1, oldLine+len(deleted)), newLine)
		case len(deleted) == 0:
			fmt.Fprintf(&builder, "%da%s\n", oldLine, lineRange(newLine+1, newLine+len(inserted)))
		default:
			fmt.Fprintf(
				&builder,
				"%sc%s\n",
				lineRange(oldLine+1, oldLine+len(deleted)),
				lineRange(newLine+1, newLine+len(inserted)),
			)
		}

		for offset, line := range deleted {
			fmt.Fprintf(&builder, "< %s\n", line)
			if oldLine+offset+1 == oldLast {
				builder.WriteString(noNewline + "\n")
			}
		}
		if len(deleted) > 0 && len(inserted) > 0 {
			builder.WriteString("---\n")
		}
		for offset, line := range inserted {
			fmt.Fprintf(&builder, "> %s\n", line)
			if newLine+offset+1 == newLast {
				builder.WriteString(noNewline + "\n")
			}
		}

		oldLine += len(deleted)
		newLine += len(inserted)
	}

	return builder.String()
}

func lineRange(from int, to int) string {
	if from == to {
		return fmt.Sprint(from)
	}
	return fmt.Sprintf("%d,%d", from, to)
}

//
// Unified format
//

const contextLines = 3

type numberedLine struct {
	kind    OpKind
	text    string
	oldLine int
	newLine int
}

// Unified renders a unified diff with three lines of context. Equal inputs
// render as the empty string.
func Unified(oldName string, newName string, before string, after string) (string, error) {
	ops := Lines(before, after)
	if !Changed(ops) {
		return "", nil
	}

	lines := make([]numberedLine, 0)
	oldLine, newLine := 1, 1
	for _, op := range ops {
		for _, text := range op.Lines {
			lines = append(lines, numberedLine{kind: op.Kind, text: text, oldLine: oldLine, newLine: newLine})
			switch op.Kind {
			case Equal:
				oldLine++
				newLine++
			case Delete:
				oldLine++
			case Insert:
				newLine++
			}
		}
	}

	fileDiff := &diff.FileDiff{
		OrigName: oldName,
		NewName:  newName,
		Hunks:    hunks(lines),
	}

	out, err := diff.PrintFileDiff(fileDiff)
	if err != nil {
		return "", fmt.Errorf("rendering diff of %s: %w", newName, err)
	}
	return string(out), nil
}

func hunks(lines []numberedLine) []*diff.Hunk {
	result := make([]*diff.Hunk, 0)

	idx := 0
	for idx < len(lines) {
		// find the next change
		for idx < len(lines) && lines[idx].kind == Equal {
			idx++
		}
		if idx >= len(lines) {
			break
		}

		start := idx - contextLines
		if start < 0 {
			start = 0
		}

		// extend while changes are separated by at most 2*context equal lines
		end := idx
		for end < len(lines) {
			if lines[end].kind != Equal {
				end++
				continue
			}
			run := end
			for run < len(lines) && lines[run].kind == Equal {
				run++
			}
			if run >= len(lines) || run-end > 2*contextLines {
				end += contextLines
				if end > len(lines) {
					end = len(lines)
				}
				break
			}
			end = run
		}

		result = append(result, makeHunk(lines[start:end]))
		idx = end
	}

	return result
}

func makeHunk(lines []numberedLine) *diff.Hunk {
	hunk := &diff.Hunk{}
	var body strings.Builder

	for _, line := range lines {
		switch line.kind {
		case Equal:
			hunk.OrigLines++
			hunk.NewLines++
			body.WriteString(" ")
		case Delete:
			hunk.OrigLines++
			body.WriteString("-")
		case Insert:
			hunk.NewLines++
			body.WriteString("+")
		}
		body.WriteString(line.text)
		body.WriteString("\n")
	}

	hunk.OrigStartLine = int32(lines[0].oldLine)
	hunk.NewStartLine = int32(lines[0].newLine)
	if hunk.OrigLines == 0 {
		hunk.OrigStartLine--
	}
	if hunk.NewLines == 0 {
		hunk.NewStartLine--
	}
	hunk.Body = []byte(body.String())

	return hunk
}
