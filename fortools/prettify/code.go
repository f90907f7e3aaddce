package prettify

import (
	"strings"

	"github.com/cp2k/fortools/fortools/errors"
	"github.com/cp2k/fortools/fortools/lexer"
)

// transformCode applies fn to the runs of text which are neither string
// literals nor comments. Strings may be continued onto the next line with
// a trailing `&`; any other string left open at the end of a line is a
// syntax error.
func transformCode(filename string, text string, fn func(string) string) (string, *errors.Error) {
	var out strings.Builder
	out.Grow(len(text))

	runStart := 0
	flush := func(end int) {
		if end > runStart {
			out.WriteString(fn(text[runStart:end]))
		}
	}

	idx := 0
	for idx < len(text) {
		switch text[idx] {
		case '!':
			flush(idx)
			end := strings.IndexByte(text[idx:], '\n')
			if end < 0 {
				end = len(text)
			} else {
				end += idx
			}
			out.WriteString(text[idx:end])
			idx = end
			runStart = idx
		case '"', '\'':
			flush(idx)
			end, err := stringEnd(filename, text, idx)
			if err != nil {
				return "", err
			}
			out.WriteString(text[idx:end])
			idx = end
			runStart = idx
		default:
			idx++
		}
	}
	flush(len(text))

	return out.String(), nil
}

// stringEnd returns the offset just behind the literal starting at start.
func stringEnd(filename string, text string, start int) (int, *errors.Error) {
	quote := text[start]
	lineStart := start + 1

	for idx := start + 1; idx < len(text); idx++ {
		switch text[idx] {
		case quote:
			if idx+1 < len(text) && text[idx+1] == quote {
				idx++
				continue
			}
			return idx + 1, nil
		case '\n':
			if !strings.HasSuffix(strings.TrimRight(text[lineStart:idx], " \t\r"), "&") {
				return 0, unterminated(filename, text, start, idx)
			}
			lineStart = idx + 1
		}
	}
	return 0, unterminated(filename, text, start, len(text))
}

func unterminated(filename string, text string, start int, end int) *errors.Error {
	index := lexer.NewLineIndex(text)
	return errors.NewSyntaxError(index.Span(filename, start, end), "Unterminated string literal")
}
