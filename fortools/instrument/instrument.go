// Package instrument replaces the human readable texts passed to the input
// description routines with traceable placeholders such as
// `<<<file:input_cp2k.F num:3 field:description>>>`.
//
// Call sites are located with the Fortran call grammar of the parser
// package. An independent regular expression sweep over the rewritten
// buffer then checks that no call site was overlooked.
package instrument

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cp2k/fortools/fortools/diagnostic"
	ferrors "github.com/cp2k/fortools/fortools/errors"
	"github.com/cp2k/fortools/fortools/lexer"
	"github.com/cp2k/fortools/fortools/parser"
	"github.com/cp2k/fortools/fortools/parser/ast"
	"go.uber.org/zap"
)

// ErrMissedCalls is returned when the regular expression sweep finds call
// sites the grammar-based scan did not instrument.
var ErrMissedCalls = errors.New("call sites missed by the grammar scan")

// DefaultRoutines are the input description routines whose texts get
// instrumented.
var DefaultRoutines = []string{
	"section_create",
	"keyword_create",
	"cp_print_key_section_create",
	"add_format_keyword",
}

var routineName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// statementStart finds the CALL keyword at the beginning of a line.
var statementStart = regexp.MustCompile(`(?im)^[ \t]*(call)[ \t]+([A-Za-z0-9_.%]+)`)

type Instrumenter struct {
	routines map[string]struct{}
	names    []string
	verify   *regexp.Regexp
	logger   *zap.Logger
}

func New(routines []string, logger *zap.Logger) (*Instrumenter, error) {
	if len(routines) == 0 {
		return nil, errors.New("no routines to instrument")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	set := make(map[string]struct{}, len(routines))
	names := make([]string, 0, len(routines))
	for _, routine := range routines {
		if !routineName.MatchString(routine) {
			return nil, fmt.Errorf("invalid routine name %q", routine)
		}
		lower := strings.ToLower(routine)
		if _, exists := set[lower]; exists {
			continue
		}
		set[lower] = struct{}{}
		names = append(names, lower)
	}

	verify, err := regexp.Compile(`(?i)\n\s+(CALL)\s+(?:` + strings.Join(names, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compiling verification pattern: %w", err)
	}

	return &Instrumenter{
		routines: set,
		names:    names,
		verify:   verify,
		logger:   logger,
	}, nil
}

// Call is one instrumented call site.
type Call struct {
	Number    int
	Statement ast.CallStatement
}

// Miss is a call site found by the verification sweep but not by the
// grammar scan. Offset and Span refer to the rewritten buffer.
type Miss struct {
	Offset  int
	Span    ferrors.Span
	Snippet string
}

func (self Miss) Diagnostic() diagnostic.Diagnostic {
	return diagnostic.NewError(
		self.Span,
		"Call site missed by the grammar scan",
		"the file is left unchanged",
	)
}

// Result describes one instrumented buffer. Diagnostics point into Original.
type Result struct {
	Filename    string
	Original    string
	Output      string
	Skipped     bool
	Calls       []Call
	Edits       []Edit
	Misses      []Miss
	Diagnostics []diagnostic.Diagnostic
}

// Changed reports whether instrumenting altered the source.
func (self Result) Changed() bool {
	return self.Output != self.Original
}

// mentionsRoutine is the cheap pre-check: files which never mention any of
// the routines are left alone.
func (self *Instrumenter) mentionsRoutine(source string) bool {
	lower := strings.ToLower(source)
	for _, name := range self.names {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// InstrumentSource rewrites one source buffer. The returned error wraps
// ErrMissedCalls if the verification sweep found call sites the scan
// skipped; the result is still filled in so that the misses can be shown.
func (self *Instrumenter) InstrumentSource(filename string, source string) (Result, error) {
	result := Result{
		Filename: filename,
		Original: source,
		Output:   source,
	}

	if !self.mentionsRoutine(source) {
		result.Skipped = true
		return result, nil
	}

	base := filepath.Base(filename)
	index := lexer.NewLineIndex(source)
	p := parser.NewParser(lexer.NewLexer(source, filename), filename)
	splicer := NewSplicer(source)
	hits := make([]int, 0)
	newline := lineEnding(source)

	nextPos := 0
	for _, match := range statementStart.FindAllStringSubmatchIndex(source, -1) {
		callOffset, nameStart, nameEnd := match[2], match[4], match[5]
		if callOffset < nextPos {
			continue
		}

		_, isTarget := self.routines[strings.ToLower(source[nameStart:nameEnd])]

		statement, err := p.ParseCallAt(index.Location(callOffset))
		if err != nil {
			if isTarget {
				result.Diagnostics = append(result.Diagnostics, diagnostic.NewWarning(
					err.Span,
					fmt.Sprintf("Could not parse call to %s: %s", source[nameStart:nameEnd], err.Message),
				))
			}
			continue
		}
		nextPos = statement.Range.End.Index + 1

		if !isTarget {
			continue
		}

		call := Call{
			Number:    len(result.Calls) + 1,
			Statement: statement,
		}
		result.Calls = append(result.Calls, call)
		hits = append(hits, callOffset)

		callID := fmt.Sprintf("file:%s num:%d", base, call.Number)
		for _, arg := range statement.Args {
			if err := self.rewriteArgument(source, callID, newline, arg, splicer, &result); err != nil {
				return result, err
			}
		}
	}

	result.Output = splicer.Apply()
	result.Edits = splicer.Edits()

	found := make(map[int]struct{}, len(hits))
	for _, hit := range hits {
		found[splicer.Map(hit)] = struct{}{}
	}

	outIndex := lexer.NewLineIndex(result.Output)
	for _, match := range self.verify.FindAllStringSubmatchIndex(result.Output, -1) {
		offset := match[2]
		if _, ok := found[offset]; ok {
			continue
		}

		end := offset + 500
		if end > len(result.Output) {
			end = len(result.Output)
		}
		miss := Miss{
			Offset:  offset,
			Span:    outIndex.Span(filename, offset, match[1]),
			Snippet: result.Output[offset:end],
		}
		result.Misses = append(result.Misses, miss)
	}

	self.logger.Debug("Scanned file",
		zap.String("file", filename),
		zap.Int("calls", len(result.Calls)),
		zap.Int("edits", len(result.Edits)),
		zap.Int("misses", len(result.Misses)),
	)

	if len(result.Misses) > 0 {
		return result, fmt.Errorf("%s: %d call(s): %w", filename, len(result.Misses), ErrMissedCalls)
	}
	return result, nil
}

func (self *Instrumenter) rewriteArgument(source string, callID string, newline string, arg ast.Argument, splicer *Splicer, result *Result) error {
	span := arg.Value.Span()
	start, end := span.Start.Index, span.End.Index+1
	oldValue := source[start:end]

	var newValue string
	switch strings.ToLower(arg.Key) {
	case "description":
		newValue = describe(oldValue, callID, newline)
		if newValue == "" {
			result.Diagnostics = append(result.Diagnostics, diagnostic.NewWarning(
				span,
				"Found odd description",
				"only string literals are replaced",
			))
			return nil
		}
	case "enum_desc":
		newValue = enumDescribe(arg.Value, callID, newline)
		if newValue == "" {
			result.Diagnostics = append(result.Diagnostics, diagnostic.NewWarning(
				span,
				"Found odd enum_desc",
				"expected s2a(...)",
			))
			return nil
		}
	default:
		return nil
	}

	if err := splicer.Add(Edit{Start: start, End: end, Text: newValue, Field: strings.ToLower(arg.Key)}); err != nil {
		return fmt.Errorf("%s: %w", span, err)
	}
	return nil
}

// Placeholder is the marker text for one field of one call site.
func Placeholder(callID string, field string) string {
	return fmt.Sprintf("<<<%s field:%s>>>", callID, field)
}

// lineEnding is the line terminator inserted continuations use: CRLF if
// the source has any, LF otherwise.
func lineEnding(source string) string {
	if strings.Contains(source, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

func describe(oldValue string, callID string, newline string) string {
	if oldValue == "" || (oldValue[0] != '"' && oldValue[0] != '\'') {
		return ""
	}
	return fmt.Sprintf("\"%s\"&%s", Placeholder(callID, "description"), newline)
}

func enumDescribe(value ast.Expression, callID string, newline string) string {
	call, ok := value.(ast.CallExpression)
	if !ok || !strings.EqualFold(call.Name, "s2a") {
		return ""
	}

	items := make([]string, len(call.Args))
	for idx := range call.Args {
		items[idx] = fmt.Sprintf("\"%s\"", Placeholder(callID, fmt.Sprintf("enum_%d", idx)))
	}
	return "s2a(" + strings.Join(items, ",&"+newline) + ")"
}
