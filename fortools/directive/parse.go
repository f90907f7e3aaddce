package directive

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseError reports a malformed line.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (self *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", self.Line, self.Message)
}

func (self *ParseError) Unwrap() error {
	return self.Err
}

// Parse reads a document. Every `&NAME` must be closed by `&END` or
// `&END NAME`; names compare case-insensitively.
func Parse(r io.Reader) (*Document, error) {
	document := &Document{}
	stack := make([]*Section, 0)
	opened := make([]int, 0)

	appendNode := func(node Node) {
		if len(stack) == 0 {
			document.Nodes = append(document.Nodes, node)
			return
		}
		top := stack[len(stack)-1]
		top.Nodes = append(top.Nodes, node)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		text, comment := splitComment(scanner.Text())
		text = strings.TrimSpace(text)

		if text == "" {
			if comment == "" {
				appendNode(&Blank{})
			} else {
				appendNode(&Comment{Text: comment})
			}
			continue
		}

		fields := strings.Fields(text)
		head := fields[0]

		if !strings.HasPrefix(head, "&") {
			appendNode(&Keyword{Name: head, Values: fields[1:], Comment: comment})
			continue
		}

		name := head[1:]
		if name == "" {
			return nil, &ParseError{Line: lineNumber, Message: "section marker without a name"}
		}

		if !strings.EqualFold(name, "END") {
			section := &Section{Name: name, Params: strings.Join(fields[1:], " "), Comment: comment}
			appendNode(section)
			stack = append(stack, section)
			opened = append(opened, lineNumber)
			continue
		}

		if len(stack) == 0 {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: "&END without an open section",
				Err:     ErrUnbalanced,
			}
		}

		top := stack[len(stack)-1]
		if len(fields) > 1 && !strings.EqualFold(fields[1], top.Name) {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("&END %s closes section %s opened on line %d", fields[1], top.Name, opened[len(opened)-1]),
				Err:     ErrUnbalanced,
			}
		}
		if len(fields) > 2 {
			return nil, &ParseError{Line: lineNumber, Message: "unexpected text after &END " + fields[1]}
		}

		stack = stack[:len(stack)-1]
		opened = opened[:len(opened)-1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if len(stack) > 0 {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: fmt.Sprintf("section %s opened on line %d is never closed", stack[len(stack)-1].Name, opened[len(opened)-1]),
			Err:     ErrUnbalanced,
		}
	}

	return document, nil
}

// ParseString is Parse on a string.
func ParseString(text string) (*Document, error) {
	return Parse(strings.NewReader(text))
}

// splitComment separates a trailing `!` or `#` comment which is not inside
// a quoted value.
func splitComment(line string) (string, string) {
	var quote byte
	for idx := 0; idx < len(line); idx++ {
		char := line[idx]
		switch {
		case quote != 0:
			if char == quote {
				quote = 0
			}
		case char == '"' || char == '\'':
			quote = char
		case char == '!' || char == '#':
			return line[:idx], strings.TrimSpace(line[idx+1:])
		}
	}
	return line, ""
}
