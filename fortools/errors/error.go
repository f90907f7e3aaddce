package errors

import "fmt"

// All ranges inclusive
type Span struct {
	Start    Location
	End      Location
	Filename string
}

type Location struct {
	Line   int
	Column int
	Index  int
}

func NewLocation() Location {
	return Location{
		Line:   1,
		Column: 1,
		Index:  0,
	}
}

func (self *Location) Advance(newline bool) {
	self.Index++
	if newline {
		self.Column = 1
		self.Line++
	} else {
		self.Column++
	}
}

// Len returns the number of bytes covered by the span.
func (self Span) Len() int {
	return self.End.Index - self.Start.Index + 1
}

func (self Span) String() string {
	return fmt.Sprintf("%s:%d:%d", self.Filename, self.Start.Line, self.Start.Column)
}

type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
}

type ErrorKind uint8

const (
	SyntaxError ErrorKind = iota
	RewriteError
	VerifyError
	IOError
)

func (self ErrorKind) String() string {
	switch self {
	case SyntaxError:
		return "SyntaxError"
	case RewriteError:
		return "RewriteError"
	case VerifyError:
		return "VerifyError"
	case IOError:
		return "IOError"
	default:
		panic("A new error kind was added without updating this code")
	}
}

func (self *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", self.Span, self.Kind, self.Message)
}

func NewError(span Span, message string, kind ErrorKind) *Error {
	return &Error{
		Span:    span,
		Message: message,
		Kind:    kind,
	}
}

func NewSyntaxError(span Span, message string) *Error {
	return NewError(span, message, SyntaxError)
}
