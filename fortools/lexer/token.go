package lexer

import (
	"github.com/cp2k/fortools/fortools/errors"
)

type Token struct {
	Kind  TokenKind
	Value string
	Span  errors.Span
}

type TokenKind uint8

const (
	Unknown TokenKind = iota
	EOF
	Newline

	LParen   // (
	RParen   // )
	LList    // (/
	RList    // /)
	LBracket // [
	RBracket // ]
	Comma    // ,
	Colon    // :
	Assign   // =
	Arrow    // =>

	Plus         // +
	Minus        // -
	Star         // *
	Power        // **
	Slash        // /
	Concat       // //
	Equal        // ==
	NotEqual     // /=
	Less         // <
	LessEqual    // <=
	Greater      // >
	GreaterEqual // >=
	DotOperator  // .and. .eq. ...

	String // "foo" or 'foo' (value includes the quotes)
	Number // 42, 1.0E-10, 1.0_dp
	Name   // keyword_create, x%y, .TRUE.
)

func newToken(kind TokenKind, value string, span errors.Span) Token {
	return Token{
		Kind:  kind,
		Value: value,
		Span:  span,
	}
}

func unknownToken(location errors.Location) Token {
	return newToken(Unknown, "", errors.Span{Start: location, End: location})
}

// UnknownToken is the placeholder used before the first token is read.
func UnknownToken(location errors.Location) Token {
	return unknownToken(location)
}

// IsBinaryOperator reports whether the kind can join two operands.
func (self TokenKind) IsBinaryOperator() bool {
	switch self {
	case Plus, Minus, Star, Power, Slash, Concat, Equal, NotEqual,
		Less, LessEqual, Greater, GreaterEqual, DotOperator, Colon:
		return true
	default:
		return false
	}
}

func (self TokenKind) String() string {
	var display string
	switch self {
	case Unknown:
		display = "unknown"
	case EOF:
		display = "EOF"
	case Newline:
		display = "newline"
	case LParen:
		display = "("
	case RParen:
		display = ")"
	case LList:
		display = "(/"
	case RList:
		display = "/)"
	case LBracket:
		display = "["
	case RBracket:
		display = "]"
	case Comma:
		display = ","
	case Colon:
		display = ":"
	case Assign:
		display = "="
	case Arrow:
		display = "=>"
	case Plus:
		display = "+"
	case Minus:
		display = "-"
	case Star:
		display = "*"
	case Power:
		display = "**"
	case Slash:
		display = "/"
	case Concat:
		display = "//"
	case Equal:
		display = "=="
	case NotEqual:
		display = "/="
	case Less:
		display = "<"
	case LessEqual:
		display = "<="
	case Greater:
		display = ">"
	case GreaterEqual:
		display = ">="
	case DotOperator:
		display = "dotted operator"
	case String:
		display = "string"
	case Number:
		display = "number"
	case Name:
		display = "name"
	default:
		panic("A new token kind was added without updating this code")
	}
	return display
}
