package ast

import (
	"fmt"
	"strings"

	"github.com/cp2k/fortools/fortools/errors"
)

//
// Call statement
//

type CallStatement struct {
	Name     string
	NameSpan errors.Span
	Args     []Argument
	Range    errors.Span
}

func (self CallStatement) Span() errors.Span { return self.Range }

// LowerName is the routine name as Fortran compares it.
func (self CallStatement) LowerName() string { return strings.ToLower(self.Name) }

// Arg returns the keyword argument with the given name (case-insensitive).
func (self CallStatement) Arg(key string) (Argument, bool) {
	for _, arg := range self.Args {
		if arg.Key != "" && strings.EqualFold(arg.Key, key) {
			return arg, true
		}
	}
	return Argument{}, false
}

func (self CallStatement) String() string {
	return fmt.Sprintf("CALL %s(%s)", self.Name, joinArgs(self.Args))
}

type Argument struct {
	Key     string
	KeySpan errors.Span
	Value   Expression
}

func (self Argument) String() string {
	if self.Key == "" {
		return self.Value.String()
	}
	return fmt.Sprintf("%s=%s", self.Key, self.Value)
}

func joinArgs(args []Argument) string {
	parts := make([]string, len(args))
	for idx, arg := range args {
		parts[idx] = arg.String()
	}
	return strings.Join(parts, ", ")
}

//
// Expressions
//

type Expression interface {
	Kind() ExpressionKind
	Span() errors.Span
	String() string
}

type ExpressionKind uint8

const (
	StringLiteralExpressionKind ExpressionKind = iota
	NumberLiteralExpressionKind
	IdentExpressionKind
	CallExpressionKind
	ArrayExpressionKind
	GroupedExpressionKind
	PrefixExpressionKind
	InfixExpressionKind
	EmptyExpressionKind
)

//
// String literal
//

type StringLiteralExpression struct {
	// Raw source text including the quotes and any continuation.
	Value string
	Range errors.Span
}

func (self StringLiteralExpression) Kind() ExpressionKind { return StringLiteralExpressionKind }
func (self StringLiteralExpression) Span() errors.Span    { return self.Range }
func (self StringLiteralExpression) String() string       { return self.Value }

//
// Number literal
//

type NumberLiteralExpression struct {
	Value string
	Range errors.Span
}

func (self NumberLiteralExpression) Kind() ExpressionKind { return NumberLiteralExpressionKind }
func (self NumberLiteralExpression) Span() errors.Span    { return self.Range }
func (self NumberLiteralExpression) String() string       { return self.Value }

//
// Ident
//

type IdentExpression struct {
	Ident string
	Range errors.Span
}

func (self IdentExpression) Kind() ExpressionKind { return IdentExpressionKind }
func (self IdentExpression) Span() errors.Span    { return self.Range }
func (self IdentExpression) String() string       { return self.Ident }

//
// Function call or array element: name(args)
//

type CallExpression struct {
	Name     string
	NameSpan errors.Span
	Args     []Argument
	Range    errors.Span
}

func (self CallExpression) Kind() ExpressionKind { return CallExpressionKind }
func (self CallExpression) Span() errors.Span    { return self.Range }
func (self CallExpression) String() string {
	return fmt.Sprintf("%s(%s)", self.Name, joinArgs(self.Args))
}

//
// Array constructor: (/ a, b /) or [a, b]
//

type ArrayExpression struct {
	Values   []Expression
	Brackets bool
	Range    errors.Span
}

func (self ArrayExpression) Kind() ExpressionKind { return ArrayExpressionKind }
func (self ArrayExpression) Span() errors.Span    { return self.Range }
func (self ArrayExpression) String() string {
	values := make([]string, len(self.Values))
	for idx, value := range self.Values {
		values[idx] = value.String()
	}
	if self.Brackets {
		return fmt.Sprintf("[%s]", strings.Join(values, ", "))
	}
	return fmt.Sprintf("(/%s/)", strings.Join(values, ", "))
}

//
// Grouped
//

type GroupedExpression struct {
	Inner Expression
	Range errors.Span
}

func (self GroupedExpression) Kind() ExpressionKind { return GroupedExpressionKind }
func (self GroupedExpression) Span() errors.Span    { return self.Range }
func (self GroupedExpression) String() string       { return fmt.Sprintf("(%s)", self.Inner) }

//
// Prefix
//

type PrefixExpression struct {
	Operator string
	Base     Expression
	Range    errors.Span
}

func (self PrefixExpression) Kind() ExpressionKind { return PrefixExpressionKind }
func (self PrefixExpression) Span() errors.Span    { return self.Range }
func (self PrefixExpression) String() string       { return fmt.Sprintf("%s%s", self.Operator, self.Base) }

//
// Infix
//

type InfixExpression struct {
	Lhs      Expression
	Rhs      Expression
	Operator string
	Range    errors.Span
}

func (self InfixExpression) Kind() ExpressionKind { return InfixExpressionKind }
func (self InfixExpression) Span() errors.Span    { return self.Range }
func (self InfixExpression) String() string {
	return fmt.Sprintf("%s %s %s", self.Lhs, self.Operator, self.Rhs)
}

//
// Empty: the missing bound in x(:) or x(1:)
//

type EmptyExpression struct {
	Range errors.Span
}

func (self EmptyExpression) Kind() ExpressionKind { return EmptyExpressionKind }
func (self EmptyExpression) Span() errors.Span    { return self.Range }
func (self EmptyExpression) String() string       { return "" }

// Operands flattens a chain of infix expressions into its leaves.
func Operands(expr Expression) []Expression {
	if infix, ok := expr.(InfixExpression); ok {
		return append(Operands(infix.Lhs), Operands(infix.Rhs)...)
	}
	return []Expression{expr}
}

// Head returns the leftmost leaf of an expression.
func Head(expr Expression) Expression {
	switch node := expr.(type) {
	case InfixExpression:
		return Head(node.Lhs)
	default:
		return expr
	}
}
