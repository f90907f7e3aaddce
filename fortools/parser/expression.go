package parser

import (
	"github.com/cp2k/fortools/fortools/errors"
	"github.com/cp2k/fortools/fortools/lexer"
	"github.com/cp2k/fortools/fortools/parser/ast"
)

//
//	Expression
//

// expression parses `operand {operator operand}`. Operator precedence is
// irrelevant for locating arguments, so chains are folded to the left.
func (self *Parser) expression() (ast.Expression, *errors.Error) {
	lhs, err := self.operand()
	if err != nil {
		return nil, err
	}

	for self.CurrentToken.Kind.IsBinaryOperator() {
		operator := self.CurrentToken
		if err := self.next(); err != nil {
			return nil, err
		}

		var rhs ast.Expression
		if operator.Kind == lexer.Colon && self.atListEnd() {
			// open upper bound: x(1:)
			rhs = ast.EmptyExpression{Range: operator.Span}
		} else {
			rhs, err = self.operand()
			if err != nil {
				return nil, err
			}
		}

		lhs = ast.InfixExpression{
			Lhs:      lhs,
			Rhs:      rhs,
			Operator: operator.Value,
			Range: errors.Span{
				Start:    lhs.Span().Start,
				End:      rhs.Span().End,
				Filename: self.Filename,
			},
		}
	}

	return lhs, nil
}

func (self *Parser) atListEnd() bool {
	switch self.CurrentToken.Kind {
	case lexer.Comma, lexer.RParen, lexer.RList, lexer.RBracket:
		return true
	default:
		return false
	}
}

func (self *Parser) operand() (ast.Expression, *errors.Error) {
	start := self.CurrentToken.Span.Start

	switch self.CurrentToken.Kind {
	case lexer.String:
		token := self.CurrentToken
		if err := self.next(); err != nil {
			return nil, err
		}
		return ast.StringLiteralExpression{Value: token.Value, Range: token.Span}, nil
	case lexer.Number:
		token := self.CurrentToken
		if err := self.next(); err != nil {
			return nil, err
		}
		return ast.NumberLiteralExpression{Value: token.Value, Range: token.Span}, nil
	case lexer.Name:
		return self.nameOrCall()
	case lexer.Plus, lexer.Minus, lexer.DotOperator:
		operator := self.CurrentToken.Value
		if err := self.next(); err != nil {
			return nil, err
		}
		base, err := self.operand()
		if err != nil {
			return nil, err
		}
		return ast.PrefixExpression{
			Operator: operator,
			Base:     base,
			Range:    self.spanFrom(start),
		}, nil
	case lexer.Colon:
		// open lower bound: x(:n), left for the infix loop
		return ast.EmptyExpression{Range: self.CurrentToken.Span}, nil
	case lexer.LParen:
		return self.groupedExpression()
	case lexer.LList:
		return self.arrayExpression(lexer.RList, false)
	case lexer.LBracket:
		return self.arrayExpression(lexer.RBracket, true)
	default:
		return nil, self.expectedOneOfErr([]lexer.TokenKind{
			lexer.String,
			lexer.Number,
			lexer.Name,
			lexer.LParen,
			lexer.LList,
			lexer.LBracket,
		})
	}
}

// nameOrCall parses `name`, `name(args)` and chained references such as
// `name(i)(1:3)`.
func (self *Parser) nameOrCall() (ast.Expression, *errors.Error) {
	name := self.CurrentToken
	if err := self.next(); err != nil {
		return nil, err
	}

	if self.CurrentToken.Kind != lexer.LParen {
		return ast.IdentExpression{Ident: name.Value, Range: name.Span}, nil
	}

	var call ast.CallExpression
	for self.CurrentToken.Kind == lexer.LParen {
		args, err := self.arguments(lexer.RParen)
		if err != nil {
			return nil, err
		}
		if call.Name == "" {
			call = ast.CallExpression{
				Name:     name.Value,
				NameSpan: name.Span,
				Args:     args,
			}
		} else {
			call.Args = append(call.Args, args...)
		}
	}
	call.Range = self.spanFrom(name.Span.Start)

	return call, nil
}

// groupedExpression parses `(expr)`, complex literals `(a, b)` and
// implied-do loops `(f(i), i=1,n)`.
func (self *Parser) groupedExpression() (ast.Expression, *errors.Error) {
	start := self.CurrentToken.Span.Start

	items, err := self.arguments(lexer.RParen)
	if err != nil {
		return nil, err
	}

	if len(items) == 1 && items[0].Key == "" {
		return ast.GroupedExpression{
			Inner: items[0].Value,
			Range: self.spanFrom(start),
		}, nil
	}

	values := make([]ast.Expression, len(items))
	for idx, item := range items {
		values[idx] = item.Value
	}
	return ast.ArrayExpression{
		Values: values,
		Range:  self.spanFrom(start),
	}, nil
}

func (self *Parser) arrayExpression(closing lexer.TokenKind, brackets bool) (ast.Expression, *errors.Error) {
	start := self.CurrentToken.Span.Start

	items, err := self.arguments(closing)
	if err != nil {
		return nil, err
	}

	values := make([]ast.Expression, len(items))
	for idx, item := range items {
		values[idx] = item.Value
	}

	return ast.ArrayExpression{
		Values:   values,
		Brackets: brackets,
		Range:    self.spanFrom(start),
	}, nil
}
