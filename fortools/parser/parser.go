package parser

import (
	"strings"

	"github.com/cp2k/fortools/fortools/errors"
	"github.com/cp2k/fortools/fortools/lexer"
	"github.com/cp2k/fortools/fortools/parser/ast"
)

// Parser reads single CALL statements out of a Fortran source. It does not
// try to understand the rest of the file: the caller decides where a
// statement starts and the parser either returns the statement or a
// syntax error.
type Parser struct {
	Lexer         lexer.Lexer
	PreviousToken lexer.Token
	CurrentToken  lexer.Token
	Filename      string
}

func NewParser(lex lexer.Lexer, filename string) Parser {
	return Parser{
		Lexer:         lex,
		PreviousToken: lexer.UnknownToken(errors.Location{}),
		CurrentToken:  lexer.UnknownToken(errors.Location{}),
		Filename:      filename,
	}
}

func (self *Parser) next() *errors.Error {
	token, err := self.Lexer.NextToken()
	if err != nil {
		return err
	}

	self.PreviousToken = self.CurrentToken
	self.CurrentToken = token
	return nil
}

// ParseCallAt parses `CALL name(args)` starting at the given location,
// which must point at the CALL keyword or at blanks before it.
func (self *Parser) ParseCallAt(location errors.Location) (ast.CallStatement, *errors.Error) {
	self.Lexer.Seek(location)
	self.PreviousToken = lexer.UnknownToken(location)
	if err := self.next(); err != nil {
		return ast.CallStatement{}, err
	}

	if self.CurrentToken.Kind != lexer.Name || !strings.EqualFold(self.CurrentToken.Value, "call") {
		return ast.CallStatement{}, errors.NewSyntaxError(
			self.CurrentToken.Span,
			"Expected 'CALL', found '"+self.CurrentToken.Value+"'",
		)
	}
	start := self.CurrentToken.Span.Start

	if err := self.next(); err != nil {
		return ast.CallStatement{}, err
	}

	if self.CurrentToken.Kind != lexer.Name {
		return ast.CallStatement{}, self.expectedOneOfErr([]lexer.TokenKind{lexer.Name})
	}
	name := self.CurrentToken

	if err := self.next(); err != nil {
		return ast.CallStatement{}, err
	}

	if self.CurrentToken.Kind != lexer.LParen {
		return ast.CallStatement{}, self.expectedOneOfErr([]lexer.TokenKind{lexer.LParen})
	}

	args, err := self.arguments(lexer.RParen)
	if err != nil {
		return ast.CallStatement{}, err
	}

	return ast.CallStatement{
		Name:     name.Value,
		NameSpan: name.Span,
		Args:     args,
		Range:    self.spanFrom(start),
	}, nil
}

// ParseCall parses a program which consists of exactly one CALL statement.
func ParseCall(program string, filename string) (ast.CallStatement, *errors.Error) {
	parser := NewParser(lexer.NewLexer(program, filename), filename)
	return parser.ParseCallAt(errors.NewLocation())
}

// arguments parses a delimited argument list; the current token is the
// opening delimiter.
func (self *Parser) arguments(closing lexer.TokenKind) ([]ast.Argument, *errors.Error) {
	args := make([]ast.Argument, 0)

	if err := self.next(); err != nil {
		return nil, err
	}

	if self.CurrentToken.Kind == closing {
		if err := self.next(); err != nil {
			return nil, err
		}
		return args, nil
	}

	for {
		arg, err := self.argument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if self.CurrentToken.Kind == lexer.Comma {
			if err := self.next(); err != nil {
				return nil, err
			}
			continue
		}

		if self.CurrentToken.Kind != closing {
			return nil, self.expectedOneOfErr([]lexer.TokenKind{lexer.Comma, closing})
		}

		if err := self.expect(closing); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// argument parses `expr` or `key = expr`.
func (self *Parser) argument() (ast.Argument, *errors.Error) {
	expr, err := self.expression()
	if err != nil {
		return ast.Argument{}, err
	}

	ident, isIdent := expr.(ast.IdentExpression)
	if !isIdent || self.CurrentToken.Kind != lexer.Assign {
		return ast.Argument{Value: expr}, nil
	}

	if err := self.next(); err != nil {
		return ast.Argument{}, err
	}

	value, err := self.expression()
	if err != nil {
		return ast.Argument{}, err
	}

	return ast.Argument{
		Key:     ident.Ident,
		KeySpan: ident.Range,
		Value:   value,
	}, nil
}
