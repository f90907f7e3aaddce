package parser

import (
	"fmt"

	"github.com/cp2k/fortools/fortools/errors"
	"github.com/cp2k/fortools/fortools/lexer"
)

func (self *Parser) expect(expected lexer.TokenKind) *errors.Error {
	if self.CurrentToken.Kind != expected {
		return errors.NewSyntaxError(
			self.CurrentToken.Span,
			fmt.Sprintf("Expected '%s', found '%s'", expected, self.CurrentToken.Kind),
		)
	}

	if err := self.next(); err != nil {
		return err
	}

	return nil
}

func (self Parser) expectedOneOfErr(expected []lexer.TokenKind) *errors.Error {
	message := ""

	if len(expected) == 1 {
		message = fmt.Sprintf("'%s'", expected[0])
	} else if len(expected) == 2 {
		message = fmt.Sprintf("either '%s' or '%s'", expected[0], expected[1])
	} else {
		for idx, expectedItem := range expected {
			if idx == len(expected)-1 {
				message += ", or "
			} else if message != "" {
				message += ", "
			}
			message += fmt.Sprintf("'%s'", expectedItem)
		}
	}

	return errors.NewSyntaxError(
		self.CurrentToken.Span,
		fmt.Sprintf("Expected %s, found '%s'", message, self.CurrentToken.Kind),
	)
}

func (self Parser) spanFrom(start errors.Location) errors.Span {
	return errors.Span{
		Start:    start,
		End:      self.PreviousToken.Span.End,
		Filename: self.Filename,
	}
}
