package lexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cp2k/fortools/fortools/errors"
)

//
// Lexer
//

// Lexer tokenizes free-form Fortran well enough to read the argument lists
// of CALL statements. Offsets are byte offsets into the source so that
// token spans can be used to splice the text.
type Lexer struct {
	currentIndex int
	currentChar  *byte
	nextChar     *byte
	program      []byte
	location     errors.Location
	filename     string
	depth        int
}

func NewLexer(program string, filename string) Lexer {
	lexer := Lexer{
		program:  []byte(program),
		filename: filename,
	}
	lexer.Seek(errors.NewLocation())
	return lexer
}

// Seek moves the lexer to an arbitrary location. The location must be
// consistent with the program, see LineIndex.
func (self *Lexer) Seek(location errors.Location) {
	self.location = location
	self.currentIndex = location.Index
	self.depth = 0
	self.updateChars()
}

func (self *Lexer) Location() errors.Location {
	return self.location
}

func (self *Lexer) updateChars() {
	programLen := len(self.program)

	if self.currentIndex >= programLen {
		self.currentChar = nil
	} else {
		self.currentChar = &self.program[self.currentIndex]
	}

	if self.currentIndex+1 >= programLen {
		self.nextChar = nil
	} else {
		self.nextChar = &self.program[self.currentIndex+1]
	}
}

func (self *Lexer) advance() {
	self.location.Advance(self.currentChar != nil && *self.currentChar == '\n')
	self.currentIndex++
	self.updateChars()
}

func (self *Lexer) span(start errors.Location, end errors.Location) errors.Span {
	return errors.Span{
		Start:    start,
		End:      end,
		Filename: self.filename,
	}
}

func (self *Lexer) errorAt(start errors.Location, message string) *errors.Error {
	return errors.NewSyntaxError(self.span(start, self.location), message)
}

func (self *Lexer) skipComment() {
	for self.currentChar != nil && *self.currentChar != '\n' {
		self.advance()
	}
}

func (self *Lexer) skipBlanks() {
	for self.currentChar != nil && (*self.currentChar == ' ' || *self.currentChar == '\t' || *self.currentChar == '\r') {
		self.advance()
	}
}

// skipContinuation consumes '&', the rest of the line, any blank,
// comment-only or preprocessor lines and the optional leading '&' of the
// continuation line.
func (self *Lexer) skipContinuation() *errors.Error {
	start := self.location
	self.advance()
	self.skipBlanks()

	if self.currentChar != nil && *self.currentChar == '!' {
		self.skipComment()
	}

	if self.currentChar == nil {
		return nil
	}

	if *self.currentChar != '\n' {
		return self.errorAt(start, fmt.Sprintf("Expected end of line after '&', found '%c'", *self.currentChar))
	}
	self.advance()

	for {
		self.skipBlanks()
		if self.currentChar == nil {
			return nil
		}

		switch *self.currentChar {
		case '\n':
			self.advance()
		case '!', '#':
			self.skipComment()
		case '&':
			self.advance()
			return nil
		default:
			return nil
		}
	}
}

func (self *Lexer) NextToken() (Token, *errors.Error) {
	for self.currentChar != nil {
		switch *self.currentChar {
		case ' ', '\t', '\r':
			self.advance()
		case '\n', ';':
			if self.depth > 0 {
				self.advance()
				continue
			}
			return self.makeSingleChar(Newline), nil
		case '!':
			self.skipComment()
		case '&':
			if err := self.skipContinuation(); err != nil {
				return unknownToken(self.location), err
			}
		case '\'', '"':
			return self.makeString()
		case '(':
			self.depth++
			if self.nextChar != nil && *self.nextChar == '/' {
				return self.makeDoubleChar(LList), nil
			}
			return self.makeSingleChar(LParen), nil
		case ')':
			self.closeDepth()
			return self.makeSingleChar(RParen), nil
		case '[':
			self.depth++
			return self.makeSingleChar(LBracket), nil
		case ']':
			self.closeDepth()
			return self.makeSingleChar(RBracket), nil
		case ',':
			return self.makeSingleChar(Comma), nil
		case ':':
			return self.makeSingleChar(Colon), nil
		case '+':
			return self.makeSingleChar(Plus), nil
		case '-':
			return self.makeSingleChar(Minus), nil
		case '=':
			if self.nextChar != nil {
				switch *self.nextChar {
				case '=':
					return self.makeDoubleChar(Equal), nil
				case '>':
					return self.makeDoubleChar(Arrow), nil
				}
			}
			return self.makeSingleChar(Assign), nil
		case '*':
			if self.nextChar != nil && *self.nextChar == '*' {
				return self.makeDoubleChar(Power), nil
			}
			return self.makeSingleChar(Star), nil
		case '/':
			if self.nextChar != nil {
				switch *self.nextChar {
				case '/':
					return self.makeDoubleChar(Concat), nil
				case '=':
					return self.makeDoubleChar(NotEqual), nil
				case ')':
					self.closeDepth()
					return self.makeDoubleChar(RList), nil
				}
			}
			return self.makeSingleChar(Slash), nil
		case '<':
			if self.nextChar != nil && *self.nextChar == '=' {
				return self.makeDoubleChar(LessEqual), nil
			}
			return self.makeSingleChar(Less), nil
		case '>':
			if self.nextChar != nil && *self.nextChar == '=' {
				return self.makeDoubleChar(GreaterEqual), nil
			}
			return self.makeSingleChar(Greater), nil
		case '.':
			if self.nextChar != nil && isDigit(*self.nextChar) {
				return self.makeNumber(), nil
			}
			return self.makeDotted()
		default:
			if isDigit(*self.currentChar) {
				return self.makeNumber(), nil
			}
			if isLetter(*self.currentChar) {
				return self.makeName(), nil
			}
			return unknownToken(self.location), errors.NewSyntaxError(
				self.span(self.location, self.location),
				fmt.Sprintf("illegal character: %q", *self.currentChar),
			)
		}
	}

	return newToken(EOF, "EOF", self.span(self.location, self.location)), nil
}

func (self *Lexer) closeDepth() {
	if self.depth > 0 {
		self.depth--
	}
}

func (self *Lexer) makeSingleChar(kind TokenKind) Token {
	start := self.location
	value := string(*self.currentChar)
	self.advance()
	return newToken(kind, value, self.span(start, start))
}

func (self *Lexer) makeDoubleChar(kind TokenKind) Token {
	start := self.location
	value := string([]byte{*self.currentChar, *self.nextChar})
	self.advance()
	end := self.location
	self.advance()
	return newToken(kind, value, self.span(start, end))
}

func (self *Lexer) makeString() (Token, *errors.Error) {
	start := self.location
	quote := *self.currentChar

	// skip opening quote
	self.advance()

	for {
		if self.currentChar == nil || *self.currentChar == '\n' {
			return unknownToken(start), self.errorAt(start, "String literal never closed")
		}

		switch *self.currentChar {
		case quote:
			if self.nextChar != nil && *self.nextChar == quote {
				self.advance()
				self.advance()
				continue
			}

			end := self.location
			self.advance()
			return newToken(
				String,
				string(self.program[start.Index:end.Index+1]),
				self.span(start, end),
			), nil
		case '&':
			if !self.ampersandEndsLine() {
				self.advance()
				continue
			}

			// continued character context: resume after the leading '&'
			for self.currentChar != nil && *self.currentChar != '\n' {
				self.advance()
			}
			self.advance()
			self.skipBlanks()
			if self.currentChar != nil && *self.currentChar == '&' {
				self.advance()
			}
		default:
			self.advance()
		}
	}
}

func (self *Lexer) ampersandEndsLine() bool {
	for idx := self.currentIndex + 1; idx < len(self.program); idx++ {
		switch self.program[idx] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return false
}

func (self *Lexer) makeNumber() Token {
	start := self.location
	end := start

	consumeDigits := func() {
		for self.currentChar != nil && isDigit(*self.currentChar) {
			end = self.location
			self.advance()
		}
	}

	consumeDigits()

	if self.currentChar != nil && *self.currentChar == '.' && !self.dottedOperatorAhead() {
		end = self.location
		self.advance()
		consumeDigits()
	}

	// exponent: 1.0E-10, 1.0d0
	if self.currentChar != nil && strings.ContainsRune("eEdDqQ", rune(*self.currentChar)) {
		next := self.nextChar
		if next != nil && (isDigit(*next) || *next == '+' || *next == '-') {
			end = self.location
			self.advance()
			if *self.currentChar == '+' || *self.currentChar == '-' {
				end = self.location
				self.advance()
			}
			consumeDigits()
		}
	}

	// kind parameter: 1.0_dp
	if self.currentChar != nil && *self.currentChar == '_' {
		for self.currentChar != nil && isIdentChar(*self.currentChar) {
			end = self.location
			self.advance()
		}
	}

	return newToken(Number, string(self.program[start.Index:end.Index+1]), self.span(start, end))
}

// dottedOperatorAhead reports whether the '.' at the current position
// starts something like '.and.' rather than a decimal point.
func (self *Lexer) dottedOperatorAhead() bool {
	idx := self.currentIndex + 1
	letters := 0
	for idx < len(self.program) && isAlpha(self.program[idx]) {
		idx++
		letters++
	}
	if letters == 0 || idx >= len(self.program) || self.program[idx] != '.' {
		return false
	}

	word := strings.ToLower(string(self.program[self.currentIndex+1 : idx]))
	switch word {
	case "e", "d", "q":
		return false
	default:
		return true
	}
}

func (self *Lexer) makeDotted() (Token, *errors.Error) {
	start := self.location
	self.advance()

	for self.currentChar != nil && isAlpha(*self.currentChar) {
		self.advance()
	}

	if self.currentChar == nil || *self.currentChar != '.' || self.location.Index == start.Index+1 {
		return unknownToken(start), self.errorAt(start, "Expected a dotted operator like '.and.'")
	}

	end := self.location
	self.advance()

	word := string(self.program[start.Index : end.Index+1])
	switch strings.ToLower(word) {
	case ".true.", ".false.":
		if self.currentChar != nil && *self.currentChar == '_' {
			for self.currentChar != nil && isIdentChar(*self.currentChar) {
				end = self.location
				self.advance()
			}
			word = string(self.program[start.Index : end.Index+1])
		}
		return newToken(Name, word, self.span(start, end)), nil
	default:
		return newToken(DotOperator, word, self.span(start, end)), nil
	}
}

func (self *Lexer) makeName() Token {
	start := self.location
	end := start

	for self.currentChar != nil {
		if isIdentChar(*self.currentChar) {
			end = self.location
			self.advance()
			continue
		}
		// derived type component: a%b
		if *self.currentChar == '%' && self.nextChar != nil && isLetter(*self.nextChar) {
			end = self.location
			self.advance()
			continue
		}
		break
	}

	return newToken(Name, string(self.program[start.Index:end.Index+1]), self.span(start, end))
}

//
// Character classes
//

func isDigit(char byte) bool     { return char >= '0' && char <= '9' }
func isAlpha(char byte) bool     { return (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') }
func isLetter(char byte) bool    { return isAlpha(char) || char == '_' }
func isIdentChar(char byte) bool { return isLetter(char) || isDigit(char) }

//
// Line index
//

// LineIndex maps byte offsets to line/column locations.
type LineIndex struct {
	starts []int
}

func NewLineIndex(program string) LineIndex {
	starts := []int{0}
	for idx := 0; idx < len(program); idx++ {
		if program[idx] == '\n' {
			starts = append(starts, idx+1)
		}
	}
	return LineIndex{starts: starts}
}

func (self LineIndex) Location(offset int) errors.Location {
	line := sort.Search(len(self.starts), func(i int) bool { return self.starts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return errors.Location{
		Line:   line + 1,
		Column: offset - self.starts[line] + 1,
		Index:  offset,
	}
}

// Span returns the inclusive span covering the bytes [start, end).
func (self LineIndex) Span(filename string, start int, end int) errors.Span {
	last := end - 1
	if last < start {
		last = start
	}
	return errors.Span{
		Start:    self.Location(start),
		End:      self.Location(last),
		Filename: filename,
	}
}
