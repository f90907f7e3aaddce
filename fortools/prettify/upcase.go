package prettify

import (
	"strings"

	"github.com/cp2k/fortools/fortools/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Upcase writes Fortran keywords, logical operators and intrinsic
// procedures in upper case. Strings and comments are left alone.
func Upcase(filename string, text string) (string, *errors.Error) {
	upper := cases.Upper(language.Und)
	return transformCode(filename, text, func(code string) string {
		return upcaseCode(code, upper)
	})
}

// UpcaseLine is Upcase for a single line.
func UpcaseLine(line string) (string, *errors.Error) {
	return Upcase("", line)
}

func isIdentChar(char byte) bool {
	return char == '_' || (char >= '0' && char <= '9') || isLetter(char)
}

func isLetter(char byte) bool {
	return (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z')
}

// wordStart reports whether a word may start at idx: names glued to
// identifiers, derived type components or preprocessor directives are not
// keywords.
func wordStart(code string, idx int) bool {
	if idx == 0 {
		return true
	}
	prev := code[idx-1]
	if isIdentChar(prev) || prev == '%' || prev == '#' {
		return false
	}
	return !(idx >= 2 && code[idx-2:idx] == "% ")
}

func wordEnd(code string, idx int) bool {
	return idx >= len(code) || !(isIdentChar(code[idx]) || code[idx] == '%')
}

func followedByParen(code string, idx int) bool {
	for idx < len(code) && code[idx] == ' ' {
		idx++
	}
	return idx < len(code) && code[idx] == '('
}

func upcaseCode(code string, upper cases.Caser) string {
	var out strings.Builder
	out.Grow(len(code))

	idx := 0
	for idx < len(code) {
		char := code[idx]

		switch {
		case char == '.':
			end := idx + 1
			for end < len(code) && isLetter(code[end]) {
				end++
			}
			if end > idx+1 && end < len(code) && code[end] == '.' {
				word := code[idx : end+1]
				if _, ok := operators[strings.ToLower(word[1:len(word)-1])]; ok && wordStart(code, idx) && wordEnd(code, end+1) {
					word = upper.String(word)
				}
				out.WriteString(word)
				idx = end + 1
				continue
			}
			out.WriteByte(char)
			idx++
		case isLetter(char):
			end := idx + 1
			for end < len(code) && isIdentChar(code[end]) {
				end++
			}
			word := code[idx:end]
			if wordStart(code, idx) && wordEnd(code, end) {
				lower := strings.ToLower(word)
				_, isKeyword := keywords[lower]
				_, isIntrinsic := intrinsics[lower]
				if isKeyword || (isIntrinsic && followedByParen(code, end)) {
					word = upper.String(word)
				}
			}
			out.WriteString(word)
			idx = end
		case isIdentChar(char):
			end := idx + 1
			for end < len(code) && isIdentChar(code[end]) {
				end++
			}
			out.WriteString(code[idx:end])
			idx = end
		default:
			out.WriteByte(char)
			idx++
		}
	}

	return out.String()
}
