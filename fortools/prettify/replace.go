package prettify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cp2k/fortools/fortools/errors"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Replacer renames whole identifiers outside strings and comments. Names
// are matched case-insensitively.
type Replacer struct {
	pattern *regexp.Regexp
	table   map[string]string
}

func NewReplacer(replacements map[string]string) (*Replacer, error) {
	table := make(map[string]string, len(replacements))
	names := make([]string, 0, len(replacements))

	for from, to := range replacements {
		if !identifier.MatchString(from) {
			return nil, fmt.Errorf("replacement source %q is not an identifier", from)
		}
		key := strings.ToLower(from)
		if _, exists := table[key]; exists {
			return nil, fmt.Errorf("replacement for %q given twice", from)
		}
		table[key] = to
		names = append(names, regexp.QuoteMeta(key))
	}

	replacer := &Replacer{table: table}
	if len(names) == 0 {
		return replacer, nil
	}

	// longest first so that a name never shadows a longer one sharing its prefix
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	replacer.pattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(names, "|") + `)\b`)
	return replacer, nil
}

func (self *Replacer) Replace(filename string, text string) (string, *errors.Error) {
	if self == nil || self.pattern == nil {
		return text, nil
	}
	return transformCode(filename, text, func(code string) string {
		return self.pattern.ReplaceAllStringFunc(code, func(word string) string {
			return self.table[strings.ToLower(word)]
		})
	})
}
