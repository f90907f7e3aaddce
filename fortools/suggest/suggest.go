// Package suggest proposes the closest known name for a mistyped one.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Closest returns the candidate nearest to name, provided the edit distance
// is small relative to the length of name.
func Closest(name string, candidates []string) (string, bool) {
	lower := strings.ToLower(name)
	best := ""
	bestDistance := -1

	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(lower, strings.ToLower(candidate))
		if bestDistance < 0 || distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}

	if bestDistance < 0 || bestDistance > maxDistance(name) {
		return "", false
	}
	return best, true
}

func maxDistance(name string) int {
	limit := len(name) / 2
	if limit < 1 {
		return 1
	}
	if limit > 4 {
		return 4
	}
	return limit
}

// UnknownError builds the error for an unknown name of the given kind,
// mentioning the closest candidate or else listing all of them.
func UnknownError(kind string, name string, candidates []string) error {
	if hint, ok := Closest(name, candidates); ok {
		return fmt.Errorf("unknown %s '%s', did you mean '%s'?", kind, name, hint)
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	return fmt.Errorf("unknown %s '%s', expected one of: %s", kind, name, strings.Join(sorted, ", "))
}
