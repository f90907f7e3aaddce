package ci

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/cp2k/fortools/fortools/textdiff"
)

// acceptableLine matches the diff lines a synopsis refresh may produce:
// change headers, changed lines and separators.
var acceptableLine = regexp.MustCompile(`^([0-9]+,*[0-9]*[adc][0-9]+,*[0-9]*$|[><] *|[><] *!| *$|---$)`)

// UnacceptableLine returns the first line of a normal format diff which is
// not on the whitelist.
func UnacceptableLine(diff string) (string, bool) {
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		if !acceptableLine.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

// CheckSynopsisDiff compares a regenerated file with its original. It
// reports whether they differ and, if the difference is not acceptable,
// the offending diff line.
func CheckSynopsisDiff(generated string, original string) (bool, string, error) {
	after, err := os.ReadFile(generated)
	if err != nil {
		return false, "", fmt.Errorf("reading %s: %w", generated, err)
	}
	before, err := os.ReadFile(original)
	if err != nil {
		return false, "", fmt.Errorf("reading %s: %w", original, err)
	}

	diff := textdiff.Normal(string(after), string(before))
	if diff == "" {
		return false, "", nil
	}
	line, _ := UnacceptableLine(diff)
	return true, line, nil
}
