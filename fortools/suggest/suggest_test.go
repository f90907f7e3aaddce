package suggest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosest(t *testing.T) {
	candidates := []string{"tools", "templates", "build-sdbg", "synopsis", "build-sopt", "vcs"}

	tests := []struct {
		Name     string
		Input    string
		Expected string
		Found    bool
	}{
		{Name: "Exact", Input: "synopsis", Expected: "synopsis", Found: true},
		{Name: "Typo", Input: "synopsys", Expected: "synopsis", Found: true},
		{Name: "Case", Input: "TOOLS", Expected: "tools", Found: true},
		{Name: "Transposed", Input: "build-sobt", Expected: "build-sopt", Found: true},
		{Name: "Unrelated", Input: "deploy-everything", Found: false},
		{Name: "Short", Input: "x", Found: false},
	}

	for idx, test := range tests {
		t.Run(fmt.Sprintf("(%d/%d): %s", idx+1, len(tests), test.Name), func(t *testing.T) {
			hint, found := Closest(test.Input, candidates)
			assert.Equal(t, test.Found, found)
			assert.Equal(t, test.Expected, hint)
		})
	}
}

func TestClosestNoCandidates(t *testing.T) {
	_, found := Closest("slurm", nil)
	assert.False(t, found)
}

func TestUnknownError(t *testing.T) {
	err := UnknownError("scheduler", "slrum", []string{"slurm", "pbs"})
	assert.EqualError(t, err, "unknown scheduler 'slrum', did you mean 'slurm'?")

	err = UnknownError("scheduler", "kubernetes", []string{"slurm", "pbs"})
	assert.EqualError(t, err, "unknown scheduler 'kubernetes', expected one of: pbs, slurm")
}
