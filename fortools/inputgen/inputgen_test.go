package inputgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cp2k/fortools/fortools/directive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReferences(t *testing.T) {
	input := "# size energy\n2 -1.000000\n\n3   -3.000000  extra\n 13 -44.326801\n"

	references, err := ReadReferences(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, References{2: -1, 3: -3, 13: -44.326801}, references)
}

func TestReadReferencesErrors(t *testing.T) {
	tests := []struct {
		Name    string
		Input   string
		Message string
	}{
		{Name: "Missing value", Input: "2 -1.0\n3\n", Message: "line 2"},
		{Name: "Bad size", Input: "two -1.0\n", Message: "invalid size"},
		{Name: "Bad value", Input: "2 low\n", Message: "invalid value"},
	}

	for idx, test := range tests {
		t.Run(fmt.Sprintf("(%d/%d): %s", idx+1, len(tests), test.Name), func(t *testing.T) {
			_, err := ReadReferences(strings.NewReader(test.Input))
			assert.ErrorContains(t, err, test.Message)
		})
	}
}

func TestCoordinates(t *testing.T) {
	atoms, err := Coordinates(8, 1.5)
	require.NoError(t, err)

	records := make([]string, len(atoms))
	for idx, atom := range atoms {
		records[idx] = atom.Record()
	}
	assert.Equal(t, []string{
		"X 0.000000 0.000000 0.000000",
		"X 1.500000 0.000000 0.000000",
		"X 0.000000 1.500000 0.000000",
		"X 1.500000 1.500000 0.000000",
		"X 0.000000 0.000000 1.500000",
		"X 1.500000 0.000000 1.500000",
		"X 0.000000 1.500000 1.500000",
		"X 1.500000 1.500000 1.500000",
	}, records)
}

func TestCoordinatesSmall(t *testing.T) {
	atoms, err := Coordinates(2, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []Atom{
		{Label: "X", X: 0, Y: 0, Z: 0},
		{Label: "X", X: 0, Y: 0, Z: 1.5},
	}, atoms)
}

func TestCoordinatesDistinct(t *testing.T) {
	for size := 1; size <= 100; size++ {
		atoms, err := Coordinates(size, 1.0)
		require.NoError(t, err, "size %d", size)
		require.Len(t, atoms, size)

		seen := make(map[Atom]bool, size)
		for _, atom := range atoms {
			assert.False(t, seen[atom], "size %d: duplicate %v", size, atom)
			seen[atom] = true
		}
	}
}

func TestCoordinatesInvalid(t *testing.T) {
	_, err := Coordinates(0, 1.5)
	assert.Error(t, err)
	_, err = Coordinates(4, 0)
	assert.Error(t, err)
}

func TestDocument(t *testing.T) {
	document, err := Document(2, -0.00099999, 1.5)
	require.NoError(t, err)
	text := document.String()

	assert.True(t, strings.HasPrefix(text, `&GLOBAL
  PROGRAM_NAME GLOBAL_OPT
  RUN_TYPE NONE
  PROJECT_NAME LJ002
&END GLOBAL
&GLOBAL_OPT
  NUMBER_OF_WALKERS 1
  Emin -0.001000
&END GLOBAL_OPT

&MOTION
`), text)
	assert.Contains(t, text, "    &COORD\n      X 0.000000 0.000000 0.000000\n      X 0.000000 0.000000 1.500000\n    &END COORD\n")
	assert.True(t, strings.HasSuffix(text, "  STRESS_TENSOR ANALYTICAL\n&END FORCE_EVAL\n"), text)

	parsed, err := directive.ParseString(text)
	require.NoError(t, err)

	bfgs, ok := parsed.Section("MOTION", "GEO_OPT", "BFGS")
	require.True(t, ok)
	_, ok = bfgs.Section("RESTART", "EACH")
	assert.True(t, ok)

	kind, ok := parsed.Section("FORCE_EVAL", "SUBSYS", "KIND")
	require.True(t, ok)
	assert.Equal(t, "X", kind.Params)
}

func TestGeneratorRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inputs")
	generator, err := NewGenerator(Options{
		References:      References{2: -1.0, 3: -3.0},
		MinSize:         2,
		MaxSize:         3,
		EnergyFactor:    0.00099999,
		LatticeConstant: 1.5,
		OutputDir:       dir,
		Check:           true,
	}, nil)
	require.NoError(t, err)

	written, err := generator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "LJ002.inp"), filepath.Join(dir, "LJ003.inp")}, written)

	content, err := os.ReadFile(written[1])
	require.NoError(t, err)
	document, err := directive.ParseString(string(content))
	require.NoError(t, err)

	globalOpt, ok := document.Section("GLOBAL_OPT")
	require.True(t, ok)
	emin, ok := globalOpt.Keyword("EMIN")
	require.True(t, ok)
	assert.Equal(t, []string{"-0.003000"}, emin.Values)

	coord, ok := document.Section("FORCE_EVAL", "SUBSYS", "COORD")
	require.True(t, ok)
	assert.Len(t, coord.Keywords("X"), 3)
}

func TestGeneratorMissingReference(t *testing.T) {
	generator, err := NewGenerator(Options{
		References:      References{2: -1.0},
		MinSize:         2,
		MaxSize:         4,
		LatticeConstant: 1.5,
		OutputDir:       t.TempDir(),
	}, nil)
	require.NoError(t, err)

	written, err := generator.Run(context.Background())
	assert.ErrorContains(t, err, "no reference energy for size 3")
	assert.Len(t, written, 1)
}

func TestNewGeneratorInvalid(t *testing.T) {
	_, err := NewGenerator(Options{MinSize: 5, MaxSize: 2}, nil)
	assert.Error(t, err)

	_, err = NewGenerator(Options{MinSize: 1, MaxSize: 2, OutputPattern: "fixed.inp"}, nil)
	assert.Error(t, err)
}

func TestGeneratorCancelled(t *testing.T) {
	generator, err := NewGenerator(Options{
		References:      References{2: -1.0},
		MinSize:         2,
		MaxSize:         2,
		LatticeConstant: 1.5,
		OutputDir:       t.TempDir(),
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = generator.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
