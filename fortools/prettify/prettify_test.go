package prettify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upcaseTest struct {
	Name     string
	Input    string
	Expected string
}

var upcaseTests = []upcaseTest{
	{Name: "Keywords", Input: "  call foo(a, b) ! call me\n", Expected: "  CALL foo(a, b) ! call me\n"},
	{Name: "Operators", Input: "if (a .and. .not. b) then", Expected: "IF (a .AND. .NOT. b) THEN"},
	{Name: "Glued operator", Input: "x = a.or.b", Expected: "x = a.or.b"},
	{Name: "Intrinsic call", Input: "x = size(arr) + size", Expected: "x = SIZE(arr) + size"},
	{Name: "Intrinsic with blank", Input: "n = len_trim (s)", Expected: "n = LEN_TRIM (s)"},
	{Name: "Strings", Input: "print *, \"do not touch if\"", Expected: "PRINT *, \"do not touch if\""},
	{Name: "Doubled quote", Input: "s = 'it''s if' // trim(t)", Expected: "s = 'it''s if' // TRIM(t)"},
	{Name: "Component", Input: "obj%type = 1", Expected: "obj%type = 1"},
	{Name: "Component with blank", Input: "obj% type = 1", Expected: "obj% type = 1"},
	{Name: "Component prefix", Input: "x = real%value", Expected: "x = real%value"},
	{Name: "Preprocessor", Input: "#if defined(__parallel)", Expected: "#if defined(__parallel)"},
	{Name: "Kind selector", Input: "real(kind=dp) :: x", Expected: "REAL(kind=dp) :: x"},
	{Name: "Identifiers", Input: "integer_value = do_loop + 1.0e0_dp", Expected: "integer_value = do_loop + 1.0e0_dp"},
	{Name: "Number operator", Input: "ok = 1 .eq. x", Expected: "ok = 1 .EQ. x"},
	{Name: "Apostrophe in comment", Input: "end ! don't", Expected: "END ! don't"},
	{
		Name:     "Continued string",
		Input:    "msg = \"first part &\n      &second if\"\nend\n",
		Expected: "msg = \"first part &\n      &second if\"\nEND\n",
	},
}

func TestUpcase(t *testing.T) {
	for idx, test := range upcaseTests {
		t.Run(fmt.Sprintf("(%d/%d): %s", idx+1, len(upcaseTests), test.Name), func(t *testing.T) {
			result, err := UpcaseLine(test.Input)
			require.Nil(t, err)
			assert.Equal(t, test.Expected, result)
		})
	}
}

func TestUpcaseUnterminatedString(t *testing.T) {
	_, err := Upcase("broken.F", "x = 1\ny = 'open\nz = 2\n")
	require.NotNil(t, err)
	assert.Equal(t, 2, err.Span.Start.Line)
	assert.Equal(t, "broken.F", err.Span.Filename)

	_, err = Upcase("broken.F", "s = \"never closed &")
	assert.NotNil(t, err)
}

func TestNormalizeUse(t *testing.T) {
	input := strings.Join([]string{
		"MODULE m",
		"  use Kinds, only : dp, sp,dp",
		"  USE cp_log_handling,   ONLY: cp_logger_type, &",
		"       cp_to_string, cp_logger_type",
		"  USE message_passing",
		"  USE readonly_types",
		"  USE input_val, ONLY: a ! keep",
		"  use, intrinsic :: iso_c_binding",
		"  USE m2, ONLY: a=>b,c  =>  d",
		"  USE empty_list, ONLY:",
		"END MODULE m",
		"",
	}, "\n")

	expected := strings.Join([]string{
		"MODULE m",
		"  USE kinds, ONLY: dp, sp",
		"  USE cp_log_handling, ONLY: cp_logger_type, cp_to_string",
		"  USE message_passing",
		"  USE readonly_types",
		"  USE input_val, ONLY: a ! keep",
		"  use, intrinsic :: iso_c_binding",
		"  USE m2, ONLY: a => b, c => d",
		"  USE empty_list, ONLY:",
		"END MODULE m",
		"",
	}, "\n")

	assert.Equal(t, expected, NormalizeUse(input))
}

func TestNormalizeUseWraps(t *testing.T) {
	names := make([]string, 15)
	for idx := range names {
		names[idx] = fmt.Sprintf("name_%02d", idx)
	}
	input := "  USE very_long_module_name, ONLY: " + strings.Join(names, ", ") + "\n"

	output := NormalizeUse(input)
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	require.Greater(t, len(lines), 1)

	prefix := "  USE very_long_module_name, ONLY: "
	assert.True(t, strings.HasPrefix(lines[0], prefix))
	for idx, line := range lines {
		assert.LessOrEqual(t, len(line), maxLineLength, line)
		if idx < len(lines)-1 {
			assert.True(t, strings.HasSuffix(line, ", &"), line)
		}
		if idx > 0 {
			assert.True(t, strings.HasPrefix(line, strings.Repeat(" ", len(prefix))+"name_"), line)
		}
	}

	assert.Equal(t, output, NormalizeUse(output))
}

func TestReplacer(t *testing.T) {
	replacer, err := NewReplacer(map[string]string{"cp_failure": "cp_abort", "old_name": "new_name"})
	require.NoError(t, err)

	input := "CALL cp_failure(x) ! cp_failure\n s = 'cp_failure'\n y = CP_Failure + old_name_2 + old_name\n"
	expected := "CALL cp_abort(x) ! cp_failure\n s = 'cp_failure'\n y = cp_abort + old_name_2 + new_name\n"

	result, replaceErr := replacer.Replace("r.F", input)
	require.Nil(t, replaceErr)
	assert.Equal(t, expected, result)
}

func TestReplacerInvalid(t *testing.T) {
	_, err := NewReplacer(map[string]string{"not a name": "x"})
	assert.Error(t, err)

	_, err = NewReplacer(map[string]string{"Foo": "x", "foo": "y"})
	assert.Error(t, err)

	empty, err := NewReplacer(nil)
	require.NoError(t, err)
	result, replaceErr := empty.Replace("r.F", "CALL foo()")
	require.Nil(t, replaceErr)
	assert.Equal(t, "CALL foo()", result)
}

func TestAddSynopsis(t *testing.T) {
	interfaces := ParseInterfaces("  SUBROUTINE do_things(a)\n    INTEGER :: a\n  END SUBROUTINE do_things\n" +
		"  INTEGER FUNCTION count_them(x)\n  END FUNCTION count_them\n")
	require.Len(t, interfaces, 2)
	assert.Equal(t, []string{"SUBROUTINE do_things(a)", "  INTEGER :: a", "END SUBROUTINE do_things"}, interfaces["do_things"])

	source := strings.Join([]string{
		"CONTAINS",
		"  !! SYNOPSIS",
		"  !!   old",
		"  SUBROUTINE do_things(a)",
		"  END SUBROUTINE do_things",
		"! no header",
		"  INTEGER FUNCTION count_them(x)",
		"  END FUNCTION count_them",
	}, "\n")

	result, updated := AddSynopsis(source, interfaces)
	assert.Equal(t, 1, updated)
	assert.Equal(t, strings.Join([]string{
		"CONTAINS",
		"  !! SYNOPSIS",
		"  !!   SUBROUTINE do_things(a)",
		"  !!     INTEGER :: a",
		"  !!   END SUBROUTINE do_things",
		"  !!",
		"  SUBROUTINE do_things(a)",
		"  END SUBROUTINE do_things",
		"! no header",
		"  INTEGER FUNCTION count_them(x)",
		"  END FUNCTION count_them",
	}, "\n"), result)
}

func newTestPrettifier(t *testing.T, interfacesDir string) *Prettifier {
	prettifier, err := New(Options{
		NormalizeUse:  true,
		Replace:       true,
		Replacements:  map[string]string{"cp_failure": "cp_abort"},
		Upcase:        true,
		InterfacesDir: interfacesDir,
	}, nil)
	require.NoError(t, err)
	return prettifier
}

func TestFile(t *testing.T) {
	outDir := t.TempDir()
	prettifier := newTestPrettifier(t, "testdata")

	require.NoError(t, prettifier.File(filepath.Join("testdata", "cp_things.F"), outDir))

	expected, err := os.ReadFile(filepath.Join("testdata", "cp_things.expected"))
	require.NoError(t, err)
	result, err := os.ReadFile(filepath.Join(outDir, "cp_things.F"))
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(result))

	// running the pipeline on its own output changes nothing
	again, sourceErr := prettifier.Source("cp_things.F", string(result))
	require.NoError(t, sourceErr)
	assert.Equal(t, string(result), again)
}

func TestFileWithoutInterface(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := filepath.Join(inDir, "plain.F")
	require.NoError(t, os.WriteFile(input, []byte("  !! SYNOPSIS\n  subroutine s()\n  end subroutine s\n"), 0o644))

	prettifier := newTestPrettifier(t, t.TempDir())
	require.NoError(t, prettifier.File(input, outDir))

	result, err := os.ReadFile(filepath.Join(outDir, "plain.F"))
	require.NoError(t, err)
	assert.Equal(t, "  !! SYNOPSIS\n  SUBROUTINE s()\n  END SUBROUTINE s\n", string(result))
}

func TestFileError(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := filepath.Join(inDir, "broken.F")
	content := "program p\n  print *, 'unterminated\nend program p\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	prettifier := newTestPrettifier(t, "")
	err := prettifier.File(input, outDir)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(outDir, "broken.F"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	saved, readErr := os.ReadFile(filepath.Join(outDir, "broken.F.err"))
	require.NoError(t, readErr)
	assert.Equal(t, content, string(saved))
}

func TestFiles(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	good := filepath.Join(inDir, "good.F")
	bad := filepath.Join(inDir, "bad.F")
	require.NoError(t, os.WriteFile(good, []byte("end\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("x = 'open\n"), 0o644))

	prettifier := newTestPrettifier(t, "")
	err := prettifier.Files(context.Background(), outDir, []string{good, bad, filepath.Join(inDir, "missing.F")}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.F")
	assert.Contains(t, err.Error(), "missing.F")

	result, readErr := os.ReadFile(filepath.Join(outDir, "good.F"))
	require.NoError(t, readErr)
	assert.Equal(t, "END\n", string(result))
}

func TestFilesOutDirMustExist(t *testing.T) {
	prettifier := newTestPrettifier(t, "")
	err := prettifier.Files(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, 1)
	assert.ErrorContains(t, err, "must be a directory")
}
