package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cp2k/fortools/fortools/parser/ast"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleDir = "testdata"

func valueText(program string, arg ast.Argument) string {
	span := arg.Value.Span()
	return program[span.Start.Index : span.End.Index+1]
}

type callTest struct {
	Name     string
	Program  string
	Routine  string
	NumArgs  int
	Key      string
	Expected string
}

var callTests = []callTest{
	{
		Name:    "Positional",
		Program: "CALL foo(a, b)",
		Routine: "foo",
		NumArgs: 2,
	},
	{
		Name:     "Lowercase",
		Program:  "call section_create(s, name='X', description='Y')",
		Routine:  "section_create",
		NumArgs:  3,
		Key:      "description",
		Expected: "'Y'",
	},
	{
		Name:     "Concatenation",
		Program:  "CALL foo(description=\"a\"// &\n  \"b\", x=1)",
		Routine:  "foo",
		NumArgs:  2,
		Key:      "description",
		Expected: "\"a\"// &\n  \"b\"",
	},
	{
		Name:     "NestedCall",
		Program:  "CALL foo(enum_desc=s2a(\"x\", \"y\"), n=-1)",
		Routine:  "foo",
		NumArgs:  2,
		Key:      "enum_desc",
		Expected: "s2a(\"x\", \"y\")",
	},
	{
		Name:     "ArraySections",
		Program:  "CALL foo(a(:), b(1:n), c(2:), default=(/1.0_dp, 2.0_dp/))",
		Routine:  "foo",
		NumArgs:  4,
		Key:      "default",
		Expected: "(/1.0_dp, 2.0_dp/)",
	},
	{
		Name:     "LogicalOperators",
		Program:  "CALL foo(flag=a .AND. .NOT. b, x=(y + 1)*2)",
		Routine:  "foo",
		NumArgs:  2,
		Key:      "x",
		Expected: "(y + 1)*2",
	},
	{
		Name:    "NoArguments",
		Program: "CALL foo()",
		Routine: "foo",
		NumArgs: 0,
	},
}

func TestParseCall(t *testing.T) {
	for idx, test := range callTests {
		t.Run(fmt.Sprintf("(%d/%d): %s", idx+1, len(callTests), test.Name), func(t *testing.T) {
			call, err := ParseCall(test.Program, "test")
			require.Nil(t, err, "%v", err)

			assert.Equal(t, test.Routine, call.LowerName())
			assert.Len(t, call.Args, test.NumArgs)

			if test.Key == "" {
				return
			}

			arg, found := call.Arg(test.Key)
			require.True(t, found, spew.Sdump(call))
			assert.Equal(t, test.Expected, valueText(test.Program, arg))
		})
	}
}

func TestParseCallErrors(t *testing.T) {
	programs := []string{
		"CALL foo(a, b",
		"CALL foo(a,, b)",
		"CALL (a)",
		"x = foo(a)",
		"CALL foo(description=\"never closed)",
	}

	for _, program := range programs {
		_, err := ParseCall(program, "test")
		assert.NotNil(t, err, program)
	}

	// trailing tokens after the statement are not the parser's business
	_, err := ParseCall("CALL foo(a)) ", "test")
	assert.Nil(t, err)
}

func TestParseExampleFiles(t *testing.T) {
	files, err := os.ReadDir(exampleDir)
	require.NoError(t, err)

	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(exampleDir, file.Name()))
		require.NoError(t, err)

		call, perr := ParseCall(string(content), file.Name())
		require.Nil(t, perr, "%s: %v", file.Name(), perr)

		arg, found := call.Arg("description")
		require.True(t, found, file.Name())
		assert.Equal(t, ast.StringLiteralExpressionKind, ast.Head(arg.Value).Kind(), file.Name())
	}
}

func TestParseEnumDesc(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(exampleDir, "enum.F"))
	require.NoError(t, err)

	call, perr := ParseCall(string(content), "enum.F")
	require.Nil(t, perr)

	arg, found := call.Arg("enum_desc")
	require.True(t, found)

	s2a, ok := arg.Value.(ast.CallExpression)
	require.True(t, ok)
	assert.Equal(t, "s2a", s2a.Name)
	assert.Len(t, s2a.Args, 3)
	assert.Equal(t, 6, arg.Value.Span().Start.Line)
	assert.Equal(t, 8, arg.Value.Span().End.Line)
}

func FuzzParser(f *testing.F) {
	files, err := os.ReadDir(exampleDir)
	if err != nil {
		panic(err.Error())
	}

	for _, file := range files {
		content, err := os.ReadFile(filepath.Join(exampleDir, file.Name()))
		if err != nil {
			panic(err.Error())
		}
		f.Add(string(content))
	}

	f.Fuzz(func(t *testing.T, input string) {
		call, err := ParseCall(input, t.Name())
		if err != nil {
			return
		}

		// every argument span must point into the input
		for _, arg := range call.Args {
			span := arg.Value.Span()
			if span.Start.Index < 0 || span.End.Index >= len(input) || span.Start.Index > span.End.Index+1 {
				t.Fatalf("argument span out of range: %v", span)
			}
		}
	})
}
