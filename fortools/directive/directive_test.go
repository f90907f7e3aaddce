package directive

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	document := &Document{}
	document.Add(
		NewSection("GLOBAL").Add(
			NewKeyword("PROJECT_NAME", "LJ002"),
			NewKeyword("RUN_TYPE", "NONE"),
		),
		&Blank{},
		NewSection("FORCE_EVAL").Add(
			NewKeyword("METHOD", "FIST"),
			NewSection("SUBSYS").Add(
				NewSection("KIND", "X").Add(NewKeyword("MASS", "1.0")),
				&Comment{Text: "&COLVAR"},
				NewSection("COORD").Add(&Raw{Lines: []string{"X 0.000000 0.000000 0.000000"}}),
			),
			NewKeyword("STRESS_TENSOR", "ANALYTICAL").WithComment("cheap"),
		).WithComment("the force environment"),
	)
	return document
}

const sampleText = `&GLOBAL
  PROJECT_NAME LJ002
  RUN_TYPE NONE
&END GLOBAL

&FORCE_EVAL ! the force environment
  METHOD FIST
  &SUBSYS
    &KIND X
      MASS 1.0
    &END KIND
    ! &COLVAR
    &COORD
      X 0.000000 0.000000 0.000000
    &END COORD
  &END SUBSYS
  STRESS_TENSOR ANALYTICAL ! cheap
&END FORCE_EVAL
`

func TestRender(t *testing.T) {
	assert.Equal(t, sampleText, sampleDocument().String())
}

func TestParseRoundTrip(t *testing.T) {
	document, err := ParseString(sampleText)
	require.NoError(t, err)

	// raw lines come back as keywords
	expected := sampleDocument()
	coord, ok := expected.Section("FORCE_EVAL", "SUBSYS", "COORD")
	require.True(t, ok)
	coord.Nodes = []Node{NewKeyword("X", "0.000000", "0.000000", "0.000000")}

	if diff := cmp.Diff(expected, document); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, sampleText, document.String())
}

func TestParseLenient(t *testing.T) {
	text := "&global\n   run_type none\n&end\n&MOTION\n  &MD\n    STEPS 10 # steps\n  &End md\n&END MOTION\n"

	document, err := ParseString(text)
	require.NoError(t, err)

	md, ok := document.Section("motion", "md")
	require.True(t, ok)
	steps, ok := md.Keyword("steps")
	require.True(t, ok)
	assert.Equal(t, []string{"10"}, steps.Values)
	assert.Equal(t, "steps", steps.Comment)

	global, ok := document.Section("GLOBAL")
	require.True(t, ok)
	assert.Len(t, global.Keywords("RUN_TYPE"), 1)
}

func TestParseQuotedComment(t *testing.T) {
	document, err := ParseString("&GLOBAL\n  TITLE 'a ! b' ! real comment\n&END GLOBAL\n")
	require.NoError(t, err)

	global, _ := document.Section("GLOBAL")
	title, ok := global.Keyword("TITLE")
	require.True(t, ok)
	assert.Equal(t, []string{"'a", "!", "b'"}, title.Values)
	assert.Equal(t, "real comment", title.Comment)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		Name       string
		Text       string
		Line       int
		Unbalanced bool
	}{
		{
			Name:       "Unclosed",
			Text:       "&GLOBAL\n  RUN_TYPE NONE\n",
			Line:       2,
			Unbalanced: true,
		},
		{
			Name:       "Wrong name",
			Text:       "&MOTION\n  &MD\n  &END MOTION\n&END MOTION\n",
			Line:       3,
			Unbalanced: true,
		},
		{
			Name:       "Stray end",
			Text:       "&GLOBAL\n&END GLOBAL\n&END\n",
			Line:       3,
			Unbalanced: true,
		},
		{
			Name: "Empty marker",
			Text: "&\n",
			Line: 1,
		},
		{
			Name: "Trailing text",
			Text: "&GLOBAL\n&END GLOBAL now\n",
			Line: 2,
		},
	}

	for idx, test := range tests {
		t.Run(fmt.Sprintf("(%d/%d): %s", idx+1, len(tests), test.Name), func(t *testing.T) {
			_, err := ParseString(test.Text)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, test.Line, parseErr.Line)
			assert.Equal(t, test.Unbalanced, errors.Is(err, ErrUnbalanced))
		})
	}
}

func TestSectionLookupMissing(t *testing.T) {
	document := sampleDocument()

	_, ok := document.Section()
	assert.False(t, ok)
	_, ok = document.Section("FORCE_EVAL", "MM")
	assert.False(t, ok)

	global, _ := document.Section("GLOBAL")
	_, ok = global.Keyword("SEED")
	assert.False(t, ok)
}
