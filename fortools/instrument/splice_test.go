package instrument

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSplicer(t *testing.T) *Splicer {
	splicer := NewSplicer("abcdefghij")
	// added out of order on purpose, offsets stay in original coordinates
	require.NoError(t, splicer.Add(Edit{Start: 6, End: 6, Text: "--"}))
	require.NoError(t, splicer.Add(Edit{Start: 2, End: 4, Text: "XYZ"}))
	require.NoError(t, splicer.Add(Edit{Start: 0, End: 1, Text: ""}))
	return splicer
}

func TestSplicerApply(t *testing.T) {
	splicer := newTestSplicer(t)

	assert.Equal(t, "bXYZef--ghij", splicer.Apply())
	assert.Equal(t, 2, splicer.Delta())

	edits := splicer.Edits()
	require.Len(t, edits, 3)
	assert.Equal(t, 0, edits[0].Start)
	assert.Equal(t, 2, edits[1].Start)
	assert.Equal(t, 6, edits[2].Start)
}

func TestSplicerEmpty(t *testing.T) {
	splicer := NewSplicer("unchanged")
	assert.Equal(t, "unchanged", splicer.Apply())
	assert.Equal(t, 0, splicer.Delta())
	assert.Equal(t, 4, splicer.Map(4))
}

func TestSplicerMap(t *testing.T) {
	splicer := newTestSplicer(t)
	output := splicer.Apply()

	tests := []struct {
		Offset   int
		Expected int
	}{
		{Offset: 0, Expected: 0},
		{Offset: 1, Expected: 0},
		{Offset: 3, Expected: 1},
		{Offset: 4, Expected: 4},
		{Offset: 6, Expected: 6},
		{Offset: 7, Expected: 9},
		{Offset: 9, Expected: 11},
	}

	for idx, test := range tests {
		t.Run(fmt.Sprintf("(%d/%d): offset %d", idx+1, len(tests), test.Offset), func(t *testing.T) {
			assert.Equal(t, test.Expected, splicer.Map(test.Offset))
		})
	}

	// untouched bytes survive at their mapped offset
	source := "abcdefghij"
	for _, offset := range []int{1, 4, 5, 7, 8, 9} {
		assert.Equal(t, source[offset], output[splicer.Map(offset)], "offset %d", offset)
	}
}

func TestSplicerRejects(t *testing.T) {
	tests := []struct {
		Name string
		Edit Edit
	}{
		{Name: "Overlap with previous", Edit: Edit{Start: 3, End: 5}},
		{Name: "Overlap with next", Edit: Edit{Start: 1, End: 3}},
		{Name: "Same start", Edit: Edit{Start: 2, End: 2}},
		{Name: "Negative start", Edit: Edit{Start: -1, End: 0}},
		{Name: "Past the end", Edit: Edit{Start: 8, End: 11}},
		{Name: "Reversed", Edit: Edit{Start: 5, End: 4}},
	}

	for idx, test := range tests {
		t.Run(fmt.Sprintf("(%d/%d): %s", idx+1, len(tests), test.Name), func(t *testing.T) {
			splicer := newTestSplicer(t)
			assert.Error(t, splicer.Add(test.Edit))
			assert.Equal(t, "bXYZef--ghij", splicer.Apply())
		})
	}
}
