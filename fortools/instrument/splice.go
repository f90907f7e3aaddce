package instrument

import (
	"fmt"
	"sort"
	"strings"
)

// Edit replaces the bytes [Start, End) of the original buffer with Text.
type Edit struct {
	Start int
	End   int
	Text  string
	Field string
}

func (self Edit) delta() int {
	return len(self.Text) - (self.End - self.Start)
}

// Splicer collects edits against an immutable original buffer and applies
// them in one pass. Every edit is expressed in original offsets, so adding
// edits in any order never invalidates the offsets of edits added earlier.
type Splicer struct {
	source string
	edits  []Edit
}

func NewSplicer(source string) *Splicer {
	return &Splicer{source: source}
}

// Add registers an edit. Edits must lie inside the buffer and must not
// overlap each other.
func (self *Splicer) Add(edit Edit) error {
	if edit.Start < 0 || edit.End < edit.Start || edit.End > len(self.source) {
		return fmt.Errorf("edit [%d, %d) outside of buffer of length %d", edit.Start, edit.End, len(self.source))
	}

	idx := sort.Search(len(self.edits), func(i int) bool { return self.edits[i].Start >= edit.Start })

	if idx > 0 && self.edits[idx-1].End > edit.Start {
		prev := self.edits[idx-1]
		return fmt.Errorf("edit [%d, %d) overlaps edit [%d, %d)", edit.Start, edit.End, prev.Start, prev.End)
	}
	if idx < len(self.edits) && (edit.End > self.edits[idx].Start || edit.Start == self.edits[idx].Start) {
		next := self.edits[idx]
		return fmt.Errorf("edit [%d, %d) overlaps edit [%d, %d)", edit.Start, edit.End, next.Start, next.End)
	}

	self.edits = append(self.edits, Edit{})
	copy(self.edits[idx+1:], self.edits[idx:])
	self.edits[idx] = edit
	return nil
}

// Edits returns the registered edits ordered by start offset.
func (self *Splicer) Edits() []Edit {
	return append([]Edit(nil), self.edits...)
}

// Apply returns the buffer with all edits applied.
func (self *Splicer) Apply() string {
	var builder strings.Builder
	builder.Grow(len(self.source) + self.Delta())

	last := 0
	for _, edit := range self.edits {
		builder.WriteString(self.source[last:edit.Start])
		builder.WriteString(edit.Text)
		last = edit.End
	}
	builder.WriteString(self.source[last:])

	return builder.String()
}

// Delta is the total change in length.
func (self *Splicer) Delta() int {
	total := 0
	for _, edit := range self.edits {
		total += edit.delta()
	}
	return total
}

// Map translates an offset of the original buffer into the corresponding
// offset of the output of Apply. Offsets inside a replaced range map to the
// start of its replacement.
func (self *Splicer) Map(offset int) int {
	shift := 0
	for _, edit := range self.edits {
		if edit.Start >= offset {
			break
		}
		if offset < edit.End {
			return edit.Start + shift
		}
		shift += edit.delta()
	}
	return offset + shift
}
