// Package directive models the `&SECTION ... &END SECTION` input format:
// nested named sections holding keyword lines and comments.
package directive

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrUnbalanced is wrapped by all errors about mismatched section markers.
var ErrUnbalanced = errors.New("unbalanced section markers")

type Node interface {
	render(w *bufio.Writer, depth int)
}

type Document struct {
	Nodes []Node
}

type Section struct {
	Name    string
	Params  string
	Comment string
	Nodes   []Node
}

type Keyword struct {
	Name    string
	Values  []string
	Comment string
}

// Comment is a full line comment.
type Comment struct {
	Text string
}

// Raw lines are written verbatim at the current indentation.
type Raw struct {
	Lines []string
}

type Blank struct{}

func NewSection(name string, params ...string) *Section {
	return &Section{Name: name, Params: strings.Join(params, " ")}
}

// Add appends child nodes and returns the section for chaining.
func (self *Section) Add(nodes ...Node) *Section {
	self.Nodes = append(self.Nodes, nodes...)
	return self
}

// WithComment sets the comment of the opening line.
func (self *Section) WithComment(comment string) *Section {
	self.Comment = comment
	return self
}

func NewKeyword(name string, values ...string) *Keyword {
	return &Keyword{Name: name, Values: values}
}

func (self *Keyword) WithComment(comment string) *Keyword {
	self.Comment = comment
	return self
}

// Add appends top level nodes.
func (self *Document) Add(nodes ...Node) *Document {
	self.Nodes = append(self.Nodes, nodes...)
	return self
}

//
// Lookup
//

// Section returns the first section at the given path, comparing names
// case-insensitively.
func (self *Document) Section(path ...string) (*Section, bool) {
	return findSection(self.Nodes, path)
}

func (self *Section) Section(path ...string) (*Section, bool) {
	return findSection(self.Nodes, path)
}

func findSection(nodes []Node, path []string) (*Section, bool) {
	if len(path) == 0 {
		return nil, false
	}
	for _, node := range nodes {
		section, ok := node.(*Section)
		if !ok || !strings.EqualFold(section.Name, path[0]) {
			continue
		}
		if len(path) == 1 {
			return section, true
		}
		if found, ok := findSection(section.Nodes, path[1:]); ok {
			return found, true
		}
	}
	return nil, false
}

// Keywords returns the keyword lines with the given name directly inside the
// section.
func (self *Section) Keywords(name string) []*Keyword {
	result := make([]*Keyword, 0)
	for _, node := range self.Nodes {
		if keyword, ok := node.(*Keyword); ok && strings.EqualFold(keyword.Name, name) {
			result = append(result, keyword)
		}
	}
	return result
}

func (self *Section) Keyword(name string) (*Keyword, bool) {
	keywords := self.Keywords(name)
	if len(keywords) == 0 {
		return nil, false
	}
	return keywords[0], true
}

//
// Rendering
//

const indent = "  "

// Render writes the document with two spaces of indentation per level.
func (self *Document) Render(w io.Writer) error {
	out := bufio.NewWriter(w)
	for _, node := range self.Nodes {
		node.render(out, 0)
	}
	return out.Flush()
}

func (self *Document) String() string {
	var builder strings.Builder
	// writing to a strings.Builder cannot fail
	_ = self.Render(&builder)
	return builder.String()
}

func writeLine(w *bufio.Writer, depth int, text string, comment string) {
	w.WriteString(strings.Repeat(indent, depth))
	w.WriteString(text)
	if comment != "" {
		if text != "" {
			w.WriteString(" ")
		}
		w.WriteString("! ")
		w.WriteString(comment)
	}
	w.WriteString("\n")
}

func (self *Section) render(w *bufio.Writer, depth int) {
	header := "&" + self.Name
	if self.Params != "" {
		header += " " + self.Params
	}
	writeLine(w, depth, header, self.Comment)
	for _, node := range self.Nodes {
		node.render(w, depth+1)
	}
	writeLine(w, depth, "&END "+self.Name, "")
}

func (self *Keyword) render(w *bufio.Writer, depth int) {
	text := self.Name
	if len(self.Values) > 0 {
		text += " " + strings.Join(self.Values, " ")
	}
	writeLine(w, depth, text, self.Comment)
}

func (self *Comment) render(w *bufio.Writer, depth int) {
	writeLine(w, depth, "", self.Text)
}

func (self *Raw) render(w *bufio.Writer, depth int) {
	for _, line := range self.Lines {
		writeLine(w, depth, line, "")
	}
}

func (self *Blank) render(w *bufio.Writer, _ int) {
	w.WriteString("\n")
}
