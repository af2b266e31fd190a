package bbml

import (
	"strconv"
	"strings"
)

// An ElementType is the type of an Element.
type ElementType uint32

const (
	// ErrorElement is the zero value and is never produced by a successful parse.
	ErrorElement ElementType = iota
	// A TextElement is a run of plain text.
	TextElement
	// A BlockElement is a matched [name]...[/name] pair and its content.
	BlockElement
	// An EOFElement marks the end of the input stream. It is internal to the
	// grammar and never appears in a parsed tree.
	EOFElement
)

// String returns a string representation of the ElementType.
func (t ElementType) String() string {
	switch t {
	case ErrorElement:
		return "Error"
	case TextElement:
		return "Text"
	case BlockElement:
		return "Block"
	case EOFElement:
		return "EOF"
	}
	return "Invalid(" + strconv.Itoa(int(t)) + ")"
}

// An Element is one node of a parsed document. A TextElement uses only the
// Text field. A BlockElement uses Tag, Value, HasValue and Children.
//
// Text, Tag and Value are views into the string given to the parser, so the
// tree must not outlive that string. Text keeps any escape sequences exactly
// as they appeared in the source; the parser recognizes escapes to find token
// boundaries but never unescapes them.
type Element struct {
	Type ElementType

	// Text is the raw source run of a TextElement.
	Text string

	// Tag is the name between the brackets of the opening tag.
	Tag string

	// Value is the attached value of the opening tag, without surrounding
	// quotes. HasValue distinguishes [name] from [name=value].
	Value    string
	HasValue bool

	// Children is the parsed content between the opening and closing tags,
	// in source order. It is empty, not nil, for [foo][/foo].
	Children []Element
}

// String returns the canonical source form of the element: text verbatim and
// blocks as [tag=value]...[/tag] without the optional whitespace or quoting
// of the original. Parsing the result again yields an equal tree.
func (e Element) String() string {
	var sb strings.Builder
	e.render(&sb)
	return sb.String()
}

func (e Element) render(sb *strings.Builder) {
	switch e.Type {
	case TextElement:
		sb.WriteString(e.Text)
	case BlockElement:
		sb.WriteByte('[')
		sb.WriteString(e.Tag)
		if e.HasValue {
			sb.WriteByte('=')
			// Values with whitespace or escape sequences only tokenize in
			// quoted form.
			if strings.ContainsAny(e.Value, " \t\n\r\\") {
				sb.WriteByte('"')
				sb.WriteString(e.Value)
				sb.WriteByte('"')
			} else {
				sb.WriteString(e.Value)
			}
		}
		sb.WriteByte(']')
		for _, child := range e.Children {
			child.render(sb)
		}
		sb.WriteString("[/")
		sb.WriteString(e.Tag)
		sb.WriteByte(']')
	case EOFElement, ErrorElement:
		// No source form.
	}
}
