// Package bbml parses a nested, tag-annotated markup dialect: plain text
// interspersed with bracket-delimited tags of the form [name], [name=value]
// or [name="quoted value"], closed by a matching [/name]. A parse turns a
// whole document into an ordered tree of elements, rejecting malformed or
// mismatched tag structures. Interpreting the tags is left to the caller.
package bbml

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxDepth bounds tag nesting, and with it the parser's call stack.
const DefaultMaxDepth = 1000

// A RuleContext records one grammar rule that was active when a parse failed.
type RuleContext struct {
	Rule   string
	Offset int
	Line   int
	Col    int
}

// A SyntaxError describes why and where a parse failed.
//
// Fatal distinguishes the two kinds of failure the grammar produces: a soft
// non-match (the rule simply does not apply at this position, the caller may
// try another alternative) and a fatal failure (the rule committed past a
// disambiguating prefix and the rest of its input is malformed). Only fatal
// failures and positions where no alternative applies reach the caller of
// Parse.
type SyntaxError struct {
	Offset int
	Line   int
	Col    int
	Msg    string
	Fatal  bool

	// Context holds the nested grammar rules active at the failure,
	// innermost first.
	Context []RuleContext
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Verbose returns a multi-line report including the nested rule context.
func (e *SyntaxError) Verbose() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%d: %s\n", e.Line, e.Col, e.Msg)
	for _, c := range e.Context {
		fmt.Fprintf(&sb, "  in %s at %d:%d\n", c.Rule, c.Line, c.Col)
	}
	return sb.String()
}

// cut promotes a soft non-match to a fatal failure. It is applied at the
// points where a rule has consumed a disambiguating prefix and no other
// alternative could apply anymore.
func cut(err error) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		se.Fatal = true
	}
	return err
}

// isFatal reports whether err is a committed failure that must abort the
// parse instead of letting the caller try another alternative.
func isFatal(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.Fatal
}

// A Parser holds the state of one parse of one document. It is not safe for
// concurrent use, but independent Parsers share nothing.
type Parser struct {
	// src is the document being parsed. All spans in the produced tree
	// reference it.
	src string

	// pos is the current scanning offset into src.
	pos int

	// depth is the current closed-tag nesting depth.
	depth    int
	maxDepth int

	log *zap.SugaredLogger
}

// NewParser creates a parser for the given document.
func NewParser(src string) *Parser {
	return &Parser{
		src:      src,
		maxDepth: DefaultMaxDepth,
		log:      zap.NewNop().Sugar(),
	}
}

// SetLogger installs a logger for debug tracing. The default discards
// everything.
func (p *Parser) SetLogger(log *zap.SugaredLogger) {
	if log != nil {
		p.log = log
	}
}

// SetMaxDepth overrides the maximum tag nesting depth. Callers embedding
// untrusted input should keep this small.
func (p *Parser) SetMaxDepth(n int) {
	if n > 0 {
		p.maxDepth = n
	}
}

// Parse parses src and returns the ordered top-level elements of the
// document. It is shorthand for NewParser(src).Parse().
func Parse(src string) ([]Element, error) {
	return NewParser(src).Parse()
}

// Parse parses the whole document. On success the entire input has been
// consumed. On failure no partial tree is returned; the error is a
// *SyntaxError locating the offending position.
func (p *Parser) Parse() ([]Element, error) {
	p.log.Debugw("parsing document", "length", len(p.src))

	elems := []Element{}
	for p.pos < len(p.src) {
		el, err := p.readElement()
		if err != nil {
			p.log.Debugw("parse failed", "offset", p.pos, "error", err)
			return nil, err
		}
		elems = append(elems, el)
	}

	p.log.Debugw("parsed document", "elements", len(elems))
	return elems, nil
}

// lineCol converts a byte offset into a 1-based line and column.
func (p *Parser) lineCol(off int) (line, col int) {
	line = 1 + strings.Count(p.src[:off], "\n")
	col = off - strings.LastIndexByte(p.src[:off], '\n')
	return line, col
}

// mismatchAt builds a soft non-match at the given offset.
func (p *Parser) mismatchAt(off int, format string, args ...any) *SyntaxError {
	line, col := p.lineCol(off)
	return &SyntaxError{
		Offset: off,
		Line:   line,
		Col:    col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// fatalAt builds a fatal failure at the given offset.
func (p *Parser) fatalAt(off int, format string, args ...any) *SyntaxError {
	se := p.mismatchAt(off, format, args...)
	se.Fatal = true
	return se
}

// context records that the named rule, entered at off, was active when err
// was produced. The entries accumulate innermost first.
func (p *Parser) context(rule string, off int, err error) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		line, col := p.lineCol(off)
		se.Context = append(se.Context, RuleContext{Rule: rule, Offset: off, Line: line, Col: col})
	}
	return err
}

// readTagHead parses [name] or [name=value]. A position that does not start
// with '[', or starts a closing tag '[/', is a soft non-match. Past that
// check the head is committed: any further failure is fatal, so a malformed
// head surfaces as a precise error instead of being swallowed as plain text.
func (p *Parser) readTagHead() (key, value string, hasValue bool, err error) {
	start := p.pos
	if start >= len(p.src) || p.src[start] != '[' {
		return "", "", false, p.context("tag-head", start, p.mismatchAt(start, "expected '['"))
	}
	if start+1 < len(p.src) && p.src[start+1] == '/' {
		return "", "", false, p.context("tag-head", start, p.mismatchAt(start, "closing tag"))
	}
	p.pos++

	key, value, hasValue, err = p.readKeypair()
	if err != nil {
		return "", "", false, p.context("tag-head", start, cut(err))
	}

	p.skipWhitespace()
	if p.pos >= len(p.src) || p.src[p.pos] != ']' {
		return "", "", false, p.context("tag-head", start, p.fatalAt(p.pos, "expected ']'"))
	}
	p.pos++
	return key, value, hasValue, nil
}

// readKeypair parses the interior of a tag head: a key, optionally followed
// by '=' and a value, with whitespace tolerated around each token. A soft
// failure after the '=' backtracks to the bare-key form; a fatal one (an
// opened but unterminated quote) aborts.
func (p *Parser) readKeypair() (key, value string, hasValue bool, err error) {
	key, err = p.readWord()
	if err != nil {
		return "", "", false, err
	}

	mark := p.pos
	p.skipWhitespace()
	if p.pos < len(p.src) && p.src[p.pos] == '=' {
		p.pos++
		p.skipWhitespace()
		value, err = p.readTagValue()
		if err == nil {
			return key, value, true, nil
		}
		if isFatal(err) {
			return "", "", false, err
		}
	}

	// Bare key: [name] with no value.
	p.pos = mark
	return key, "", false, nil
}

// readTagEnd parses [/name]. Anything not starting with '[/' is a soft
// non-match; after that prefix the name and the ']' are mandatory.
func (p *Parser) readTagEnd() (string, error) {
	start := p.pos
	if !strings.HasPrefix(p.src[start:], "[/") {
		return "", p.context("tag-tail", start, p.mismatchAt(start, "expected '[/'"))
	}
	p.pos += 2

	name, err := p.readTagValue()
	if err != nil {
		return "", p.context("tag-tail", start, cut(err))
	}

	p.skipWhitespace()
	if p.pos >= len(p.src) || p.src[p.pos] != ']' {
		return "", p.context("tag-tail", start, p.fatalAt(p.pos, "expected ']'"))
	}
	p.pos++
	return name, nil
}

// readClosedTag parses a tag head, its recursively parsed children and the
// matching tag tail. A closing name different from the opening key is a soft
// non-match at this rule; since no other rule can apply at a well-formed
// head either, it surfaces as the overall parse failure for that position.
func (p *Parser) readClosedTag() (Element, error) {
	start := p.pos

	key, value, hasValue, err := p.readTagHead()
	if err != nil {
		return Element{}, p.context("closed-tag", start, err)
	}

	if p.depth >= p.maxDepth {
		return Element{}, p.context("closed-tag", start,
			p.fatalAt(start, "maximum nesting depth %d exceeded", p.maxDepth))
	}
	p.depth++
	children, err := p.readElements()
	p.depth--
	if err != nil {
		return Element{}, p.context("closed-tag", start, err)
	}

	end, err := p.readTagEnd()
	if err != nil {
		if !isFatal(err) {
			p.pos = start
		}
		return Element{}, p.context("closed-tag", start, err)
	}

	if key != end {
		p.pos = start
		return Element{}, p.context("closed-tag", start,
			p.mismatchAt(start, "closing tag %q does not match opening tag %q", end, key))
	}

	return Element{
		Type:     BlockElement,
		Tag:      key,
		Value:    value,
		HasValue: hasValue,
		Children: children,
	}, nil
}

// readElement parses one element, trying the alternatives in order: the
// end-of-input marker, a plain text run, a closed tag. The position is left
// untouched on a soft non-match.
func (p *Parser) readElement() (Element, error) {
	start := p.pos

	if start >= len(p.src) {
		return Element{Type: EOFElement}, nil
	}

	text, terr := p.readEscapedText()
	if terr == nil {
		return Element{Type: TextElement, Text: text}, nil
	}
	if isFatal(terr) {
		return Element{}, p.context("element", start, terr)
	}

	el, err := p.readClosedTag()
	if err != nil {
		// Report the alternative that advanced the furthest.
		var se, te *SyntaxError
		if !isFatal(err) && errors.As(err, &se) && errors.As(terr, &te) && te.Offset > se.Offset {
			err = terr
		}
		return Element{}, p.context("element", start, err)
	}
	return el, nil
}

// readElements parses zero or more elements, stopping at the first soft
// non-match or at the non-consuming end-of-input marker. The marker is never
// part of the returned sequence.
func (p *Parser) readElements() ([]Element, error) {
	elems := []Element{}
	for {
		mark := p.pos
		el, err := p.readElement()
		if err != nil {
			if isFatal(err) {
				return nil, err
			}
			p.pos = mark
			return elems, nil
		}
		if p.pos == mark {
			return elems, nil
		}
		elems = append(elems, el)
	}
}
