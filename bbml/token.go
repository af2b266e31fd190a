package bbml

// The lexical layer. All scanners work on p.src starting at p.pos and advance
// p.pos only when they match; on a soft non-match they leave the position
// untouched so the caller can try another alternative.

// isSpecial reports whether c must be escaped inside plain text and inside
// quoted values, and cannot appear in a word token.
func isSpecial(c byte) bool {
	switch c {
	case '"', '\\', '[', ']', '/', '=':
		return true
	}
	return false
}

// isEscapable reports whether c may follow the '\' escape introducer.
func isEscapable(c byte) bool {
	switch c {
	case '"', '\\', 'n', '[', ']', '/', '=':
		return true
	}
	return false
}

// isWhitespace reports whether c separates tokens inside a tag head or tail.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// skipWhitespace advances over whitespace. It always succeeds.
func (p *Parser) skipWhitespace() {
	for p.pos < len(p.src) && isWhitespace(p.src[p.pos]) {
		p.pos++
	}
}

// readEscapedText reads a non-empty run of characters that are not special,
// optionally interspersed with escape sequences. The returned span keeps the
// escape introducers verbatim. An empty run, or a '\' not followed by an
// escapable character, is a soft non-match for the whole run.
func (p *Parser) readEscapedText() (string, error) {
	start := p.pos
	i := start
	for i < len(p.src) {
		c := p.src[i]
		if c == '\\' {
			if i+1 >= len(p.src) || !isEscapable(p.src[i+1]) {
				return "", p.mismatchAt(i, "invalid escape sequence")
			}
			i += 2
			continue
		}
		if isSpecial(c) {
			break
		}
		i++
	}
	if i == start {
		return "", p.mismatchAt(start, "expected text")
	}
	p.pos = i
	return p.src[start:i], nil
}

// readWord skips leading whitespace and reads a non-empty run of characters
// excluding the special characters and whitespace. The skipped whitespace is
// not part of the token.
func (p *Parser) readWord() (string, error) {
	mark := p.pos
	p.skipWhitespace()
	start := p.pos
	i := start
	for i < len(p.src) && !isSpecial(p.src[i]) && !isWhitespace(p.src[i]) {
		i++
	}
	if i == start {
		p.pos = mark
		return "", p.mismatchAt(start, "expected a word")
	}
	p.pos = i
	return p.src[start:i], nil
}

// readQuoted reads a double-quoted value. The quotes are consumed as syntax
// and excluded from the returned span. A missing opening quote is a soft
// non-match; once the opening quote is consumed the body and the terminator
// are mandatory and any failure is fatal.
func (p *Parser) readQuoted() (string, error) {
	start := p.pos
	if start >= len(p.src) || p.src[start] != '"' {
		return "", p.mismatchAt(start, "expected '\"'")
	}
	p.pos++
	val, err := p.readEscapedText()
	if err != nil {
		return "", p.context("quoted-value", start, cut(err))
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '"' {
		return "", p.context("quoted-value", start, p.fatalAt(p.pos, "unterminated quoted value"))
	}
	p.pos++
	return val, nil
}

// readTagValue reads an attribute value or a closing tag name: either a word
// token or a quoted value. Note that only the word form skips leading
// whitespace, so a quoted value must follow its introducer directly.
func (p *Parser) readTagValue() (string, error) {
	val, err := p.readWord()
	if err == nil {
		return val, nil
	}
	return p.readQuoted()
}
