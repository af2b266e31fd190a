package bbml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadEscapedText(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		rest int // expected position after the read
	}{
		{name: "plain run", src: "hello world", want: "hello world", rest: 11},
		{name: "stops at bracket", src: "abc[foo]", want: "abc", rest: 3},
		{name: "stops at quote", src: `ab"cd`, want: "ab", rest: 2},
		{name: "stops at equals", src: "ab=cd", want: "ab", rest: 2},
		{name: "escape kept verbatim", src: `a\[b`, want: `a\[b`, rest: 4},
		{name: "escaped backslash", src: `a\\b`, want: `a\\b`, rest: 4},
		{name: "escaped n", src: `a\nb`, want: `a\nb`, rest: 4},
		{name: "newline is ordinary", src: "a\nb", want: "a\nb", rest: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(tt.src)
			got, err := p.readEscapedText()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.rest, p.pos)
		})
	}
}

func TestReadEscapedTextMismatch(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		offset int
	}{
		{name: "empty input", src: "", offset: 0},
		{name: "starts with special", src: "[foo]", offset: 0},
		{name: "invalid escape", src: `ab\x`, offset: 2},
		{name: "trailing backslash", src: `ab\`, offset: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(tt.src)
			_, err := p.readEscapedText()

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			require.False(t, se.Fatal)
			require.Equal(t, tt.offset, se.Offset)
			// A soft non-match leaves the position untouched.
			require.Equal(t, 0, p.pos)
		})
	}
}

func TestReadWord(t *testing.T) {
	p := NewParser("  \t\n foo=bar")
	got, err := p.readWord()
	require.NoError(t, err)
	require.Equal(t, "foo", got)
	// Leading whitespace is consumed but not part of the token.
	require.Equal(t, 8, p.pos)

	p = NewParser("foo bar")
	got, err = p.readWord()
	require.NoError(t, err)
	require.Equal(t, "foo", got)
	require.Equal(t, 3, p.pos)
}

func TestReadWordMismatch(t *testing.T) {
	for _, src := range []string{"", "   ", `"quoted"`, "=x", "]"} {
		p := NewParser(src)
		_, err := p.readWord()

		var se *SyntaxError
		require.ErrorAs(t, err, &se, "input %q", src)
		require.False(t, se.Fatal)
		require.Equal(t, 0, p.pos, "input %q", src)
	}
}

func TestReadQuoted(t *testing.T) {
	p := NewParser(`"bar "]`)
	got, err := p.readQuoted()
	require.NoError(t, err)
	require.Equal(t, "bar ", got)
	require.Equal(t, 6, p.pos)

	// Escaped quotes stay inside the value, verbatim.
	p = NewParser(`"a\"b"`)
	got, err = p.readQuoted()
	require.NoError(t, err)
	require.Equal(t, `a\"b`, got)
	require.Equal(t, 6, p.pos)
}

func TestReadQuotedMissingOpenIsSoft(t *testing.T) {
	p := NewParser(`bar`)
	_, err := p.readQuoted()

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	require.False(t, se.Fatal)
	require.Equal(t, 0, p.pos)
}

func TestReadQuotedCommitIsFatal(t *testing.T) {
	for _, src := range []string{`"123]`, `"123`, `""`, `"`} {
		p := NewParser(src)
		_, err := p.readQuoted()

		var se *SyntaxError
		require.ErrorAs(t, err, &se, "input %q", src)
		require.True(t, se.Fatal, "input %q", src)
	}
}
