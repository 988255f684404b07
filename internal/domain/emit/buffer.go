// Package emit assembles generated source text line by line, with scoped
// indentation and C-oriented helpers for enums, macros, and lookup tables.
package emit

import "strings"

const indentUnit = "    "

// Buffer accumulates the text emitted by one directive body. The zero value
// is not ready to use; call NewBuffer.
type Buffer struct {
	out     strings.Builder
	indent  int
	inMacro bool
}

// NewBuffer returns an empty emission buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Line appends each input at the current indent level, splitting inputs that
// span multiple lines. With no inputs it appends a single blank line.
// Trailing whitespace is always trimmed; inside a macro scope every line
// receives a continuation backslash.
func (b *Buffer) Line(inputs ...string) {
	if len(inputs) == 0 {
		b.put("")
		return
	}

	for _, input := range inputs {
		for _, line := range splitLines(input) {
			b.put(line)
		}
	}
}

// Block appends a multi-line fragment with its common leading indentation
// stripped first, so callers can keep the fragment indented to match their
// own code.
func (b *Buffer) Block(text string) {
	b.Line(Deindent(text))
}

// Raw appends text exactly as given, bypassing indentation, trimming, and
// macro continuations.
func (b *Buffer) Raw(fragment string) {
	b.out.WriteString(fragment)
}

// Len returns the number of bytes accumulated so far.
func (b *Buffer) Len() int {
	return b.out.Len()
}

func (b *Buffer) String() string {
	return b.out.String()
}

// Bytes returns the accumulated text as a byte slice.
func (b *Buffer) Bytes() []byte {
	return []byte(b.out.String())
}

// put writes a single line at the current indent. The trim runs after the
// macro continuation is attached, so blank macro lines keep their backslash
// but ordinary lines never carry trailing whitespace.
func (b *Buffer) put(line string) {
	s := strings.Repeat(indentUnit, b.indent) + line
	if b.inMacro {
		s += " \\"
	}

	b.out.WriteString(strings.TrimRight(s, " \t") + "\n")
}
