package emit

import "testing"

func TestLine(t *testing.T) {
	b := NewBuffer()
	b.Line("int x;")
	b.Line()
	b.Line("a", "b\nc")

	want := "int x;\n\na\nb\nc\n"
	if got := b.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLineTrimsTrailingWhitespace(t *testing.T) {
	b := NewBuffer()
	b.Line("x = 1;   ")

	if got := b.String(); got != "x = 1;\n" {
		t.Fatalf("expected trailing whitespace trimmed, got %q", got)
	}
}

func TestBlockDeindents(t *testing.T) {
	b := NewBuffer()
	b.Block(`
        if (x)
        {
            y();
        }
    `)

	want := "if (x)\n{\n    y();\n}\n"
	if got := b.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRawBypassesFormatting(t *testing.T) {
	b := NewBuffer()
	b.Raw("exact   ")
	b.Raw("text")

	if got := b.String(); got != "exact   text" {
		t.Fatalf("expected raw text preserved, got %q", got)
	}

	if b.Len() != len("exact   text") {
		t.Fatalf("expected Len %d, got %d", len("exact   text"), b.Len())
	}
}
