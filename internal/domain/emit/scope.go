package emit

import "strings"

// scopeSpec holds the resolved layout of one scope. Empty opening or closing
// text means the line is omitted entirely.
type scopeSpec struct {
	opening  string
	closing  string
	indented bool
	macro    bool
}

// ScopeOption overrides the layout a scope header suggests.
type ScopeOption func(*scopeSpec)

// Opening replaces the suggested opening line. Pass "" to omit it.
func Opening(text string) ScopeOption {
	return func(s *scopeSpec) {
		s.opening = text
	}
}

// Closing replaces the suggested closing line. Pass "" to omit it.
func Closing(text string) ScopeOption {
	return func(s *scopeSpec) {
		s.closing = text
	}
}

// Indented controls whether the braces themselves are indented one level
// deeper than the header, as in a braced initializer.
func Indented(on bool) ScopeOption {
	return func(s *scopeSpec) {
		s.indented = on
	}
}

// Scope emits a header, an opening line, the body one indent level deeper,
// and a closing line. The closing always appears, even when the body returns
// an error, so braces stay balanced in the output. The header picks sensible
// C defaults: struct/union/enum close with "};", case closes with "} break;",
// the #if family closes with "#endif", a header ending in "=" produces an
// indented initializer, and #define switches the buffer into macro mode for
// the duration of the scope.
func (b *Buffer) Scope(header string, body func() error, opts ...ScopeOption) error {
	spec := suggestScope(header)

	for _, opt := range opts {
		opt(&spec)
	}

	if spec.macro {
		b.inMacro = true
	}

	if header != "" {
		b.Line(header)
	}

	if spec.indented {
		b.indent++
	}

	if spec.opening != "" {
		b.Line(spec.opening)
	}

	b.indent++

	var err error
	if body != nil {
		err = body()
	}

	b.indent--

	if spec.closing != "" {
		b.Line(spec.closing)
	}

	if spec.indented {
		b.indent--
	}

	if spec.macro {
		b.inMacro = false
		b.Line()
	}

	return err
}

// suggestScope derives the default layout from the header's leading keyword.
func suggestScope(header string) scopeSpec {
	spec := scopeSpec{opening: "{", closing: "}"}

	switch keyword(header) {
	case "#define":
		spec = scopeSpec{macro: true}
	case "#if", "#ifdef", "#elif", "#else":
		spec = scopeSpec{closing: "#endif"}
	case "struct", "union", "enum":
		spec = scopeSpec{opening: "{", closing: "};"}
	case "case":
		spec = scopeSpec{opening: "{", closing: "} break;"}
	default:
		if strings.HasSuffix(strings.TrimSpace(header), "=") {
			spec = scopeSpec{opening: "{", closing: "};", indented: true}
		}
	}

	return spec
}

func keyword(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}
