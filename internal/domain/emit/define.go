package emit

import (
	"fmt"
	"strings"
)

// Define emits a preprocessor definition. A nil params slice produces an
// object-like macro; otherwise the macro is function-like, parentheses
// included even when the slice is empty. Multi-line expansions are deindented
// and rendered with continuation backslashes; doWhile wraps the expansion in
// the usual do-while(false) statement so the macro behaves like a single
// statement at its use site.
func (b *Buffer) Define(name string, params []string, expansion string, doWhile bool) {
	macro := name
	if params != nil {
		macro = fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
	}

	expansion = Deindent(expansion)

	switch {
	case strings.Contains(expansion, "\n"):
		_ = b.Scope(fmt.Sprintf("#define %s", macro), func() error {
			if doWhile {
				return b.Scope("do", func() error {
					b.Line(expansion)
					return nil
				}, Opening("{"), Closing("}\nwhile (false)"))
			}

			b.Line(expansion)

			return nil
		})
	case doWhile:
		b.Line(fmt.Sprintf("#define %s do { %s } while (false)", macro, expansion))
	default:
		b.Line(fmt.Sprintf("#define %s %s", macro, expansion))
	}
}
