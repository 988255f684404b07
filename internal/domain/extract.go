package domain

import (
	"fmt"
	"regexp"
	"strings"

	m "github.com/mouse-blink/loom/internal/model"
)

// scriptExt marks files whose entire content is one directive body.
const scriptExt = ".star"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ExtractFile scans one source file for directives. Files with the script
// extension are treated as a single whole-file directive; everything else is
// scanned for framed directives inside block comments. Malformed directives
// become diagnostics; the scan keeps going so one bad frame does not hide
// the rest of the file.
func ExtractFile(source m.Path, content []byte) ([]m.Directive, m.Diagnostics) {
	lines := splitSourceLines(string(content))

	if strings.HasSuffix(string(source), scriptExt) {
		return extractScript(source, lines)
	}

	return extractFramed(source, lines)
}

// extractScript handles the whole-file form: optional inclusion marker, a
// #meta header on the first non-blank line, and the rest of the file as the
// body. A file whose first non-blank line is anything else has no directive.
func extractScript(source m.Path, lines []string) ([]m.Directive, m.Diagnostics) {
	i := 0

	for i < len(lines) {
		target := m.Path("")

		if t, ok := parseIncludeMarker(lines[i]); ok {
			target = t
			i++

			if i >= len(lines) {
				break
			}

			// A run of markers binds the one nearest the header.
			if _, ok := parseIncludeMarker(lines[i]); ok {
				continue
			}
		}

		headerLine := i + 1
		header := strings.TrimSpace(lines[i])
		i++

		if rest, ok := metaHeader(header); ok {
			ports, diag := parsePorts(source, headerLine, rest)
			if diag != nil {
				return nil, m.Diagnostics{*diag}
			}

			body := strings.Join(lines[i:], "\n")
			if body != "" {
				body += "\n"
			}

			return []m.Directive{{
				Source:   source,
				Line:     headerLine,
				EndLine:  len(lines),
				Exports:  ports.exports,
				Imports:  ports.imports,
				Bare:     ports.bare,
				Body:     body,
				BodyLine: headerLine + 1,
				Target:   target,
			}}, nil
		}

		if header != "" {
			break
		}
	}

	return nil, nil
}

// extractFramed scans for block comments opening with #meta. The marker line
// directly above a header assigns the directive's output target; a marker
// anywhere else binds nothing.
func extractFramed(source m.Path, lines []string) ([]m.Directive, m.Diagnostics) {
	var (
		directives []m.Directive
		diags      m.Diagnostics
	)

	i := 0

	for i < len(lines) {
		target := m.Path("")

		if t, ok := parseIncludeMarker(lines[i]); ok {
			target = t
			i++

			if i >= len(lines) {
				break
			}

			// A run of markers binds the one nearest the header.
			if _, ok := parseIncludeMarker(lines[i]); ok {
				continue
			}
		}

		headerLine := i + 1
		rest, isHeader := frameHeader(lines[i])
		i++

		if !isHeader {
			continue
		}

		directive := m.Directive{
			Source:   source,
			Line:     headerLine,
			Ordinal:  len(directives),
			BodyLine: headerLine + 1,
			Target:   target,
		}

		// A closing on the header line makes a bodyless one-liner.
		if at := strings.Index(rest, "*/"); at >= 0 {
			rest = rest[:at]
			directive.EndLine = headerLine
		} else {
			body, next, endLine, closed := frameBody(lines, i)
			i = next

			if !closed {
				diags = append(diags, m.Diagnostic{
					Category: m.CategoryExtract,
					Span:     m.Span{Source: source, Start: headerLine, End: headerLine},
					Message:  "directive frame has no closing */",
				})

				break
			}

			directive.EndLine = endLine

			if len(body) > 0 {
				directive.Body = strings.Join(deindentBody(body), "\n") + "\n"
			}
		}

		ports, diag := parsePorts(source, headerLine, rest)
		if diag != nil {
			diags = append(diags, *diag)
			continue
		}

		directive.Exports = ports.exports
		directive.Imports = ports.imports
		directive.Bare = ports.bare

		directives = append(directives, directive)
	}

	return directives, diags
}

// frameHeader recognizes a line opening a directive frame and returns the
// header text after the #meta keyword.
func frameHeader(line string) (string, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "/*") {
		return "", false
	}

	return metaHeader(strings.TrimSpace(strings.TrimPrefix(s, "/*")))
}

// metaHeader returns the text after the #meta keyword. The keyword must end
// at a word boundary so that #metadata is plain text, not a directive.
func metaHeader(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, "#meta")
	if !ok {
		return "", false
	}

	if rest != "" && identChar(rest[0]) {
		return "", false
	}

	return rest, true
}

func identChar(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

// frameBody consumes lines until the closing */. Text before the closing on
// its line is kept; text after it is dropped with the frame.
func frameBody(lines []string, start int) (body []string, next, endLine int, closed bool) {
	for i := start; i < len(lines); i++ {
		line := lines[i]

		if at := strings.Index(line, "*/"); at >= 0 {
			if prefix := strings.TrimRight(line[:at], " \t"); prefix != "" {
				body = append(body, prefix)
			}

			return body, i + 1, i + 1, true
		}

		body = append(body, strings.TrimRight(line, " \t"))
	}

	return body, len(lines), 0, false
}

// ports is the parsed export/import declaration of one header.
type ports struct {
	exports []string
	imports []string
	bare    bool
}

// parsePorts splits the header text around the colon. No colon and no names
// means the bare form; a colon with an empty right side means the directive
// explicitly imports nothing.
func parsePorts(source m.Path, line int, text string) (ports, *m.Diagnostic) {
	fail := func(format string, args ...any) (ports, *m.Diagnostic) {
		return ports{}, &m.Diagnostic{
			Category: m.CategoryExtract,
			Span:     m.Span{Source: source, Start: line, End: line},
			Message:  fmt.Sprintf(format, args...),
		}
	}

	parts := strings.Split(text, ":")
	if len(parts) > 2 {
		return fail("too many colons in directive header")
	}

	exports := splitNames(parts[0])

	var imports []string

	hasImports := len(parts) == 2
	if hasImports {
		imports = splitNames(parts[1])
	}

	for _, name := range exports {
		if !identRe.MatchString(name) {
			return fail("export %q is not a valid identifier", name)
		}
	}

	for _, name := range imports {
		if !identRe.MatchString(name) {
			return fail("import %q is not a valid identifier", name)
		}
	}

	return ports{
		exports: exports,
		imports: imports,
		bare:    len(exports) == 0 && !hasImports,
	}, nil
}

// splitNames splits a comma list, trimming entries and dropping empties, so
// stray commas are harmless. Repeated names collapse to the first mention.
func splitNames(s string) []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)

	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}

		seen[name] = true
		names = append(names, name)
	}

	return names
}

// parseIncludeMarker recognizes an inclusion marker line, optionally behind
// a // or /* comment opener, and returns the quoted output path.
func parseIncludeMarker(line string) (m.Path, bool) {
	s := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(s, "//"):
		s = s[2:]
	case strings.HasPrefix(s, "/*"):
		s = s[2:]
	}

	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return "", false
	}

	s = strings.TrimSpace(s[1:])
	if !strings.HasPrefix(s, "include") {
		return "", false
	}

	s = strings.TrimSpace(s[len("include"):])
	if s == "" {
		return "", false
	}

	var closer byte

	switch s[0] {
	case '"':
		closer = '"'
	case '<':
		closer = '>'
	default:
		return "", false
	}

	inner := s[1:]

	end := strings.IndexByte(inner, closer)
	if end <= 0 {
		return "", false
	}

	return m.Path(inner[:end]), true
}

// splitSourceLines splits file content into lines, tolerating CRLF endings
// and a missing final newline.
func splitSourceLines(content string) []string {
	if content == "" {
		return nil
	}

	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

// deindentBody strips the common indentation of a frame body. The reference
// indent comes from the first non-blank line that is not a # comment, so
// column-zero comments inside an indented body cannot pin everything in
// place. Lines above that reference keep their indent.
func deindentBody(lines []string) []string {
	out := make([]string, len(lines))
	base := -1

	for i, line := range lines {
		own := len(line) - len(strings.TrimLeft(line, " "))
		trimmed := strings.TrimSpace(line)

		if base < 0 && trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			base = own
		}

		strip := 0
		if base >= 0 {
			strip = min(own, base)
		}

		out[i] = line[strip:]
	}

	return out
}
