package notification

import "strings"

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Render substitutes every {{name}} found in p with its value.
// The template is scanned once left to right: inserted values are never re-scanned
// and names missing from p are kept verbatim.
func Render(tmpl string, p Placeholders) string {
	if len(p) == 0 || !strings.Contains(tmpl, openDelim) {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl))
	rest := tmpl
	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+len(openDelim):], closeDelim)
		if end < 0 {
			break
		}
		nameEnd := start + len(openDelim) + end
		name := rest[start+len(openDelim) : nameEnd]

		if val, ok := p[name]; ok {
			b.WriteString(rest[:start])
			b.WriteString(val)
			rest = rest[nameEnd+len(closeDelim):]
			continue
		}
		// unknown name: keep the opening brace and resume right after it,
		// so "{{{{x}}" still finds "{{x}}".
		b.WriteString(rest[:start+1])
		rest = rest[start+1:]
	}
	b.WriteString(rest)
	return b.String()
}
