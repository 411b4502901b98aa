// Package subst implements single-pass "$name" placeholder substitution.
//
// A template may contain $name or ${name} placeholders, where name is an
// ASCII identifier, and $$ for a literal dollar sign. Any other use of '$' is
// a malformed template.
package subst

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMissingKey is returned when a placeholder has no value in the mapping.
	ErrMissingKey = errors.New("missing placeholder value")
	// ErrMalformedTemplate is returned for a '$' that starts no valid placeholder.
	ErrMalformedTemplate = errors.New("invalid placeholder")
)

// Submatch groups: 1 escaped, 2 named, 3 braced. An empty match of the last
// alternative marks an invalid placeholder.
var placeholderRe = regexp.MustCompile(`\$(?:(\$)|([_A-Za-z][_A-Za-z0-9]*)|\{([_A-Za-z][_A-Za-z0-9]*)\}|())`)

// Template is a parsed substitution template.
type Template struct {
	text string
}

// Parse returns a Template for text. Placeholder errors are reported by
// Substitute.
func Parse(text string) *Template {
	return &Template{text: text}
}

// Substitute replaces every placeholder in t with its value from mapping.
// Values are inserted as-is and never scanned for placeholders.
func (t *Template) Substitute(mapping map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(t.text))
	last := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(t.text, -1) {
		b.WriteString(t.text[last:m[0]])
		last = m[1]
		switch {
		case m[2] >= 0:
			b.WriteByte('$')
		case m[4] >= 0, m[6] >= 0:
			name := submatch(t.text, m, 4)
			if name == "" {
				name = submatch(t.text, m, 6)
			}
			v, ok := mapping[name]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrMissingKey, name)
			}
			b.WriteString(v)
		default:
			line, col := position(t.text, m[0])
			return "", fmt.Errorf("%w in template: line %d, col %d", ErrMalformedTemplate, line, col)
		}
	}
	b.WriteString(t.text[last:])
	return b.String(), nil
}

func submatch(s string, m []int, group int) string {
	if m[group] < 0 {
		return ""
	}
	return s[m[group]:m[group+1]]
}

// position returns the 1-based line and column of the byte offset i.
func position(s string, i int) (int, int) {
	prefix := s[:i]
	line := strings.Count(prefix, "\n") + 1
	col := i - strings.LastIndex(prefix, "\n")
	return line, col
}
