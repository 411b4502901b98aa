// Package meta extracts page metadata from raw Markdown text and strips the
// HTML comments that carry it before the text is rendered.
//
// Metadata directives are HTML comments of the form
//
//	<!-- namespace:key: value -->
//	<!-- namespace:key value -->
//
// Anything inside a fenced code block (``` ... ```) is invisible to the
// scanners in this package.
package meta

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// isSupported reports whether the converter understands the namespace:key
// pair tag.
func isSupported(tag string) bool {
	switch tag {
	case "og:description":
		return true
	}
	return false
}

var (
	codeFenceRe     = regexp.MustCompile("(?s)```.*?```")
	ogDescriptionRe = regexp.MustCompile(`(?is)<!--\s*og:description(?::|\s)\s*(.*?)\s*-->`)
	metaTagRe       = regexp.MustCompile(`(?is)<!--\s*([a-z0-9_-]+):([a-z0-9_-]+)(?::|\s).*?-->`)
	lineBreakRe     = regexp.MustCompile(`\s*\n\s*`)
)

// stripCodeFences drops every fenced code block from text.
func stripCodeFences(text string) string {
	return codeFenceRe.ReplaceAllString(text, "")
}

// Title returns the first heading line of text with its leading '#' run and
// surrounding whitespace removed. The heading level is ignored. It returns ""
// when no line starts with '#'.
func Title(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// OGDescription returns the value of the first og:description comment found
// outside fenced code blocks. Line breaks inside the value, together with the
// whitespace around them, become a literal "<br>".
func OGDescription(text string) string {
	m := ogDescriptionRe.FindStringSubmatch(stripCodeFences(text))
	if m == nil {
		return ""
	}
	return lineBreakRe.ReplaceAllString(strings.TrimSpace(m[1]), "<br>")
}

// UnsupportedTags returns the sorted, de-duplicated namespace:key pairs of
// metadata comments that are not supported. Pairs are lower-cased.
func UnsupportedTags(text string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, m := range metaTagRe.FindAllStringSubmatch(stripCodeFences(text), -1) {
		tag := strings.ToLower(m[1] + ":" + m[2])
		if isSupported(tag) || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// CheckUnsupportedMetaTags writes a single warning line to w listing the
// unsupported metadata tags in text. It reports whether a warning was written.
func CheckUnsupportedMetaTags(w io.Writer, text string) bool {
	tags := UnsupportedTags(text)
	if len(tags) == 0 {
		return false
	}
	fmt.Fprintf(w, "warning: unsupported meta tags found: %s\n", strings.Join(tags, ", "))
	return true
}
