package meta

import (
	"regexp"
	"strings"
)

var (
	metaCommentRe = regexp.MustCompile(`(?is)<!--\s*(?:og|twitter):[a-z0-9_-]+(?::|\s).*?-->`)
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// RemoveMetaComments removes og:* and twitter:* metadata comments from text.
// Other comments are kept, and so are the newlines around a removed comment.
func RemoveMetaComments(text string) string {
	return metaCommentRe.ReplaceAllString(text, "")
}

// RemoveHTMLCommentsOutsideCodeFence removes every HTML comment that is not
// inside a fenced code block. Fenced blocks are copied through unchanged.
//
// A comment line between two list items ends the list in the renderer, so
// the comments have to go before rendering.
func RemoveHTMLCommentsOutsideCodeFence(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range codeFenceRe.FindAllStringIndex(text, -1) {
		b.WriteString(htmlCommentRe.ReplaceAllString(text[last:loc[0]], ""))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(htmlCommentRe.ReplaceAllString(text[last:], ""))
	return b.String()
}
