package builder

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// mdLinkTransformer points relative links at Markdown sources to the pages
// generated from them.
type mdLinkTransformer struct{}

func newMDLinkTransformer() parser.ASTTransformer {
	return &mdLinkTransformer{}
}

// Transform rewrites "page.md", "page.mkd" and "page.md#part" destinations to
// "page.html". Absolute URLs are left alone.
func (t *mdLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		link.Destination = rewriteMarkdownLink(link.Destination)
		return ast.WalkContinue, nil
	})
}

func rewriteMarkdownLink(dest []byte) []byte {
	if bytes.Contains(dest, []byte("://")) {
		return dest
	}
	path, fragment := dest, []byte(nil)
	if i := bytes.IndexByte(dest, '#'); i >= 0 {
		path, fragment = dest[:i], dest[i:]
	}
	for _, ext := range [][]byte{[]byte(".md"), []byte(".mkd")} {
		if bytes.HasSuffix(path, ext) {
			out := make([]byte, 0, len(dest)+2)
			out = append(out, bytes.TrimSuffix(path, ext)...)
			out = append(out, ".html"...)
			return append(out, fragment...)
		}
	}
	return dest
}
