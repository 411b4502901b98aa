package builder

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/microcosm-cc/bluemonday"
	"github.com/verkaro/editml-go"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	gmutil "github.com/yuin/goldmark/util"

	"github.com/shirayu/pagenerator/internal/meta"
)

// newMarkdown returns the renderer for page bodies: CommonMark (which has
// fenced code) plus tables and footnotes. Raw HTML passes through.
func newMarkdown(rewriteLinks bool) goldmark.Markdown {
	var parserOpts []parser.Option
	if rewriteLinks {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			gmutil.Prioritized(newMDLinkTransformer(), 100),
		))
	}
	return goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Footnote),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// parsePage splits off front matter when enabled, resolves EditML markup when
// enabled, and extracts the title and og:description.
func (b *Builder) parsePage(text string) (Page, error) {
	page := Page{Body: text}
	if b.opts.FrontMatter {
		fm, body, err := splitFrontMatter(text)
		if err != nil {
			return Page{}, err
		}
		page.FrontMatter = fm
		page.Body = body
	}
	if b.opts.EditML {
		clean, err := CleanEditML(page.Body)
		if err != nil {
			return Page{}, err
		}
		page.Body = clean
	}
	page.Title = meta.Title(page.Body)
	page.OGDescription = meta.OGDescription(page.Body)
	return page, nil
}

// renderBody strips comments from body and renders it to HTML.
func (b *Builder) renderBody(body string) (string, error) {
	if b.opts.Comments == CommentsMeta {
		body = meta.RemoveMetaComments(body)
	} else {
		body = meta.RemoveHTMLCommentsOutsideCodeFence(body)
	}

	var buf bytes.Buffer
	if err := b.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown with goldmark: %w", err)
	}
	if b.sanitizer != nil {
		return string(b.sanitizer.SanitizeBytes(buf.Bytes())), nil
	}
	return buf.String(), nil
}

func newSanitizer() *bluemonday.Policy {
	return bluemonday.UGCPolicy()
}

// splitFrontMatter separates a leading YAML/TOML/JSON front matter block from
// text. Values are flattened to strings. Text without front matter is
// returned unchanged.
func splitFrontMatter(text string) (map[string]string, string, error) {
	var fm map[string]interface{}
	rest, err := frontmatter.Parse(strings.NewReader(text), &fm)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse front matter: %w", err)
	}
	values := make(map[string]string, len(fm))
	for k, v := range fm {
		values[k] = fmt.Sprint(v)
	}
	return values, string(rest), nil
}

// CleanEditML resolves EditML editorial markup (additions, deletions,
// highlights, comments) to the clean text it describes.
func CleanEditML(text string) (string, error) {
	nodes, parseIssues := editml.Parse(text)
	for _, issue := range parseIssues {
		if issue.Severity == editml.SeverityError {
			return "", fmt.Errorf("editml parsing error: %s", issue.Message)
		}
	}
	clean, transformIssues := editml.TransformCleanView(nodes)
	for _, issue := range transformIssues {
		if issue.Severity == editml.SeverityError {
			return "", fmt.Errorf("editml transformation error: %s", issue.Message)
		}
	}
	return clean, nil
}
