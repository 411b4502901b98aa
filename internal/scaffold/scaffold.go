// Package scaffold creates starter sites and pages.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/shirayu/pagenerator/internal/config"
)

// ErrExists is returned when a scaffold would overwrite an existing file.
var ErrExists = errors.New("refusing to overwrite existing file")

// CreateNewSite writes a config file, a template and a small content tree
// into dir.
func CreateNewSite(w io.Writer, dir string) error {
	fmt.Fprintln(w, "Scaffolding new site in:", dir)

	files := []struct {
		path    string
		content string
	}{
		{config.DefaultFile, siteYamlContent},
		{"template.html", templateHtmlContent},
		{"content/index.md", indexMdContent},
		{"content/docs/index.md", docsIndexMdContent},
		{"content/docs/getting-started.md", gettingStartedMdContent},
	}
	for _, f := range files {
		if err := writeNew(filepath.Join(dir, filepath.FromSlash(f.path)), []byte(f.content)); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "Site scaffolded. You can now:")
	fmt.Fprintln(w, "  cd", dir)
	fmt.Fprintln(w, "  pagenerator build")
	fmt.Fprintln(w, "  pagenerator serve")
	return nil
}

// CreateNewPage writes a Markdown page titled title to path. A missing
// extension becomes ".md".
func CreateNewPage(w io.Writer, path, title string) (string, error) {
	if filepath.Ext(path) == "" {
		path += ".md"
	}

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse page template: %w", err)
	}
	data := struct {
		Title       string
		Description string
	}{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(title),
	}
	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute page template: %w", err)
	}

	if err := writeNew(path, output.Bytes()); err != nil {
		return "", err
	}
	fmt.Fprintln(w, "Created:", path)
	return path, nil
}

func writeNew(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

const pageTemplate = `# {{.Title}}

<!-- og:description: {{.Description}} -->

Write something meaningful here.
`

const siteYamlContent = `input: content
output: public
template: template.html
recursive: true
breads:
  - docs
dict:
  site_name: My Site
  og_description: A site built with pagenerator.
`

const templateHtmlContent = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>$title | $site_name</title>
  <meta property="og:title" content="$title">
  <meta property="og:description" content="$og_description">
</head>
<body>
  $bread
  <main>
$content
  </main>
  <footer><a href="${base_href}index.html">home</a></footer>
</body>
</html>
`

const indexMdContent = `# Home

<!-- og:description: The front page. -->

Welcome. Read the [documentation](docs/index.html).
`

const docsIndexMdContent = `# Documentation

<!-- og:description: Everything about this site. -->

- [Getting started](getting-started.html)
`

const gettingStartedMdContent = `# Getting started

Edit the files below content/ and run ` + "`pagenerator build`" + `.
Pages below docs/ get a breadcrumb back to this section.
`
