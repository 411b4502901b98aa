// Package builder converts Markdown documents into HTML pages through a
// "$name" substitution template.
package builder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/shirayu/pagenerator/internal/meta"
	"github.com/shirayu/pagenerator/internal/metrics"
	"github.com/shirayu/pagenerator/internal/subst"
	"github.com/shirayu/pagenerator/internal/util"
)

// Stdout is the output path that sends a converted page to standard output.
const Stdout = "-"

// Comment handling modes for Options.Comments.
const (
	CommentsAll  = "all"
	CommentsMeta = "meta"
)

// Options controls how pages are converted.
type Options struct {
	// Encoding is the WHATWG label of the input, template and output encoding.
	Encoding string
	// Force disables the up-to-date check.
	Force bool
	// Dict holds extra placeholder values; "prefix:key" entries only apply to
	// inputs whose path starts with prefix.
	Dict map[string]string
	// Breads lists the relative path prefixes that get breadcrumbs.
	Breads []string
	// Comments selects which HTML comments are stripped before rendering:
	// CommentsAll (default) or CommentsMeta.
	Comments     string
	Sanitize     bool
	FrontMatter  bool
	EditML       bool
	RewriteLinks bool
}

// Builder converts single files and whole trees.
type Builder struct {
	opts      Options
	codec     textCodec
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	stdout    io.Writer
	stderr    io.Writer
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithOutput sets where pages written to Stdout, progress lines and warnings go.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *Builder) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// New returns a Builder for opts.
func New(opts Options, options ...Option) (*Builder, error) {
	switch opts.Comments {
	case "":
		opts.Comments = CommentsAll
	case CommentsAll, CommentsMeta:
	default:
		return nil, fmt.Errorf("unknown comment mode %q", opts.Comments)
	}
	codec, err := newTextCodec(opts.Encoding)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		opts:     opts,
		codec:    codec,
		md:       newMarkdown(opts.RewriteLinks),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	if opts.Sanitize {
		b.sanitizer = newSanitizer()
	}
	for _, o := range options {
		o(b)
	}
	return b, nil
}

// Convert renders the document at inputPath through the template at
// templatePath into outputPath, or to standard output when outputPath is
// Stdout. A non-empty bread is the ancestor list from Bread; the current page
// is appended to it. Convert returns the page title, also when the output was
// already up to date and nothing was written.
func (b *Builder) Convert(inputPath, templatePath, outputPath, bread string) (string, error) {
	res, err := b.convert(job{
		input:    inputPath,
		template: templatePath,
		output:   outputPath,
		bread:    bread,
	})
	return res.title, err
}

func (b *Builder) convert(j job) (result, error) {
	begin := time.Now()
	res, err := b.convertPage(j)
	switch {
	case err != nil:
		b.recorder.IncPageResult(metrics.ResultFailed)
	case res.skipped:
		b.recorder.IncPageResult(metrics.ResultSkipped)
	default:
		b.recorder.IncPageResult(metrics.ResultConverted)
		b.recorder.ObservePageDuration(time.Since(begin))
	}
	return res, err
}

func (b *Builder) convertPage(j job) (result, error) {
	if dir := filepath.Dir(j.output); j.output != Stdout && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return result{}, fmt.Errorf("%w %s: %w", ErrOutputDir, dir, err)
		}
	}

	text, err := b.codec.readFile(j.input)
	if err != nil {
		return result{}, fmt.Errorf("failed to read input %s: %w", j.input, err)
	}
	tmplText, err := b.codec.readFile(j.template)
	if err != nil {
		return result{}, fmt.Errorf("failed to read template %s: %w", j.template, err)
	}
	tmpl := subst.Parse(tmplText)

	page, err := b.parsePage(text)
	if err != nil {
		return result{}, fmt.Errorf("failed to process content for %s: %w", j.input, err)
	}
	var warning bytes.Buffer
	if meta.CheckUnsupportedMetaTags(&warning, page.Body) {
		fmt.Fprintf(b.stderr, "%s: %s", j.input, warning.String())
		b.recorder.AddWarnings(1)
	}

	if j.output != Stdout && !b.opts.Force {
		fresh, err := upToDate(j.output, j.input, j.template)
		if err != nil {
			return result{}, err
		}
		if fresh {
			b.logger.Debug("Skipping up-to-date page", "input", j.input, "output", j.output)
			return result{title: page.Title, skipped: true}, nil
		}
	}

	content, err := b.renderBody(page.Body)
	if err != nil {
		return result{}, fmt.Errorf("failed to render %s: %w", j.input, err)
	}
	dict := ScopeDict(b.opts.Dict, filepath.ToSlash(j.input))
	mapping := page.Placeholders(content, wrapBread(j.bread, page.Title), j.baseHref, dict)

	html, err := tmpl.Substitute(mapping)
	if err != nil {
		return result{}, fmt.Errorf("failed to render page %s with template %s: %w", j.input, j.template, err)
	}
	if err := b.writePage(j.output, html); err != nil {
		return result{}, fmt.Errorf("failed to write page %s: %w", j.output, err)
	}
	return result{title: page.Title}, nil
}

// writePage writes html to path in the configured encoding, or as UTF-8 to
// standard output for Stdout.
func (b *Builder) writePage(path, html string) error {
	if path == Stdout {
		_, err := io.WriteString(b.stdout, html)
		return err
	}
	data, err := b.codec.encode(html)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// upToDate reports whether output exists and is newer than every source.
func upToDate(output string, sources ...string) (bool, error) {
	out, err := os.Stat(output)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			return false, err
		}
		if !info.ModTime().Before(out.ModTime()) {
			return false, nil
		}
	}
	return true, nil
}

// Walk converts every .md and .mkd file below inputRoot into a mirrored .html
// file below outputRoot and prints one "input output title" line per file.
// Within each directory files come before subdirectories and index.md comes
// first, so a directory's title is registered before any page that needs it
// as a breadcrumb ancestor. Walk stops at the first failing file. It returns
// the number of pages written.
func (b *Builder) Walk(inputRoot, templatePath, outputRoot string) (int, error) {
	begin := time.Now()
	defer func() { b.recorder.ObserveBuildDuration(time.Since(begin)) }()

	return b.walkDir(inputRoot, "", templatePath, outputRoot, make(TitleRegistry))
}

func (b *Builder) walkDir(inputRoot, relDir, templatePath, outputRoot string, titles TitleRegistry) (int, error) {
	dir := filepath.Join(inputRoot, filepath.FromSlash(relDir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files, dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}

	written := 0
	for _, name := range indexFirst(files) {
		converted, err := b.walkFile(inputRoot, path.Join(relDir, name), templatePath, outputRoot, titles)
		if err != nil {
			return written, err
		}
		if converted {
			written++
		}
	}
	for _, name := range dirs {
		n, err := b.walkDir(inputRoot, path.Join(relDir, name), templatePath, outputRoot, titles)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// walkFile converts one file of the tree. rel is slash-separated and
// relative to inputRoot.
func (b *Builder) walkFile(inputRoot, rel, templatePath, outputRoot string, titles TitleRegistry) (bool, error) {
	ext := path.Ext(rel)
	if ext != ".md" && ext != ".mkd" {
		return false, nil
	}
	root := strings.TrimSuffix(rel, ext)
	key := CleanPath(root)
	inputPath := filepath.Join(inputRoot, filepath.FromSlash(rel))
	outputPath := filepath.Join(outputRoot, filepath.FromSlash(root)+".html")

	withBread := b.breadApplies(root)
	bread := ""
	if withBread {
		var err error
		if bread, err = Bread(key, titles); err != nil {
			return false, fmt.Errorf("failed to build breadcrumb for %s: %w", inputPath, err)
		}
	}

	res, err := b.convert(job{
		input:    inputPath,
		template: templatePath,
		output:   outputPath,
		bread:    bread,
		baseHref: util.ComputeBaseHref(root + ".html"),
	})
	if err != nil {
		return false, err
	}
	if withBread {
		titles[key] = res.title
	}
	fmt.Fprintln(b.stdout, inputPath, outputPath, res.title)
	return !res.skipped, nil
}

// breadApplies reports whether the relative root of a page, such as
// "docs/index", starts with one of the breadcrumb prefixes.
func (b *Builder) breadApplies(root string) bool {
	for _, prefix := range b.opts.Breads {
		if strings.HasPrefix(root, prefix) {
			return true
		}
	}
	return false
}

// indexFirst sorts names and moves index.md to the front.
func indexFirst(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for i, name := range sorted {
		if name == "index.md" {
			copy(sorted[1:i+1], sorted[:i])
			sorted[0] = name
			break
		}
	}
	return sorted
}
