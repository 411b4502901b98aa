package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shirayu/pagenerator/internal/builder"
	"github.com/shirayu/pagenerator/internal/config"
	"github.com/shirayu/pagenerator/internal/metrics"
)

// Dependencies holds what commands need at run time.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	ConfigPath string
	Logger     *slog.Logger
}

func (d *Dependencies) loadConfig() (config.SiteConfig, error) {
	return config.Load(d.ConfigPath)
}

// configFile is the config file to watch for changes.
func (d *Dependencies) configFile() string {
	if d.ConfigPath != "" {
		return d.ConfigPath
	}
	return config.DefaultFile
}

func (d *Dependencies) newBuilder(opts builder.Options, rec metrics.Recorder) (*builder.Builder, error) {
	return builder.New(opts,
		builder.WithOutput(d.Stdout, d.Stderr),
		builder.WithLogger(d.Logger),
		builder.WithRecorder(rec),
	)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (default: ./pagenerator.yaml when present)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Convert a Markdown file, or a tree with -R, into HTML (default)"`
	Serve ServeCmd `cmd:"" help:"Build the tree, serve it with live reload and rebuild on changes"`
	New   NewCmd   `cmd:"" help:"Create a new site or page"`
	Story StoryCmd `cmd:"" help:"Compile a .biff story into Markdown pages and build them"`
}

// SiteFlags are the conversion settings shared by the commands that build.
// Each overrides the matching key of the config file.
type SiteFlags struct {
	Input        string   `short:"i" help:"Input Markdown file, or input directory for tree builds"`
	Output       string   `short:"o" help:"Output HTML file ('-' for standard output), or output directory for tree builds"`
	Template     string   `short:"t" help:"Template file for the pages"`
	Force        bool     `short:"f" help:"Convert even when the output is newer than its sources"`
	Breads       []string `help:"Relative path prefix whose pages get breadcrumbs (repeatable)"`
	Dict         string   `help:"Keyword dictionary as a JSON object, e.g. '{\"og_description\": \"...\"}'"`
	Encoding     string   `help:"Encoding of input, template and output files (default: UTF-8)"`
	Comments     string   `help:"HTML comments to strip before rendering: all or meta (default: all)"`
	Sanitize     bool     `help:"Sanitize the rendered HTML"`
	FrontMatter  bool     `name:"front-matter" help:"Read YAML/TOML/JSON front matter as placeholder values"`
	EditML       bool     `name:"editml" help:"Resolve EditML markup to its clean text"`
	RewriteLinks bool     `name:"rewrite-links" help:"Rewrite links to .md and .mkd files into links to .html"`
}

// settings is the effective configuration of one build.
type settings struct {
	Input     string
	Output    string
	Template  string
	Recursive bool
	Options   builder.Options
}

// resolve merges the flags over site.
func (f *SiteFlags) resolve(site config.SiteConfig, recursive bool) (settings, error) {
	dict, err := config.ParseDict(f.Dict)
	if err != nil {
		return settings{}, err
	}
	breads := f.Breads
	if len(breads) == 0 {
		breads = site.Breads
	}
	return settings{
		Input:     firstNonEmpty(f.Input, site.Input),
		Output:    firstNonEmpty(f.Output, site.Output),
		Template:  firstNonEmpty(f.Template, site.Template),
		Recursive: recursive,
		Options: builder.Options{
			Encoding:     firstNonEmpty(f.Encoding, site.Encoding),
			Force:        f.Force || site.Force,
			Dict:         config.MergeDict(site.Dict, dict),
			Breads:       breads,
			Comments:     firstNonEmpty(f.Comments, site.Comments),
			Sanitize:     f.Sanitize || site.Sanitize,
			FrontMatter:  f.FrontMatter || site.FrontMatter,
			EditML:       f.EditML || site.EditML,
			RewriteLinks: f.RewriteLinks || site.RewriteLinks,
		},
	}, nil
}

func (s settings) validate() error {
	var errs []error
	if s.Input == "" {
		errs = append(errs, errors.New("missing input: use --input or set input in the config file"))
	}
	if s.Output == "" {
		errs = append(errs, errors.New("missing output: use --output or set output in the config file"))
	}
	if s.Template == "" {
		errs = append(errs, errors.New("missing template: use --template or set template in the config file"))
	}
	if s.Recursive && s.Output == builder.Stdout {
		errs = append(errs, fmt.Errorf("output %q is only allowed for single files", builder.Stdout))
	}
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
