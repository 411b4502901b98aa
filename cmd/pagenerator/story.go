package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/shirayu/pagenerator/internal/metrics"
	"github.com/shirayu/pagenerator/internal/story"
)

const defaultStoryFile = "story.biff"

// StoryCmd is the "story" subcommand.
type StoryCmd struct {
	SiteFlags `embed:""`

	File        string `arg:"" optional:"" default:"story.biff" help:"Story file"`
	Dest        string `short:"d" help:"Directory for the generated Markdown pages (default: the input directory, or a subdirectory named after a non-default story file)"`
	ContentOnly bool   `help:"Only write the Markdown pages, do not build the site"`
}

// Run executes the story command. Story pages carry front matter and link to
// each other's .md files, so the build always reads front matter and
// rewrites links.
func (c *StoryCmd) Run(deps *Dependencies) error {
	site, err := deps.loadConfig()
	if err != nil {
		return err
	}
	s, err := c.resolve(site, true)
	if err != nil {
		return err
	}

	dest, err := storyDest(c.File, c.Dest, s.Input)
	if err != nil {
		return err
	}
	n, err := story.Compile(c.File, dest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("story file %s not found: %w", c.File, err)
		}
		return fmt.Errorf("story compilation failed: %w", err)
	}
	deps.Logger.Info("Story compiled", "pages", n, "dir", dest)
	if c.ContentOnly {
		return nil
	}

	if err := s.validate(); err != nil {
		return err
	}
	s.Options.FrontMatter = true
	s.Options.RewriteLinks = true
	b, err := deps.newBuilder(s.Options, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	pages, err := b.Walk(s.Input, s.Template, s.Output)
	if err != nil {
		return err
	}
	deps.Logger.Info("Build complete", "pages", pages, "output", s.Output)
	return nil
}

// storyDest picks the directory the story pages are written to. The default
// story file fills the input tree itself; any other file gets a subdirectory
// named after it.
func storyDest(file, dest, input string) (string, error) {
	if dest != "" {
		return dest, nil
	}
	if input == "" {
		return "", errors.New("missing story destination: use --dest, --input or set input in the config file")
	}
	base := filepath.Base(file)
	if base == defaultStoryFile {
		return input, nil
	}
	return filepath.Join(input, strings.TrimSuffix(base, filepath.Ext(base))), nil
}
