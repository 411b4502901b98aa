package main

import (
	"github.com/shirayu/pagenerator/internal/metrics"
)

// BuildCmd is the "build" subcommand.
type BuildCmd struct {
	SiteFlags `embed:""`

	Recursive bool `short:"R" help:"Convert every .md and .mkd file below the input directory"`
}

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	site, err := deps.loadConfig()
	if err != nil {
		return err
	}
	s, err := c.resolve(site, c.Recursive || site.Recursive)
	if err != nil {
		return err
	}
	if err := s.validate(); err != nil {
		return err
	}

	b, err := deps.newBuilder(s.Options, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	if !s.Recursive {
		_, err := b.Convert(s.Input, s.Template, s.Output, "")
		return err
	}

	n, err := b.Walk(s.Input, s.Template, s.Output)
	if err != nil {
		return err
	}
	deps.Logger.Info("Build complete", "pages", n, "output", s.Output)
	return nil
}
