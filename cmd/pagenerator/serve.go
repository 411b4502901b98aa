package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shirayu/pagenerator/internal/metrics"
	"github.com/shirayu/pagenerator/internal/server"
)

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	SiteFlags `embed:""`

	Addr string `short:"a" default:":8000" help:"Address to listen on"`
}

// Run executes the serve command. Every rebuild re-reads the config file, so
// edits to it take effect without a restart.
func (c *ServeCmd) Run(deps *Dependencies) error {
	site, err := deps.loadConfig()
	if err != nil {
		return err
	}
	s, err := c.resolve(site, true)
	if err != nil {
		return err
	}
	if err := s.validate(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	build := func() error {
		site, err := deps.loadConfig()
		if err != nil {
			return err
		}
		current, err := c.resolve(site, true)
		if err != nil {
			return err
		}
		if err := current.validate(); err != nil {
			return err
		}
		b, err := deps.newBuilder(current.Options, rec)
		if err != nil {
			return err
		}
		_, err = b.Walk(current.Input, current.Template, current.Output)
		return err
	}

	return server.Run(deps.Ctx, server.Options{
		Addr:     c.Addr,
		Root:     s.Output,
		Watch:    []string{s.Input, s.Template, deps.configFile()},
		Registry: reg,
		Logger:   deps.Logger,
	}, build)
}
