package main

import (
	"github.com/shirayu/pagenerator/internal/scaffold"
)

// NewCmd groups the scaffolding subcommands.
type NewCmd struct {
	Site NewSiteCmd `cmd:"" help:"Create a new site with a config file, a template and sample pages"`
	Page NewPageCmd `cmd:"" help:"Create a new Markdown page"`
}

// NewSiteCmd is the "new site" subcommand.
type NewSiteCmd struct {
	Dir string `arg:"" help:"Directory of the new site"`
}

// Run executes the new site command.
func (c *NewSiteCmd) Run(deps *Dependencies) error {
	return scaffold.CreateNewSite(deps.Stdout, c.Dir)
}

// NewPageCmd is the "new page" subcommand.
type NewPageCmd struct {
	Path  string `arg:"" help:"Path of the new page; .md is added when there is no extension"`
	Title string `arg:"" help:"Page title"`
}

// Run executes the new page command.
func (c *NewPageCmd) Run(deps *Dependencies) error {
	_, err := scaffold.CreateNewPage(deps.Stdout, c.Path, c.Title)
	return err
}
