package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/cmd/commands/history"
	"github.com/nhle/jira-flow-nodes/internal/cmd/commands/login"
	"github.com/nhle/jira-flow-nodes/internal/cmd/commands/logout"
	"github.com/nhle/jira-flow-nodes/internal/cmd/commands/run"
	"github.com/nhle/jira-flow-nodes/internal/cmd/commands/types"
)

// Commands returns the subcommand factories of the CLI.
func Commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	b := func() *base.Command {
		return &base.Command{Log: log, UI: ui}
	}

	return map[string]cli.CommandFactory{
		"run": func() (cli.Command, error) {
			return &run.Command{Command: b()}, nil
		},
		"login": func() (cli.Command, error) {
			return &login.Command{Command: b()}, nil
		},
		"logout": func() (cli.Command, error) {
			return &logout.Command{Command: b()}, nil
		},
		"history": func() (cli.Command, error) {
			return &history.Command{Command: b()}, nil
		},
		"types": func() (cli.Command, error) {
			return &types.Command{Command: b()}, nil
		},
		"version": func() (cli.Command, error) {
			return &versionCommand{ui: ui}, nil
		},
	}
}

type versionCommand struct {
	ui cli.Ui
}

func (c *versionCommand) Synopsis() string { return "Print the version" }
func (c *versionCommand) Help() string     { return "Usage: jiraflow version" }

func (c *versionCommand) Run(_ []string) int {
	c.ui.Output(Version)
	return 0
}
