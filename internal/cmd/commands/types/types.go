package types

import (
	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/node"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "List the available node types"
}

func (c *Command) Help() string {
	return "Usage: jiraflow types"
}

func (c *Command) Run(_ []string) int {
	for _, t := range node.DefaultRegistry().Types() {
		c.UI.Output(t)
	}
	return 0
}
