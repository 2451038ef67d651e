package logout

import (
	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/credential"
)

type Command struct {
	*base.Command

	FlagServer string
}

func (c *Command) Synopsis() string {
	return "Remove the stored secret for a JIRA server"
}

func (c *Command) Help() string {
	return `Usage: jiraflow logout -server=<id>

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("logout")
	f.StringVar(&c.FlagServer, "server", "", "ID of the configured server")
	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.Errorf("error parsing flags: %v", err)
		return 1
	}
	if c.FlagServer == "" {
		c.Errorf("-server is required")
		return 1
	}

	if err := credential.Delete(credential.ServerKey(c.FlagServer)); err != nil {
		c.Errorf("error removing secret: %v", err)
		return 1
	}

	c.UI.Info("Removed secret for server " + c.FlagServer)
	return 0
}
