package login

import (
	"strings"

	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/credential"
)

type Command struct {
	*base.Command

	// SetSecret defaults to the credential store.
	SetSecret func(key, value string) error

	FlagServer string
}

func (c *Command) Synopsis() string {
	return "Store the secret for a JIRA server"
}

func (c *Command) Help() string {
	return `Usage: jiraflow login -server=<id>

  Prompts for the password or API token of a configured server and saves
  it in the system keyring.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("login")
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

	cfg, err := c.LoadConfig()
	if err != nil {
		c.Errorf("error loading config: %v", err)
		return 1
	}
	srv, ok := cfg.Server(c.FlagServer)
	if !ok {
		c.Errorf("unknown server %q", c.FlagServer)
		return 1
	}

	secret, err := c.UI.AskSecret("Secret for " + srv.Username + " at " + srv.BaseURL + ":")
	if err != nil {
		c.Errorf("error reading secret: %v", err)
		return 1
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		c.Errorf("empty secret")
		return 1
	}

	set := c.SetSecret
	if set == nil {
		set = credential.Set
	}
	if err := set(credential.ServerKey(srv.ID), secret); err != nil {
		c.Errorf("error saving secret: %v", err)
		return 1
	}

	c.UI.Info("Saved secret for server " + srv.ID)
	return 0
}
