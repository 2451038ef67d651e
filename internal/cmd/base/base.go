package base

import (
	"bytes"
	"flag"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/nhle/jira-flow-nodes/internal/model"
)

// Command holds what every subcommand shares.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	FlagConfig string
}

// NewFlagSet returns a flag set carrying the shared -config flag.
func (c *Command) NewFlagSet(name string) *FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(new(bytes.Buffer))
	f.StringVar(&c.FlagConfig, "config", model.DefaultConfigPath(),
		"Path to the configuration file")
	return &FlagSet{FlagSet: f}
}

// LoadConfig loads the configuration named by -config and applies its log
// level to the command logger.
func (c *Command) LoadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(c.FlagConfig)
	if err != nil {
		return nil, err
	}
	if lvl := hclog.LevelFromString(cfg.LogLevel); lvl != hclog.NoLevel {
		c.Log.SetLevel(lvl)
	}
	return cfg, nil
}

// Errorf reports a formatted error to the user.
func (c *Command) Errorf(format string, args ...any) {
	c.UI.Error(fmt.Sprintf(format, args...))
}

// FlagSet wraps flag.FlagSet to render its defaults for help text.
type FlagSet struct {
	*flag.FlagSet
}

// Help returns the usage of every defined flag.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	buf.WriteString("Options:\n\n")
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&buf, "  -%s\n      %s", fl.Name, fl.Usage)
		if fl.DefValue != "" {
			fmt.Fprintf(&buf, " (default %q)", fl.DefValue)
		}
		buf.WriteString("\n\n")
	})
	return buf.String()
}
