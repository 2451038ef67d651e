package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/model"
	"github.com/nhle/jira-flow-nodes/internal/store"
)

type Command struct {
	*base.Command

	FlagNode   string
	FlagErrors bool
	FlagLimit  int
}

func (c *Command) Synopsis() string {
	return "List recorded node invocations"
}

func (c *Command) Help() string {
	return `Usage: jiraflow history [options]

  Lists recorded invocations, newest first.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("history")
	f.StringVar(&c.FlagNode, "node", "", "Only show invocations of this node")
	f.BoolVar(&c.FlagErrors, "errors", false, "Only show invocations that raised an error")
	f.IntVar(&c.FlagLimit, "limit", 20, "Maximum number of invocations to show")
	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.Errorf("error parsing flags: %v", err)
		return 1
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		c.Errorf("error loading config: %v", err)
		return 1
	}
	path := cfg.History.Path
	if path == "" {
		path = model.DefaultHistoryPath()
	}

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		c.Errorf("error opening history: %v", err)
		return 1
	}
	defer s.Close()

	filter := store.InvocationFilter{Limit: c.FlagLimit}
	if c.FlagNode != "" {
		filter.NodeID = &c.FlagNode
	}
	if c.FlagErrors {
		outcome := model.OutcomeError
		filter.Outcome = &outcome
	}

	invs, err := s.GetInvocations(context.Background(), filter)
	if err != nil {
		c.Errorf("error reading history: %v", err)
		return 1
	}
	for _, inv := range invs {
		c.UI.Output(formatInvocation(inv))
	}
	return 0
}

func formatInvocation(inv model.Invocation) string {
	parts := []string{
		inv.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		inv.NodeID,
		inv.Outcome,
	}
	if inv.IssueKey != "" {
		parts = append(parts, inv.IssueKey)
	}
	if inv.Outcome == model.OutcomeSent {
		parts = append(parts, fmt.Sprintf("forwarded=%d", inv.Forwarded))
	}
	if inv.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", inv.StatusCode))
	}
	parts = append(parts, fmt.Sprintf("%dms", inv.DurationMs))
	if inv.Error != "" {
		parts = append(parts, inv.Error)
	}
	return strings.Join(parts, "  ")
}
