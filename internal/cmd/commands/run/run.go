package run

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/jira-flow-nodes/internal/cmd/base"
	"github.com/nhle/jira-flow-nodes/internal/flow"
	"github.com/nhle/jira-flow-nodes/internal/model"
	"github.com/nhle/jira-flow-nodes/internal/node"
	"github.com/nhle/jira-flow-nodes/internal/store"
)

// maxLine bounds a single input message.
const maxLine = 16 << 20

type Command struct {
	*base.Command

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer

	// Secrets defaults to the credential store.
	Secrets flow.SecretFunc

	FlagNode    string
	FlagTimeout time.Duration
}

func (c *Command) Synopsis() string {
	return "Feed messages from stdin through a configured node"
}

func (c *Command) Help() string {
	return `Usage: jiraflow run -node=<id> [options]

  Reads one JSON message per line from stdin and passes each to the node.
  Forwarded messages are written to stdout as JSON lines; error signals
  are reported on stderr. Exits 1 if any message raised an error.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := c.NewFlagSet("run")
	f.StringVar(&c.FlagNode, "node", "", "ID of the configured node to run")
	f.DurationVar(&c.FlagTimeout, "timeout", 0,
		"Per-message time limit; zero means none")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.Errorf("error parsing flags: %v", err)
		return 1
	}
	if c.FlagNode == "" {
		c.Errorf("-node is required")
		return 1
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		c.Errorf("error loading config: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var st store.Store
	if cfg.History.Enabled {
		s, err := c.openHistory(ctx, cfg.History)
		if err != nil {
			c.Errorf("error opening history: %v", err)
			return 1
		}
		defer s.Close()
		st = s
	}

	engine, err := flow.New(cfg, flow.Options{
		Store:    st,
		Secrets:  c.Secrets,
		Listener: statusLogger{c.Command},
		Logger:   c.Log,
	})
	if err != nil {
		c.Errorf("error starting nodes: %v", err)
		return 1
	}

	in, out := c.In, c.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	failed := false
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		var msg node.Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			c.Errorf("error decoding message: %v", err)
			failed = true
			continue
		}
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}

		res, err := c.process(ctx, engine, &msg)
		if err != nil {
			c.Errorf("error running node %s: %v", c.FlagNode, err)
			return 1
		}
		if res.Err != nil {
			c.Errorf("%s: %v", c.FlagNode, res.Err)
			failed = true
		}
		for _, m := range res.Sent {
			if err := enc.Encode(m); err != nil {
				c.Errorf("error writing message: %v", err)
				return 1
			}
		}
	}
	if err := scanner.Err(); err != nil {
		c.Errorf("error reading input: %v", err)
		return 1
	}

	if failed {
		return 1
	}
	return 0
}

func (c *Command) process(
	ctx context.Context,
	engine *flow.Engine,
	msg *node.Message,
) (*flow.Result, error) {
	if c.FlagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.FlagTimeout)
		defer cancel()
	}
	return engine.Process(ctx, c.FlagNode, msg)
}

// openHistory opens the history store and applies the retention policy.
func (c *Command) openHistory(ctx context.Context, hc model.HistoryConfig) (*store.SQLiteStore, error) {
	path := hc.Path
	if path == "" {
		path = model.DefaultHistoryPath()
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}

	if hc.RetentionDays > 0 {
		before := time.Now().AddDate(0, 0, -hc.RetentionDays)
		n, err := s.PruneInvocations(ctx, before)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("pruning history: %w", err)
		}
		if n > 0 {
			c.Log.Debug("pruned history", "removed", n)
		}
	}
	return s, nil
}

// statusLogger reports node status changes at debug level.
type statusLogger struct {
	*base.Command
}

func (l statusLogger) NodeStatus(nodeID string, st node.Status) {
	l.Log.Debug("node status", "node", nodeID, "state", st.State.String(), "text", st.Text)
}
