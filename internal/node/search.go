package node

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhle/jira-flow-nodes/internal/jira"
)

// Search runs a paginated JQL search. The query comes from msg.JQL or the
// node configuration, the field list from msg.Fields, the configuration or
// jira.DefaultFields.
//
// By default one message is forwarded with Payload and Result holding every
// matched issue. With Split set, one message is forwarded per issue with
// Topic set to its key.
type Search struct {
	base
	jql      string
	fields   []string
	pageSize int
	split    bool
}

// NewSearch creates a jira-search node.
func NewSearch(cfg Config, deps Deps) (Node, error) {
	b, err := newBase(TypeSearch, cfg, deps)
	if err != nil {
		return nil, err
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = deps.Client.PageSize()
	}
	return &Search{
		base:     b,
		jql:      cfg.JQL,
		fields:   cfg.Fields,
		pageSize: pageSize,
		split:    cfg.Split,
	}, nil
}

func (n *Search) Input(ctx context.Context, msg *Message) {
	jql := strings.TrimSpace(msg.JQL)
	if jql == "" {
		jql = strings.TrimSpace(n.jql)
	}
	fields := msg.Fields
	if len(fields) == 0 {
		fields = n.fields
	}
	if len(fields) == 0 {
		fields = jira.DefaultFields
	}

	n.logger.Trace("performing search", "jql", jql)

	if jql == "" {
		n.invalid(msg, "jql", "query required")
		return
	}

	n.status(StateRequesting, "Requesting...")

	fetcher := jira.NewFetcher(n.client, n.pageSize,
		jira.WithPageObserver(func(p jira.Page) {
			n.logger.Debug("fetched search page",
				"page", p.Number, "start_at", p.StartAt, "count", p.Count, "total", p.Total)
			n.status(StateRequesting, fmt.Sprintf("Fetched %d of %d", p.StartAt+p.Count, p.Total))
		}),
	)

	res, err := fetcher.FetchAll(ctx, jql, fields)
	if err != nil {
		n.fail(msg, "Error performing request", err)
		return
	}

	issues := make([]any, 0, len(res.Issues))
	for _, raw := range res.Issues {
		var issue any
		if err := json.Unmarshal(raw, &issue); err != nil {
			n.fail(msg, "Error performing request", fmt.Errorf("decoding issue: %w", err))
			return
		}
		issues = append(issues, issue)
	}

	if !n.split {
		msg.Payload = issues
		msg.Result = issues
		n.send(msg)
		return
	}

	n.status(StateIdle, "")
	for _, issue := range issues {
		out := msg.Clone()
		if m, ok := issue.(map[string]any); ok {
			out.Topic, _ = m["key"].(string)
		}
		out.Result = issue
		out.Payload = issue
		n.host.Send(n.id, out)
	}
}
