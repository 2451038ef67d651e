package node

import (
	"context"
	"net/http"
	"strings"

	"github.com/nhle/jira-flow-nodes/internal/jira"
)

// IssueGet fetches the issue named by msg.Topic. On success Topic becomes
// the issue key and Payload the issue.
type IssueGet struct {
	base
}

// NewIssueGet creates a jira-issue-get node.
func NewIssueGet(cfg Config, deps Deps) (Node, error) {
	b, err := newBase(TypeIssueGet, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &IssueGet{base: b}, nil
}

func (n *IssueGet) Input(ctx context.Context, msg *Message) {
	key := strings.TrimSpace(msg.Topic)
	n.logger.Trace("retrieving issue", "key", key)

	if key == "" {
		n.invalid(msg, "topic", "issue key required")
		return
	}

	n.run(ctx, msg, exchange{
		failure: "Get failed",
		expect:  http.StatusOK,
		call: func(ctx context.Context) (*jira.Outcome, error) {
			return n.client.GetIssue(ctx, key)
		},
		apply: func(out *jira.Outcome, msg *Message) {
			msg.Topic = out.Key()
			msg.Payload = out.Value()
		},
	})
}

// IssueCreate creates an issue from msg.Payload. On success Topic becomes
// the new issue's key.
type IssueCreate struct {
	base
}

// NewIssueCreate creates a jira-issue-create node.
func NewIssueCreate(cfg Config, deps Deps) (Node, error) {
	b, err := newBase(TypeIssueCreate, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &IssueCreate{base: b}, nil
}

func (n *IssueCreate) Input(ctx context.Context, msg *Message) {
	n.logger.Trace("creating issue")

	body, err := payloadBody(msg.Payload)
	if err != nil {
		n.invalid(msg, "payload", err.Error())
		return
	}
	if body == nil {
		n.invalid(msg, "payload", "issue definition required")
		return
	}

	n.run(ctx, msg, exchange{
		failure: "Create failed",
		expect:  http.StatusCreated,
		call: func(ctx context.Context) (*jira.Outcome, error) {
			return n.client.CreateIssue(ctx, body)
		},
		apply: func(out *jira.Outcome, msg *Message) {
			msg.Topic = out.Key()
			msg.Result = out.Value()
		},
	})
}

// IssueUpdate applies msg.Payload to the issue named by msg.Topic. Only a
// 204 answer counts as success; the message is then forwarded unchanged.
type IssueUpdate struct {
	base
}

// NewIssueUpdate creates a jira-issue-update node.
func NewIssueUpdate(cfg Config, deps Deps) (Node, error) {
	b, err := newBase(TypeIssueUpdate, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &IssueUpdate{base: b}, nil
}

func (n *IssueUpdate) Input(ctx context.Context, msg *Message) {
	key := strings.TrimSpace(msg.Topic)
	n.logger.Trace("updating issue", "key", key)

	body, err := payloadBody(msg.Payload)
	switch {
	case key == "":
		n.invalid(msg, "topic", "issue key required")
		return
	case err != nil:
		n.invalid(msg, "payload", err.Error())
		return
	case body == nil:
		n.invalid(msg, "payload", "update definition required")
		return
	}

	n.run(ctx, msg, exchange{
		failure: "Update failed",
		expect:  http.StatusNoContent,
		call: func(ctx context.Context) (*jira.Outcome, error) {
			return n.client.UpdateIssue(ctx, key, body)
		},
	})
}
