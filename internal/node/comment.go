package node

import (
	"context"
	"net/http"
	"strings"

	"github.com/nhle/jira-flow-nodes/internal/jira"
)

// Comment adds or edits a comment on the issue named by msg.Topic, using
// msg.Payload as the comment body. On success Payload becomes the comment
// returned by JIRA.
type Comment struct {
	base
	edit bool
}

// NewCommentAdd creates a jira-issue-comment-add node.
func NewCommentAdd(cfg Config, deps Deps) (Node, error) {
	b, err := newBase(TypeCommentAdd, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &Comment{base: b}, nil
}

// NewCommentUpdate creates a jira-issue-comment-update node.
func NewCommentUpdate(cfg Config, deps Deps) (Node, error) {
	b, err := newBase(TypeCommentUpdate, cfg, deps)
	if err != nil {
		return nil, err
	}
	return &Comment{base: b, edit: true}, nil
}

func (n *Comment) Input(ctx context.Context, msg *Message) {
	key := strings.TrimSpace(msg.Topic)

	failure := "Create comment failed"
	call := n.client.AddComment
	if n.edit {
		failure = "Edit comment failed"
		call = n.client.EditComment
	}
	n.logger.Trace("commenting on issue", "key", key, "edit", n.edit)

	body, err := payloadBody(msg.Payload)
	switch {
	case key == "":
		n.invalid(msg, "topic", "issue key required")
		return
	case err != nil:
		n.invalid(msg, "payload", err.Error())
		return
	case body == nil:
		n.invalid(msg, "payload", "comment body required")
		return
	}

	n.run(ctx, msg, exchange{
		failure: failure,
		expect:  http.StatusCreated,
		call: func(ctx context.Context) (*jira.Outcome, error) {
			return call(ctx, key, body)
		},
		apply: func(out *jira.Outcome, msg *Message) {
			msg.Payload = out.Value()
		},
	})
}
