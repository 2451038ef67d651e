package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/nhle/jira-flow-nodes/internal/jira"
)

// Node type names, as registered with the host runtime.
const (
	TypeIssueGet      = "jira-issue-get"
	TypeIssueCreate   = "jira-issue-create"
	TypeIssueUpdate   = "jira-issue-update"
	TypeCommentAdd    = "jira-issue-comment-add"
	TypeCommentUpdate = "jira-issue-comment-update"
	TypeSearch        = "jira-search"
)

// Node handles input messages for one configured node instance.
type Node interface {
	ID() string
	Type() string

	// Input processes msg. The node reports the result to its Host.
	Input(ctx context.Context, msg *Message)
}

// Config is the static per-node configuration.
type Config struct {
	ID     string
	Type   string
	Name   string
	Server string

	// JQL and Fields are search defaults, overridden per message.
	JQL    string
	Fields []string

	// PageSize overrides the server's search page size when positive.
	PageSize int

	// Split makes a search forward one message per issue instead of a
	// single message holding all of them.
	Split bool
}

// Deps are the collaborators a node is built with.
type Deps struct {
	Client *jira.Client
	Host   Host
	Logger hclog.Logger
}

// base carries what every node type shares: identity, the injected client,
// the host and the result reporting convention.
type base struct {
	id     string
	typ    string
	client *jira.Client
	host   Host
	logger hclog.Logger
}

func newBase(typ string, cfg Config, deps Deps) (base, error) {
	if cfg.ID == "" {
		return base{}, errors.New("node id required")
	}
	if deps.Client == nil {
		return base{}, fmt.Errorf("node %s: jira client required", cfg.ID)
	}
	if deps.Host == nil {
		return base{}, fmt.Errorf("node %s: host required", cfg.ID)
	}
	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return base{
		id:     cfg.ID,
		typ:    typ,
		client: deps.Client,
		host:   deps.Host,
		logger: logger.Named(cfg.ID),
	}, nil
}

func (b *base) ID() string   { return b.id }
func (b *base) Type() string { return b.typ }

func (b *base) status(state State, text string) {
	b.host.NodeStatus(b.id, Status{State: state, Text: text})
}

// send reports success and forwards msg.
func (b *base) send(msg *Message) {
	b.status(StateIdle, "")
	b.host.Send(b.id, msg)
}

// fail records the diagnostic fields of err on msg and raises the error
// signal. Unexpected statuses carry the code and body, transport and
// validation failures carry the error detail.
func (b *base) fail(msg *Message, text string, err error) {
	var statusErr *jira.UnexpectedStatusError
	if errors.As(err, &statusErr) {
		msg.StatusCode = statusErr.StatusCode
		msg.Payload = (&jira.Outcome{Body: statusErr.Body}).Value()
	} else {
		msg.Errors = err.Error()
	}

	b.logger.Warn(text, "type", b.typ, "topic", msg.Topic, "error", err)
	b.status(StateError, text)
	b.host.Error(b.id, fmt.Errorf("%s: %w", text, err), msg)
}

// exchange is one non-search operation: a single call whose outcome must
// carry the expected status code.
type exchange struct {
	failure string
	expect  int
	call    func(ctx context.Context) (*jira.Outcome, error)
	apply   func(out *jira.Outcome, msg *Message)
}

func (b *base) run(ctx context.Context, msg *Message, ex exchange) {
	b.status(StateRequesting, "Requesting...")

	out, err := ex.call(ctx)
	if err != nil {
		b.fail(msg, ex.failure, err)
		return
	}
	if err := out.Expect(ex.expect); err != nil {
		b.fail(msg, ex.failure, err)
		return
	}

	if ex.apply != nil {
		ex.apply(out, msg)
	}
	b.send(msg)
}

// invalid aborts an input that is missing required data.
func (b *base) invalid(msg *Message, field, reason string) {
	b.fail(msg, "Invalid message received", &jira.InvalidRequestError{
		Field:  field,
		Reason: reason,
	})
}
