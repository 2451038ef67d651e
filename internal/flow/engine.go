package flow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/nhle/jira-flow-nodes/internal/credential"
	"github.com/nhle/jira-flow-nodes/internal/jira"
	"github.com/nhle/jira-flow-nodes/internal/model"
	"github.com/nhle/jira-flow-nodes/internal/node"
	"github.com/nhle/jira-flow-nodes/internal/store"
)

// SecretFunc returns the secret for a configured server.
type SecretFunc func(serverID string) (string, error)

// Options configures an Engine.
type Options struct {
	Registry   *node.Registry
	Store      store.Store
	Secrets    SecretFunc
	HTTPClient *http.Client
	Listener   node.StatusListener
	Logger     hclog.Logger
}

// Result is what a node reported for one input message: either the
// forwarded messages or an error signal.
type Result struct {
	Sent    []*node.Message
	Err     error
	Message *node.Message
}

// Engine hosts the configured nodes. It owns one JIRA client per server,
// shared by every node that references it.
type Engine struct {
	registry *node.Registry
	store    store.Store
	listener node.StatusListener
	logger   hclog.Logger

	clients map[string]*jira.Client
	nodes   map[string]model.NodeConfig
}

// New builds clients for every configured server and checks that every
// configured node can be constructed.
func New(cfg *model.AppConfig, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if opts.Registry == nil {
		opts.Registry = node.DefaultRegistry()
	}
	if opts.Secrets == nil {
		opts.Secrets = credential.ServerSecret
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	e := &Engine{
		registry: opts.Registry,
		store:    opts.Store,
		listener: opts.Listener,
		logger:   opts.Logger,
		clients:  make(map[string]*jira.Client, len(cfg.Servers)),
		nodes:    make(map[string]model.NodeConfig, len(cfg.Nodes)),
	}

	for _, s := range cfg.Servers {
		secret, err := opts.Secrets(s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading secret for server %s: %w", s.ID, err)
		}
		client, err := jira.NewClient(jira.Config{
			BaseURL:    s.BaseURL,
			Username:   s.Username,
			Password:   secret,
			PageSize:   s.PageSize,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger.Named("jira").With("server", s.ID),
		})
		if err != nil {
			return nil, fmt.Errorf("creating client for server %s: %w", s.ID, err)
		}
		e.clients[s.ID] = client
	}

	for _, n := range cfg.Nodes {
		if _, err := e.build(n, &collector{}); err != nil {
			return nil, err
		}
		e.nodes[n.ID] = n
	}

	return e, nil
}

// NodeIDs returns the configured node IDs, sorted.
func (e *Engine) NodeIDs() []string {
	ids := make([]string, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) build(cfg model.NodeConfig, host node.Host) (node.Node, error) {
	client, ok := e.clients[cfg.Server]
	if !ok {
		return nil, fmt.Errorf("node %s: unknown server %q", cfg.ID, cfg.Server)
	}
	return e.registry.Build(node.Config{
		ID:       cfg.ID,
		Type:     cfg.Type,
		Name:     cfg.Name,
		Server:   cfg.Server,
		JQL:      cfg.JQL,
		Fields:   cfg.Fields,
		PageSize: cfg.PageSize,
		Split:    cfg.Split,
	}, node.Deps{
		Client: client,
		Host:   host,
		Logger: e.logger.Named("node"),
	})
}

// ErrUnknownNode is returned by Process for an unconfigured node ID.
var ErrUnknownNode = errors.New("unknown node")

// Process feeds msg to the node nodeID and returns what it reported. The
// returned error is non-nil only when the node could not be run at all;
// an error signal raised by the node is carried in Result.Err.
func (e *Engine) Process(ctx context.Context, nodeID string, msg *node.Message) (*Result, error) {
	cfg, ok := e.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}

	c := &collector{listener: e.listener}
	n, err := e.build(cfg, c)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	n.Input(ctx, msg)
	res := c.result()

	e.record(ctx, cfg, msg, res, time.Since(start))

	return res, nil
}

// record stores the invocation in the history, if one is configured.
// History failures are logged and never affect the result.
func (e *Engine) record(
	ctx context.Context,
	cfg model.NodeConfig,
	msg *node.Message,
	res *Result,
	elapsed time.Duration,
) {
	if e.store == nil {
		return
	}

	inv := model.Invocation{
		NodeID:     cfg.ID,
		NodeType:   cfg.Type,
		MessageID:  msg.ID,
		IssueKey:   msg.Topic,
		Outcome:    model.OutcomeSent,
		Forwarded:  len(res.Sent),
		DurationMs: elapsed.Milliseconds(),
	}
	if res.Err != nil {
		inv.Outcome = model.OutcomeError
		inv.Error = res.Err.Error()
		if code, ok := jira.StatusCode(res.Err); ok {
			inv.StatusCode = code
		}
	}

	if _, err := e.store.RecordInvocation(context.WithoutCancel(ctx), inv); err != nil {
		e.logger.Warn("recording invocation failed", "node", cfg.ID, "error", err)
	}
}

// collector is the node.Host for a single Process call.
type collector struct {
	listener node.StatusListener

	mu     sync.Mutex
	sent   []*node.Message
	err    error
	errMsg *node.Message
}

func (c *collector) Send(_ string, msg *node.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
}

func (c *collector) Error(_ string, err error, msg *node.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	c.errMsg = msg
}

func (c *collector) NodeStatus(nodeID string, st node.Status) {
	if c.listener != nil {
		c.listener.NodeStatus(nodeID, st)
	}
}

func (c *collector) result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Result{Sent: c.sent, Err: c.err, Message: c.errMsg}
}
