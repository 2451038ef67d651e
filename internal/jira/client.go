package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"
)

// DefaultPageSize is the number of issues requested per search page when
// the configuration does not say otherwise.
const DefaultPageSize = 100

// DefaultFields are the issue fields requested by a search when the caller
// supplies none.
var DefaultFields = []string{
	"key",
	"title",
	"summary",
	"labels",
	"status",
	"issuetype",
	"description",
	"reporter",
	"created",
	"environment",
	"priority",
	"comment",
	"project",
}

// defaultExpand is sent with every search so the response carries the
// field schema and display names.
var defaultExpand = []string{"schema", "names"}

// Config holds the endpoint configuration for a single JIRA server.
type Config struct {
	// BaseURL is the REST root, e.g. https://jira.example.com/rest/api/2/.
	BaseURL string

	// Username and Password are sent as HTTP basic auth on every request.
	Username string
	Password string

	// PageSize is the default maxResults for searches. Zero means
	// DefaultPageSize.
	PageSize int

	// HTTPClient is the transport used for requests. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client

	Logger hclog.Logger
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.PageSize, validation.Min(0)),
	)
}

// Client issues requests against a single JIRA REST base URL. Its
// configuration is fixed at construction, so one Client may be shared by
// any number of goroutines.
type Client struct {
	baseURL    *url.URL
	username   string
	password   string
	pageSize   int
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a client for the given endpoint configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating jira config: %w", err)
	}

	raw := cfg.BaseURL
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", cfg.BaseURL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Client{
		baseURL:    base,
		username:   cfg.Username,
		password:   cfg.Password,
		pageSize:   pageSize,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the REST root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PageSize returns the default number of issues requested per search page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Request is one outbound exchange: a method, a path relative to the base
// URL and an optional JSON body.
type Request struct {
	Method string
	Path   string
	Body   any
}

// GetIssue fetches a single issue. JIRA answers 200 on success.
func (c *Client) GetIssue(ctx context.Context, key string) (*Outcome, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Path: issuePath(key)})
}

// CreateIssue creates an issue from the given definition. JIRA answers 201
// with the new issue's key.
func (c *Client) CreateIssue(ctx context.Context, body map[string]any) (*Outcome, error) {
	if err := requireBody(body); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "issue", Body: body})
}

// UpdateIssue edits an existing issue. JIRA answers 204 on success.
func (c *Client) UpdateIssue(ctx context.Context, key string, body map[string]any) (*Outcome, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	if err := requireBody(body); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodPut, Path: issuePath(key), Body: body})
}

// AddComment posts a new comment to an issue.
func (c *Client) AddComment(ctx context.Context, key string, body map[string]any) (*Outcome, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	if err := requireBody(body); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: commentPath(key, ""), Body: body})
}

// EditComment updates a comment on an issue. When the body carries the
// comment's "id" the request targets that comment directly.
func (c *Client) EditComment(ctx context.Context, key string, body map[string]any) (*Outcome, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	if err := requireBody(body); err != nil {
		return nil, err
	}
	id, _ := body["id"].(string)
	return c.Do(ctx, Request{Method: http.MethodPut, Path: commentPath(key, id), Body: body})
}

// Search runs one page of a JQL search. Zero MaxResults means the client's
// page size and empty Fields means DefaultFields.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*Outcome, error) {
	if strings.TrimSpace(req.JQL) == "" {
		return nil, &InvalidRequestError{Field: "jql", Reason: "must not be empty"}
	}
	if req.StartAt < 0 {
		return nil, &InvalidRequestError{Field: "startAt", Reason: "must not be negative"}
	}
	if req.MaxResults <= 0 {
		req.MaxResults = c.pageSize
	}
	if len(req.Fields) == 0 {
		req.Fields = DefaultFields
	}
	if len(req.Expand) == 0 {
		req.Expand = defaultExpand
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "search", Body: req})
}

// Do performs a single exchange and returns its outcome. Any completed
// exchange yields an Outcome whatever its status code; only a failure to
// complete the exchange yields a *TransportError.
func (c *Client) Do(ctx context.Context, r Request) (*Outcome, error) {
	ref, err := url.Parse(r.Path)
	if err != nil {
		return nil, &InvalidRequestError{Field: "path", Reason: err.Error()}
	}
	target := c.baseURL.ResolveReference(ref)

	var bodyReader io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, &InvalidRequestError{
				Field:  "body",
				Reason: fmt.Sprintf("marshaling request body: %v", err),
			}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), bodyReader)
	if err != nil {
		return nil, &TransportError{Method: r.Method, Path: r.Path, Err: err}
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Trace("sending request", "method", r.Method, "url", target.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: r.Method, Path: r.Path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{
			Method: r.Method,
			Path:   r.Path,
			Err:    fmt.Errorf("reading response body: %w", err),
		}
	}

	c.logger.Trace("received response",
		"method", r.Method, "path", r.Path, "status", resp.StatusCode)

	return &Outcome{
		Method:     r.Method,
		Path:       r.Path,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func issuePath(key string) string {
	return "issue/" + url.PathEscape(key)
}

func commentPath(key, id string) string {
	p := issuePath(key) + "/comment"
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return &InvalidRequestError{Field: "issueKey", Reason: "must not be empty"}
	}
	return nil
}

func requireBody(body map[string]any) error {
	if body == nil {
		return &InvalidRequestError{Field: "body", Reason: "must not be empty"}
	}
	return nil
}
