package node_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jira-flow-nodes/internal/jira"
	"github.com/nhle/jira-flow-nodes/internal/node"
	"github.com/nhle/jira-flow-nodes/tests/testutil"
)

func build(t *testing.T, typ string, srv *testutil.FakeJira, cfg node.Config) (node.Node, *testutil.RecordingHost) {
	t.Helper()

	client, err := jira.NewClient(jira.Config{
		BaseURL:  srv.BaseURL(),
		Username: "bot",
		Password: "s3cret",
	})
	require.NoError(t, err)

	host := &testutil.RecordingHost{}
	cfg.ID = "n1"
	cfg.Type = typ
	n, err := node.DefaultRegistry().Build(cfg, node.Deps{Client: client, Host: host})
	require.NoError(t, err)
	return n, host
}

// requireOneSignal asserts the exactly-one-of {send, error} property.
func requireOneSignal(t *testing.T, host *testutil.RecordingHost, wantSent bool) {
	t.Helper()

	sent, errs := len(host.Sent()), len(host.Errors())
	require.Equal(t, 1, sent+errs, "sent=%d errors=%d", sent, errs)
	require.Equal(t, wantSent, sent == 1)
}

func TestIssueGet_Success(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusOK,
		`{"key":"ABC-1","fields":{"summary":"hello"}}`))
	n, host := build(t, node.TypeIssueGet, srv, node.Config{})

	n.Input(context.Background(), node.NewMessage("ABC-1", nil))

	requireOneSignal(t, host, true)
	msg := host.Sent()[0].Msg
	assert.Equal(t, "ABC-1", msg.Topic)
	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ABC-1", payload["key"])
	assert.Equal(t, []node.State{node.StateRequesting, node.StateIdle}, host.States())
}

func TestIssueGet_NotFound(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusNotFound,
		`{"errorMessages":["Issue Does Not Exist"],"errors":{}}`))
	n, host := build(t, node.TypeIssueGet, srv, node.Config{})

	n.Input(context.Background(), node.NewMessage("ABC-1", nil))

	requireOneSignal(t, host, false)
	raised := host.Errors()[0]
	assert.Equal(t, http.StatusNotFound, raised.Msg.StatusCode)
	assert.NotNil(t, raised.Msg.Payload)
	code, ok := jira.StatusCode(raised.Err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, node.StateError, host.States()[len(host.States())-1])
}

func TestIssueGet_MissingKeyAborts(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusOK, `{}`))
	n, host := build(t, node.TypeIssueGet, srv, node.Config{})

	n.Input(context.Background(), node.NewMessage("", nil))

	requireOneSignal(t, host, false)
	assert.True(t, jira.IsInvalidRequest(host.Errors()[0].Err))
	assert.Empty(t, srv.Requests(), "no request is sent for invalid input")
}

func TestIssueCreate_SetsTopicFromKey(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusCreated,
		`{"id":"10000","key":"ABC-1","self":"x"}`))
	n, host := build(t, node.TypeIssueCreate, srv, node.Config{})

	payload := map[string]any{"fields": map[string]any{"summary": "new"}}
	n.Input(context.Background(), node.NewMessage("", payload))

	requireOneSignal(t, host, true)
	assert.Equal(t, "ABC-1", host.Sent()[0].Msg.Topic)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"fields":{"summary":"new"}}`, string(reqs[0].Body))
}

func TestIssueCreate_AcceptsJSONTextPayload(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusCreated, `{"key":"ABC-2"}`))
	n, host := build(t, node.TypeIssueCreate, srv, node.Config{})

	n.Input(context.Background(), node.NewMessage("", `{"fields":{"summary":"new"}}`))

	requireOneSignal(t, host, true)
	assert.Equal(t, "ABC-2", host.Sent()[0].Msg.Topic)
}

func TestIssueCreate_MissingPayload(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusCreated, `{}`))
	n, host := build(t, node.TypeIssueCreate, srv, node.Config{})

	n.Input(context.Background(), node.NewMessage("", nil))

	requireOneSignal(t, host, false)
	assert.Empty(t, srv.Requests())
}

func TestIssueUpdate_StatusGating(t *testing.T) {
	tests := []struct {
		status int
		sent   bool
	}{
		{http.StatusNoContent, true},
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			body := ""
			if tt.status != http.StatusNoContent {
				body = `{"errorMessages":["nope"]}`
			}
			srv := testutil.NewFakeJira(t, testutil.Respond(tt.status, body))
			n, host := build(t, node.TypeIssueUpdate, srv, node.Config{})

			msg := node.NewMessage("ABC-1", map[string]any{
				"update": map[string]any{"labels": []any{map[string]any{"add": "x"}}},
			})
			n.Input(context.Background(), msg)

			requireOneSignal(t, host, tt.sent)
			if !tt.sent {
				assert.Equal(t, tt.status, host.Errors()[0].Msg.StatusCode)
			} else {
				assert.Same(t, msg, host.Sent()[0].Msg)
				assert.Equal(t, "ABC-1", msg.Topic)
			}
		})
	}
}

func TestIssueUpdate_InvalidInput(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusNoContent, ""))

	for name, msg := range map[string]*node.Message{
		"missing key":     node.NewMessage("", map[string]any{"fields": map[string]any{}}),
		"missing payload": node.NewMessage("ABC-1", nil),
		"bad payload":     node.NewMessage("ABC-1", "not json"),
	} {
		t.Run(name, func(t *testing.T) {
			n, host := build(t, node.TypeIssueUpdate, srv, node.Config{})
			n.Input(context.Background(), msg)

			requireOneSignal(t, host, false)
			assert.True(t, jira.IsInvalidRequest(host.Errors()[0].Err))
			assert.NotEmpty(t, host.Errors()[0].Msg.Errors)
		})
	}
	assert.Empty(t, srv.Requests())
}

func TestTransportFailureIsErrorSignal(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusOK, `{}`))
	n, host := build(t, node.TypeIssueGet, srv, node.Config{})
	srv.Close()

	n.Input(context.Background(), node.NewMessage("ABC-1", nil))

	requireOneSignal(t, host, false)
	raised := host.Errors()[0]
	assert.True(t, jira.IsTransportError(raised.Err))
	assert.Zero(t, raised.Msg.StatusCode)
	assert.NotEmpty(t, raised.Msg.Errors)
}

func TestComment_AddAndEdit(t *testing.T) {
	for _, typ := range []string{node.TypeCommentAdd, node.TypeCommentUpdate} {
		t.Run(typ, func(t *testing.T) {
			srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusCreated,
				`{"id":"10","body":"hello"}`))
			n, host := build(t, typ, srv, node.Config{})

			n.Input(context.Background(), node.NewMessage("ABC-1", map[string]any{"body": "hello"}))

			requireOneSignal(t, host, true)
			payload, ok := host.Sent()[0].Msg.Payload.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "10", payload["id"])

			reqs := srv.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "/rest/api/2/issue/ABC-1/comment", reqs[0].Path)
			if typ == node.TypeCommentAdd {
				assert.Equal(t, http.MethodPost, reqs[0].Method)
			} else {
				assert.Equal(t, http.MethodPut, reqs[0].Method)
			}
		})
	}
}

func TestComment_EditRejectsOtherStatus(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusOK, `{"id":"10"}`))
	n, host := build(t, node.TypeCommentUpdate, srv, node.Config{})

	n.Input(context.Background(), node.NewMessage("ABC-1", map[string]any{"body": "x"}))

	requireOneSignal(t, host, false)
	assert.Equal(t, http.StatusOK, host.Errors()[0].Msg.StatusCode)
}
