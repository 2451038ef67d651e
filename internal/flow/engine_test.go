package flow_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jira-flow-nodes/internal/flow"
	"github.com/nhle/jira-flow-nodes/internal/model"
	"github.com/nhle/jira-flow-nodes/internal/node"
	"github.com/nhle/jira-flow-nodes/internal/store"
	"github.com/nhle/jira-flow-nodes/tests/testutil"
)

func testConfig(baseURL string) *model.AppConfig {
	return &model.AppConfig{
		Servers: []model.ServerConfig{
			{ID: "prod", BaseURL: baseURL, Username: "bot", PageSize: 100},
		},
		Nodes: []model.NodeConfig{
			{ID: "get", Type: node.TypeIssueGet, Server: "prod"},
			{ID: "search", Type: node.TypeSearch, Server: "prod", JQL: "project=ABC"},
		},
	}
}

func staticSecret(string) (string, error) { return "s3cret", nil }

func TestEngine_ProcessRecordsHistory(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusOK, `{"key":"ABC-1"}`))
	st := testutil.NewTestStore(t)
	host := &testutil.RecordingHost{}

	e, err := flow.New(testConfig(srv.BaseURL()), flow.Options{
		Store:    st,
		Secrets:  staticSecret,
		Listener: host,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"get", "search"}, e.NodeIDs())

	res, err := e.Process(context.Background(), "get", node.NewMessage("ABC-1", nil))
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.Len(t, res.Sent, 1)
	assert.Equal(t, "ABC-1", res.Sent[0].Topic)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "s3cret", reqs[0].Password)

	invs, err := st.GetInvocations(context.Background(), store.InvocationFilter{})
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, model.OutcomeSent, invs[0].Outcome)
	assert.Equal(t, "ABC-1", invs[0].IssueKey)
	assert.Equal(t, 1, invs[0].Forwarded)

	assert.Equal(t, []node.State{node.StateRequesting, node.StateIdle}, host.States())
}

func TestEngine_ProcessErrorSignal(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusNotFound, `{"errorMessages":["gone"]}`))
	st := testutil.NewTestStore(t)

	e, err := flow.New(testConfig(srv.BaseURL()), flow.Options{Store: st, Secrets: staticSecret})
	require.NoError(t, err)

	res, err := e.Process(context.Background(), "get", node.NewMessage("ABC-1", nil))
	require.NoError(t, err)
	require.Error(t, res.Err)
	assert.Empty(t, res.Sent)
	assert.Equal(t, http.StatusNotFound, res.Message.StatusCode)

	invs, err := st.GetInvocations(context.Background(), store.InvocationFilter{})
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, model.OutcomeError, invs[0].Outcome)
	assert.Equal(t, http.StatusNotFound, invs[0].StatusCode)
}

func TestEngine_UnknownNode(t *testing.T) {
	srv := testutil.NewFakeJira(t, testutil.Respond(http.StatusOK, `{}`))
	e, err := flow.New(testConfig(srv.BaseURL()), flow.Options{Secrets: staticSecret})
	require.NoError(t, err)

	_, err = e.Process(context.Background(), "nope", node.NewMessage("", nil))
	assert.ErrorIs(t, err, flow.ErrUnknownNode)
}

func TestEngine_ConfigErrors(t *testing.T) {
	cfg := testConfig("https://jira.example.com/rest/api/2/")
	cfg.Nodes = append(cfg.Nodes, model.NodeConfig{ID: "bad", Type: "jira-unknown", Server: "prod"})
	_, err := flow.New(cfg, flow.Options{Secrets: staticSecret})
	assert.Error(t, err)

	cfg = testConfig("https://jira.example.com/rest/api/2/")
	cfg.Nodes[0].Server = "staging"
	_, err = flow.New(cfg, flow.Options{Secrets: staticSecret})
	assert.Error(t, err)

	_, err = flow.New(testConfig("https://jira.example.com/rest/api/2/"), flow.Options{
		Secrets: func(string) (string, error) { return "", errors.New("no secret") },
	})
	assert.Error(t, err)
}
