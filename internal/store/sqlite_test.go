package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jira-flow-nodes/internal/model"
	"github.com/nhle/jira-flow-nodes/internal/store"
	"github.com/nhle/jira-flow-nodes/tests/testutil"
)

func TestRecordAndGetInvocation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.RecordInvocation(ctx, model.Invocation{
		NodeID:     "get-issue",
		NodeType:   "jira-issue-get",
		MessageID:  "m1",
		IssueKey:   "ABC-1",
		Outcome:    model.OutcomeError,
		StatusCode: 404,
		Error:      "Get failed: unexpected status 404",
		DurationMs: 12,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	inv, err := s.GetInvocationByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "get-issue", inv.NodeID)
	assert.Equal(t, "ABC-1", inv.IssueKey)
	assert.Equal(t, 404, inv.StatusCode)
	assert.Equal(t, int64(12), inv.DurationMs)
	assert.False(t, inv.CreatedAt.IsZero())

	_, err = s.GetInvocationByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetInvocations_Filter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, inv := range []model.Invocation{
		{NodeID: "a", NodeType: "jira-search", Outcome: model.OutcomeSent, Forwarded: 1},
		{NodeID: "a", NodeType: "jira-search", Outcome: model.OutcomeError},
		{NodeID: "b", NodeType: "jira-issue-get", Outcome: model.OutcomeSent, IssueKey: "ABC-1"},
	} {
		inv.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := s.RecordInvocation(ctx, inv)
		require.NoError(t, err)
	}

	all, err := s.GetInvocations(ctx, store.InvocationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].NodeID, "newest first")

	nodeA := "a"
	byNode, err := s.GetInvocations(ctx, store.InvocationFilter{NodeID: &nodeA})
	require.NoError(t, err)
	assert.Len(t, byNode, 2)

	errOutcome := model.OutcomeError
	count, err := s.CountInvocations(ctx, store.InvocationFilter{Outcome: &errOutcome})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	limited, err := s.GetInvocations(ctx, store.InvocationFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, model.OutcomeError, limited[0].Outcome)

	since := base.Add(90 * time.Second)
	recent, err := s.GetInvocations(ctx, store.InvocationFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestPruneInvocations(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.RecordInvocation(ctx, model.Invocation{
		NodeID: "a", NodeType: "jira-search", Outcome: model.OutcomeSent,
		CreatedAt: now.Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	_, err = s.RecordInvocation(ctx, model.Invocation{
		NodeID: "a", NodeType: "jira-search", Outcome: model.OutcomeSent,
		CreatedAt: now,
	})
	require.NoError(t, err)

	n, err := s.PruneInvocations(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := s.CountInvocations(ctx, store.InvocationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := t.TempDir() + "/history.db"

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = s.RecordInvocation(context.Background(), model.Invocation{
		NodeID: "a", NodeType: "jira-search", Outcome: model.OutcomeSent,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	count, err := s.CountInvocations(context.Background(), store.InvocationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
