package store

import (
	"context"
	"time"

	"github.com/nhle/jira-flow-nodes/internal/model"
)

// InvocationFilter controls filtering and pagination for invocation
// queries. Results are ordered newest first.
type InvocationFilter struct {
	NodeID   *string
	Outcome  *string
	IssueKey *string
	Since    *time.Time
	Limit    int
	Offset   int
}

// Store defines the persistence interface for the invocation history.
type Store interface {
	RecordInvocation(ctx context.Context, inv model.Invocation) (string, error)
	GetInvocations(ctx context.Context, filter InvocationFilter) ([]model.Invocation, error)
	GetInvocationByID(ctx context.Context, id string) (*model.Invocation, error)
	CountInvocations(ctx context.Context, filter InvocationFilter) (int, error)
	PruneInvocations(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
