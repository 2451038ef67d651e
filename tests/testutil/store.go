package testutil

import (
	"testing"

	"github.com/nhle/jira-flow-nodes/internal/store"
)

// NewTestStore returns an in-memory history store with all migrations
// applied, closed when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
