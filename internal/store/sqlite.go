package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/jira-flow-nodes/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	inMemory := dbPath == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordInvocation inserts an invocation record and returns its ID.
// If the record has no ID, a new UUID is generated.
func (s *SQLiteStore) RecordInvocation(
	ctx context.Context,
	inv model.Invocation,
) (string, error) {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations (
			id, node_id, node_type, message_id, issue_key,
			outcome, status_code, error, forwarded,
			duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.NodeID, inv.NodeType, inv.MessageID, inv.IssueKey,
		inv.Outcome, inv.StatusCode, inv.Error, inv.Forwarded,
		inv.DurationMs, inv.CreatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("recording invocation %s: %w", inv.ID, err)
	}

	return inv.ID, nil
}

// whereClause builds the WHERE clause and arguments for filter.
func whereClause(filter InvocationFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.NodeID != nil {
		conditions = append(conditions, "node_id = ?")
		args = append(args, *filter.NodeID)
	}
	if filter.Outcome != nil {
		conditions = append(conditions, "outcome = ?")
		args = append(args, *filter.Outcome)
	}
	if filter.IssueKey != nil {
		conditions = append(conditions, "issue_key = ?")
		args = append(args, *filter.IssueKey)
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// GetInvocations retrieves invocations matching the filter, newest first.
func (s *SQLiteStore) GetInvocations(
	ctx context.Context,
	filter InvocationFilter,
) ([]model.Invocation, error) {
	where, args := whereClause(filter)

	query := `SELECT id, node_id, node_type, message_id, issue_key,
		outcome, status_code, error, forwarded, duration_ms, created_at
		FROM invocations` + where + " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var invocations []model.Invocation
	if err := s.db.SelectContext(ctx, &invocations, query, args...); err != nil {
		return nil, fmt.Errorf("querying invocations: %w", err)
	}

	return invocations, nil
}

// CountInvocations returns the number of invocations matching the filter.
// Limit and Offset are ignored.
func (s *SQLiteStore) CountInvocations(
	ctx context.Context,
	filter InvocationFilter,
) (int, error) {
	where, args := whereClause(filter)

	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM invocations"+where, args...); err != nil {
		return 0, fmt.Errorf("counting invocations: %w", err)
	}
	return count, nil
}

// GetInvocationByID retrieves a single invocation by its ID.
func (s *SQLiteStore) GetInvocationByID(
	ctx context.Context,
	id string,
) (*model.Invocation, error) {
	var inv model.Invocation
	err := s.db.GetContext(ctx, &inv, `
		SELECT id, node_id, node_type, message_id, issue_key,
			outcome, status_code, error, forwarded, duration_ms, created_at
		FROM invocations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting invocation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting invocation %s: %w", id, err)
	}

	return &inv, nil
}

// PruneInvocations deletes invocations created before the given time and
// returns how many were removed.
func (s *SQLiteStore) PruneInvocations(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM invocations WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning invocations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned invocations: %w", err)
	}
	return n, nil
}
