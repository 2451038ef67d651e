package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS invocations (
	id          TEXT PRIMARY KEY,
	node_id     TEXT NOT NULL,
	node_type   TEXT NOT NULL,
	message_id  TEXT NOT NULL DEFAULT '',
	issue_key   TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invocations_node_id ON invocations(node_id);
CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE invocations ADD COLUMN forwarded INTEGER NOT NULL DEFAULT 0;
CREATE INDEX IF NOT EXISTS idx_invocations_issue_key ON invocations(issue_key);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
