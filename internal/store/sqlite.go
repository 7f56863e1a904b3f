// Package store provides SQLite-backed persistence for the intake engine.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hireflow/intake-engine/internal/domain"
)

// schemaV1 defines the initial database schema. Timestamps are unix
// milliseconds; nullable columns map to nullable domain fields.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS fact_definitions (
	id                TEXT PRIMARY KEY,
	schema_version_id TEXT NOT NULL,
	job_form_field_id TEXT NOT NULL,
	fact              TEXT NOT NULL,
	done_criteria     TEXT NOT NULL DEFAULT '',
	required          INTEGER NOT NULL DEFAULT 0,
	sort_order        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_fact_defs_schema ON fact_definitions(schema_version_id, sort_order);

CREATE TABLE IF NOT EXISTS applications (
	id                     TEXT PRIMARY KEY,
	job_id                 TEXT NOT NULL,
	schema_version_id      TEXT NOT NULL,
	applicant_name         TEXT,
	applicant_email        TEXT,
	applicant_phone        TEXT,
	status                 TEXT NOT NULL DEFAULT 'new',
	extraction_reviewed_at INTEGER,
	consent_checked_at     INTEGER,
	submitted_at           INTEGER,
	version                INTEGER NOT NULL DEFAULT 1,
	created_at             INTEGER NOT NULL,
	updated_at             INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id);

CREATE TABLE IF NOT EXISTS application_todos (
	id                 TEXT PRIMARY KEY,
	application_id     TEXT NOT NULL REFERENCES applications(id),
	fact_definition_id TEXT NOT NULL,
	job_form_field_id  TEXT NOT NULL,
	fact               TEXT NOT NULL,
	done_criteria      TEXT NOT NULL DEFAULT '',
	required           INTEGER NOT NULL DEFAULT 0,
	status             TEXT NOT NULL DEFAULT 'pending',
	extracted_value    TEXT,
	sort_order         INTEGER NOT NULL DEFAULT 0,
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_todos_application ON application_todos(application_id, sort_order);

CREATE TABLE IF NOT EXISTS extracted_fields (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL REFERENCES applications(id),
	todo_id        TEXT NOT NULL UNIQUE REFERENCES application_todos(id),
	form_field_id  TEXT NOT NULL,
	value          TEXT NOT NULL,
	source         TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fields_application ON extracted_fields(application_id);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id                     TEXT PRIMARY KEY,
	type                   TEXT NOT NULL,
	application_id         TEXT,
	form_id                TEXT,
	status                 TEXT NOT NULL DEFAULT 'active',
	turn_count             INTEGER NOT NULL DEFAULT 0,
	soft_cap               INTEGER,
	hard_cap               INTEGER,
	soft_capped_at         INTEGER,
	hard_capped_at         INTEGER,
	review_fail_streak     INTEGER NOT NULL DEFAULT 0,
	extraction_fail_streak INTEGER NOT NULL DEFAULT 0,
	timeout_streak         INTEGER NOT NULL DEFAULT 0,
	current_agent          TEXT NOT NULL,
	plan                   TEXT,
	plan_schema_version    INTEGER,
	version                INTEGER NOT NULL DEFAULT 1,
	created_at             INTEGER NOT NULL,
	updated_at             INTEGER NOT NULL,
	completed_at           INTEGER
);
CREATE INDEX IF NOT EXISTS idx_sessions_application ON chat_sessions(application_id);

CREATE TABLE IF NOT EXISTS consent_logs (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL,
	consent_text   TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_consent_application ON consent_logs(application_id);

CREATE TABLE IF NOT EXISTS chat_messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	chat_session_id TEXT NOT NULL,
	role            TEXT NOT NULL,
	agent           TEXT NOT NULL DEFAULT '',
	content         TEXT NOT NULL,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(chat_session_id, seq);

CREATE TABLE IF NOT EXISTS tool_call_logs (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	chat_session_id TEXT NOT NULL,
	todo_id         TEXT,
	tool_name       TEXT NOT NULL,
	input           TEXT NOT NULL DEFAULT '',
	output          TEXT NOT NULL DEFAULT '',
	succeeded       INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_call_logs(chat_session_id, seq);
`

// NewDB opens a SQLite database at the given path with recommended pragmas
// and runs the V1 schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreInit, fmt.Errorf("open database: %w", err))
	}

	// Limit connections to 1 for SQLite (WAL allows concurrent reads but single writer).
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, domain.WrapError(domain.ErrStoreInit, fmt.Errorf("migrate schema: %w", err))
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schemaV1)
	return err
}

// Queryer is satisfied by both *sql.DB and *sql.Tx. Repositories built on a
// *sql.Tx take part in that transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// withTx runs fn inside a transaction, committing when fn returns nil. When q
// is already a transaction fn joins it and the caller owns the commit.
func withTx(ctx context.Context, q Queryer, fn func(tx Queryer) error) error {
	db, ok := q.(*sql.DB)
	if !ok {
		return fn(q)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
