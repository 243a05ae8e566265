package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func dialectFor(dsn string) dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return dialectPostgres
	}
	return dialectSQLite
}

// rebind rewrites ? placeholders to $n for Postgres.
func (d dialect) rebind(q string) string {
	if d != dialectPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// SQLStore implements ItemStore, TaskStore and EventLog on database/sql.
// SQLite (modernc.org/sqlite) is the default; a postgres:// URL selects pgx.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

var (
	_ ItemStore = (*SQLStore)(nil)
	_ TaskStore = (*SQLStore)(nil)
	_ EventLog  = (*SQLStore)(nil)
)

// Open connects to dsn (a SQLite file path or a postgres:// URL) and applies the schema.
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("open store: empty dsn")
	}
	d := dialectFor(dsn)

	var db *sql.DB
	var err error
	switch d {
	case dialectPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(20)
	default:
		if dir := filepath.Dir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		// Pragmas go in the DSN so every pooled connection gets them.
		// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness.
		db, err = sql.Open("sqlite", "file:"+dsn+
			"?_pragma=journal_mode(WAL)"+
			"&_pragma=synchronous(NORMAL)"+
			"&_pragma=foreign_keys(1)"+
			"&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		// SQLite has a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &SQLStore{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", d, err)
	}
	return s, nil
}

// OpenDir opens the SQLite database inside a workspace dir.
func OpenDir(ctx context.Context, dir string) (*SQLStore, error) {
	return Open(ctx, SQLitePath(dir))
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) Dialect() string { return s.dialect.String() }

func (s *SQLStore) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(q), args...)
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(q), args...)
}

func (s *SQLStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at_unixms BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS checklist_items (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			parent_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			is_completed INTEGER NOT NULL,
			created_at_unixms BIGINT NOT NULL,
			updated_at_unixms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checklist_items_task ON checklist_items(task_id, parent_id)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			seq BIGINT NOT NULL,
			task_id TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			issued_at_unixms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_task ON events(task_id, seq)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_seq ON events(seq)`,
	}
	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fromUnixMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
