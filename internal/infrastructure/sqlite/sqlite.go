package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"schemamigrator/internal/domain"
	"schemamigrator/internal/infrastructure/sqldb"
)

const (
	tableExistsQuery = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`
	hasColumnQuery   = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ? COLLATE NOCASE`
	snapshotQuery    = `SELECT m.name, COALESCE(p.name, ''), COALESCE(p.type, '')
FROM sqlite_master m
JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
ORDER BY m.name, p.cid`
)

// Open creates the parent directory if needed and opens the database file.
// The pool is limited to one connection so a batch never waits on a lock
// held by another connection of the same process.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, &domain.ConnectionError{Err: errors.New("sqlite: empty path")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.ConnectionError{Err: errors.Wrap(err, "ensure data dir")}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.ConnectionError{Err: errors.Wrap(err, "open sqlite")}
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.ConnectionError{Err: errors.Wrap(err, "ping sqlite")}
	}
	return db, nil
}

type SchemaRepository struct {
	db *sql.DB
}

func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

func (repo *SchemaRepository) Begin(ctx context.Context) (domain.SchemaTx, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &schemaTx{Tx: sqldb.Tx{Tx: tx}}, nil
}

func (repo *SchemaRepository) Snapshot(ctx context.Context, tables ...string) (domain.SchemaSnapshot, error) {
	return snapshot(ctx, repo.db, tables)
}

func (repo *SchemaRepository) Placeholder(int) string {
	return "?"
}

type schemaTx struct {
	sqldb.Tx
}

func (t *schemaTx) TableExists(ctx context.Context, table string) (bool, error) {
	n, err := t.QueryInt(ctx, tableExistsQuery, table)
	return n > 0, err
}

// HasColumn matches case-insensitively, as SQLite does for identifiers.
func (t *schemaTx) HasColumn(ctx context.Context, table, column string) (bool, error) {
	n, err := t.QueryInt(ctx, hasColumnQuery, table, column)
	return n > 0, err
}

func snapshot(ctx context.Context, q sqldb.Querier, tables []string) (domain.SchemaSnapshot, error) {
	rows, err := q.QueryContext(ctx, snapshotQuery)
	if err != nil {
		return domain.NewSchemaSnapshot(), errors.Wrap(err, "read sqlite_master")
	}
	return sqldb.ScanColumns(rows, tables)
}
