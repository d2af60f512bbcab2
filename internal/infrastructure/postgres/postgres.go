package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"schemamigrator/internal/domain"
	"schemamigrator/internal/infrastructure/sqldb"
)

const columnType = `CASE WHEN c.character_maximum_length IS NOT NULL
	THEN c.data_type || '(' || c.character_maximum_length || ')'
	ELSE c.data_type END`

var (
	tableExistsQuery = `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' AND table_name = $1`

	hasColumnQuery = `SELECT COUNT(*) FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`

	snapshotQuery = `SELECT t.table_name, COALESCE(c.column_name, ''), COALESCE(` + columnType + `, '')
FROM information_schema.tables t
LEFT JOIN information_schema.columns c
	ON c.table_schema = t.table_schema AND c.table_name = t.table_name
WHERE t.table_schema = current_schema() AND t.table_type = 'BASE TABLE'
ORDER BY t.table_name, c.ordinal_position`
)

type SchemaRepository struct {
	db *sql.DB
}

func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

func (repo *SchemaRepository) Begin(ctx context.Context) (domain.SchemaTx, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDriverError(err)
	}
	return &schemaTx{Tx: sqldb.Tx{Tx: tx, WrapErr: wrapDriverError}}, nil
}

func (repo *SchemaRepository) Snapshot(ctx context.Context, tables ...string) (domain.SchemaSnapshot, error) {
	return snapshot(ctx, repo.db, tables)
}

func (repo *SchemaRepository) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

type schemaTx struct {
	sqldb.Tx
}

func (t *schemaTx) TableExists(ctx context.Context, table string) (bool, error) {
	n, err := t.QueryInt(ctx, tableExistsQuery, table)
	return n > 0, err
}

// HasColumn matches exactly: identifiers are always quoted in the DDL we issue.
func (t *schemaTx) HasColumn(ctx context.Context, table, column string) (bool, error) {
	n, err := t.QueryInt(ctx, hasColumnQuery, table, column)
	return n > 0, err
}

func snapshot(ctx context.Context, q sqldb.Querier, tables []string) (domain.SchemaSnapshot, error) {
	rows, err := q.QueryContext(ctx, snapshotQuery)
	if err != nil {
		return domain.NewSchemaSnapshot(), errors.Wrap(wrapDriverError(err), "read information_schema")
	}
	return sqldb.ScanColumns(rows, tables)
}
