// Package sqldb holds the database/sql plumbing shared by the engine backends.
package sqldb

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"schemamigrator/internal/domain"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx implements the engine-neutral half of domain.SchemaTx.
type Tx struct {
	Tx *sql.Tx
	// WrapErr annotates driver errors, may be nil.
	WrapErr func(error) error
}

func (t *Tx) wrap(err error) error {
	if err == nil || t.WrapErr == nil {
		return err
	}
	return t.WrapErr(err)
}

func (t *Tx) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := t.Tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, t.wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

func (t *Tx) QueryInt(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := t.Tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, t.wrap(err)
	}
	return n, nil
}

func (t *Tx) Commit() error {
	return t.wrap(t.Tx.Commit())
}

func (t *Tx) Rollback() error {
	err := t.Tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return t.wrap(err)
}

// ScanColumns reads rows of (table, column, type). An empty column name
// records a table without columns.
func ScanColumns(rows *sql.Rows, tables []string) (domain.SchemaSnapshot, error) {
	defer rows.Close()
	want := map[string]bool{}
	for _, t := range tables {
		want[t] = true
	}
	snap := domain.NewSchemaSnapshot()
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.Table, &c.Name, &c.Type); err != nil {
			return snap, errors.Wrap(err, "scan column")
		}
		if len(want) > 0 && !want[c.Table] {
			continue
		}
		cols := snap.Tables[c.Table]
		if c.Name != "" {
			cols = append(cols, c)
		}
		snap.Tables[c.Table] = cols
	}
	return snap, errors.Wrap(rows.Err(), "iterate columns")
}
