package app

import (
	"context"
	"fmt"

	"schemamigrator/internal/domain"
)

type fakeRepo struct {
	tx       *fakeTx
	beginErr error
	begins   int
	dollar   bool
}

func (r *fakeRepo) Begin(context.Context) (domain.SchemaTx, error) {
	r.begins++
	if r.beginErr != nil {
		return nil, r.beginErr
	}
	return r.tx, nil
}

func (r *fakeRepo) Snapshot(context.Context, ...string) (domain.SchemaSnapshot, error) {
	snap := domain.NewSchemaSnapshot()
	for table, cols := range r.tx.columns {
		snap.Tables[table] = cols
	}
	return snap, nil
}

func (r *fakeRepo) Placeholder(n int) string {
	if r.dollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

type fakeTx struct {
	columns    map[string][]domain.Column
	columnsErr error
	commitErr  error
	execRows   int64
	execs      []string
	args       [][]interface{}
	committed  bool
	rolledBack bool
}

func newFakeTx() *fakeTx {
	return &fakeTx{columns: map[string][]domain.Column{}}
}

func (t *fakeTx) TableExists(_ context.Context, table string) (bool, error) {
	_, ok := t.columns[table]
	return ok, nil
}

func (t *fakeTx) HasColumn(_ context.Context, table, column string) (bool, error) {
	if t.columnsErr != nil {
		return false, t.columnsErr
	}
	for _, c := range t.columns[table] {
		if c.Name == column {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) Exec(_ context.Context, query string, args ...interface{}) (int64, error) {
	t.execs = append(t.execs, query)
	t.args = append(t.args, args)
	return t.execRows, nil
}

func (t *fakeTx) QueryInt(context.Context, string, ...interface{}) (int64, error) {
	return 0, nil
}

func (t *fakeTx) Commit() error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}
