package domain

import "context"

type SchemaRepository interface {
	// Begin opens the transaction that spans a whole batch.
	Begin(ctx context.Context) (SchemaTx, error)
	// Snapshot reads the current schema outside of any batch.
	Snapshot(ctx context.Context, tables ...string) (SchemaSnapshot, error)
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
}

type SchemaTx interface {
	// TableExists and HasColumn compare names the way the engine resolves
	// them in DDL.
	TableExists(ctx context.Context, table string) (bool, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
	QueryInt(ctx context.Context, query string, args ...interface{}) (int64, error)
	Commit() error
	Rollback() error
}
