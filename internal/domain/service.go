package domain

import "context"

type MigrationRunner interface {
	Run(ctx context.Context, batch Batch) (Report, error)
	Inspect(ctx context.Context, tables ...string) (SchemaSnapshot, error)
}
