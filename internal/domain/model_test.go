package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepKind(t *testing.T) {
	for in, want := range map[string]StepKind{
		"AddColumn":      AddColumn,
		"add_column":     AddColumn,
		"DROP_COLUMN":    DropColumn,
		" renamecolumn ": RenameColumn,
		"create_table":   CreateTable,
		"RenameTable":    RenameTable,
		"backfill_value": BackfillValue,
		"seed_row":       SeedRow,
	} {
		got, err := ParseStepKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStepKind("truncate")
	require.Error(t, err)
	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack)
}

func TestReportHelpers(t *testing.T) {
	r := Report{Entries: []ReportEntry{
		{Outcome: Applied}, {Outcome: Skipped}, {Outcome: Skipped}, {Outcome: Pending},
	}}
	assert.Equal(t, []Outcome{Applied, Skipped, Skipped, Pending}, r.Outcomes())
	assert.Equal(t, 2, r.Count(Skipped))
	assert.Equal(t, 0, r.Count(Failed))
}

func TestSchemaSnapshot(t *testing.T) {
	s := NewSchemaSnapshot()
	s.Tables["orders"] = []Column{{Table: "orders", Name: "id", Type: "integer"}}
	s.Tables["empty"] = nil

	assert.True(t, s.HasTable("empty"))
	assert.False(t, s.HasTable("items"))
	assert.True(t, s.HasColumn("orders", "id"))
	assert.False(t, s.HasColumn("orders", "region"))
	assert.Equal(t, []string{"empty", "orders"}, s.TableNames())
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("duplicate column")
	err := errors.Wrap(&StepExecutionError{Index: 3, Step: "AddColumn(orders.region TEXT)", Err: cause}, "run batch")

	var stepErr *StepExecutionError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 3, stepErr.Index)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "step 3 AddColumn(orders.region TEXT): duplicate column", stepErr.Error())

	q := &SchemaQueryError{Index: 1, Step: "DropColumn(orders.region)", Err: cause}
	assert.Equal(t, cause, errors.Cause(q))

	c := &ConnectionError{Err: cause}
	assert.Equal(t, "database connection: duplicate column", c.Error())
	assert.True(t, errors.Is(c, cause))
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "RenameColumn(items.sku -> item)", Step{Kind: RenameColumn, Table: "items", Column: "sku", NewName: "item"}.String())
	assert.Equal(t, "SeedRow(page_urls by url = https://example.com)",
		Step{Kind: SeedRow, Table: "page_urls", Column: "url", Row: map[string]interface{}{"url": "https://example.com"}}.String())
}
