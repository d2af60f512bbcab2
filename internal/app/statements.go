package app

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"schemamigrator/internal/domain"
)

// Identifiers reach these builders only after domain.ValidIdentifier; they
// are quoted as well, so the allow-list stays the single trust boundary.
func quote(name string) string {
	return pq.QuoteIdentifier(name)
}

type statement struct {
	query string
	args  []interface{}
}

func buildStatement(step domain.Step, placeholder func(int) string) (statement, error) {
	t := quote(step.Table)
	switch step.Kind {
	case domain.AddColumn:
		return statement{query: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", t, quote(step.Column), strings.TrimSpace(step.TypeSpec))}, nil
	case domain.DropColumn:
		return statement{query: fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", t, quote(step.Column))}, nil
	case domain.RenameColumn:
		return statement{query: fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", t, quote(step.Column), quote(step.NewName))}, nil
	case domain.CreateTable:
		return statement{query: fmt.Sprintf("CREATE TABLE %s %s", t, tableBody(step.DDLBody))}, nil
	case domain.RenameTable:
		return statement{query: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", t, quote(step.NewName))}, nil
	case domain.BackfillValue:
		c := quote(step.Column)
		return statement{
			query: fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL", t, c, placeholder(1), c),
			args:  []interface{}{step.DefaultValue},
		}, nil
	case domain.SeedRow:
		cols := step.RowColumns()
		quoted := make([]string, len(cols))
		marks := make([]string, len(cols))
		args := make([]interface{}, len(cols))
		for i, c := range cols {
			quoted[i] = quote(c)
			marks[i] = placeholder(i + 1)
			args[i] = step.Row[c]
		}
		return statement{
			query: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t, strings.Join(quoted, ", "), strings.Join(marks, ", ")),
			args:  args,
		}, nil
	}
	return statement{}, errors.Errorf("no statement for step kind %q", step.Kind)
}

func seedLookup(step domain.Step, placeholder func(int) string) statement {
	return statement{
		query: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s", quote(step.Table), quote(step.Column), placeholder(1)),
		args:  []interface{}{step.Row[step.Column]},
	}
}

// tableBody accepts the column list with or without its enclosing parentheses.
func tableBody(body string) string {
	body = strings.TrimSpace(body)
	if enclosed(body) {
		return body
	}
	// Newlines keep a trailing "--" comment from swallowing the closing paren.
	return "(\n" + body + "\n)"
}

func enclosed(body string) bool {
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return false
	}
	depth := 0
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(body)-1
			}
		}
	}
	return false
}
