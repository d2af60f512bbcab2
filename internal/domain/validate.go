package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MaxIdentifierLength matches PostgreSQL's NAMEDATALEN-1.
const MaxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func ValidIdentifier(name string) bool {
	return len(name) <= MaxIdentifierLength && identifierPattern.MatchString(name)
}

type field int

const (
	fieldTable field = 1 << iota
	fieldColumn
	fieldNewName
	fieldTypeSpec
	fieldDefault
	fieldDDLBody
	fieldRow
)

var fieldNames = map[field]string{
	fieldTable:    "table",
	fieldColumn:   "column",
	fieldNewName:  "new_name",
	fieldTypeSpec: "type_spec",
	fieldDefault:  "default_value",
	fieldDDLBody:  "ddl_body",
	fieldRow:      "row",
}

var requiredFields = map[StepKind]field{
	AddColumn:     fieldTable | fieldColumn | fieldTypeSpec,
	DropColumn:    fieldTable | fieldColumn,
	RenameColumn:  fieldTable | fieldColumn | fieldNewName,
	CreateTable:   fieldTable | fieldDDLBody,
	RenameTable:   fieldTable | fieldNewName,
	BackfillValue: fieldTable | fieldColumn | fieldDefault,
	SeedRow:       fieldTable | fieldColumn | fieldRow,
}

func (s Step) populated() field {
	var f field
	if s.Table != "" {
		f |= fieldTable
	}
	if s.Column != "" {
		f |= fieldColumn
	}
	if s.NewName != "" {
		f |= fieldNewName
	}
	if s.TypeSpec != "" {
		f |= fieldTypeSpec
	}
	if s.DefaultValue != nil {
		f |= fieldDefault
	}
	if s.DDLBody != "" {
		f |= fieldDDLBody
	}
	if len(s.Row) > 0 {
		f |= fieldRow
	}
	return f
}

// Validate checks that exactly the fields required by the step kind are set,
// that every identifier passes the allow-list and that raw DDL fragments hold
// a single statement. index is only used for error reporting.
func (s Step) Validate(index int) error {
	required, ok := requiredFields[s.Kind]
	if !ok {
		return &InvalidStepError{Index: index, Kind: s.Kind, Reason: "unknown step kind"}
	}
	have := s.populated()
	if missing := required &^ have; missing != 0 {
		return &InvalidStepError{Index: index, Kind: s.Kind, Reason: "missing " + describe(missing)}
	}
	if extra := have &^ required; extra != 0 {
		return &InvalidStepError{Index: index, Kind: s.Kind, Reason: "unexpected " + describe(extra)}
	}

	idents := []struct {
		field string
		value string
	}{
		{"table", s.Table},
		{"column", s.Column},
		{"new_name", s.NewName},
	}
	for _, id := range idents {
		if id.value == "" {
			continue
		}
		if !ValidIdentifier(id.value) {
			return &InvalidIdentifierError{Index: index, Field: id.field, Value: id.value}
		}
	}
	for _, col := range s.RowColumns() {
		if !ValidIdentifier(col) {
			return &InvalidIdentifierError{Index: index, Field: "row", Value: col}
		}
	}

	for _, frag := range []struct {
		field string
		value string
	}{{"type_spec", s.TypeSpec}, {"ddl_body", s.DDLBody}} {
		if strings.Contains(frag.value, ";") {
			return &InvalidStepError{Index: index, Kind: s.Kind, Reason: frag.field + " must not contain ';'"}
		}
	}

	if s.Kind == SeedRow {
		// A NULL key never matches the existence lookup, so the row would be
		// inserted again on every run.
		if key, ok := s.Row[s.Column]; !ok || key == nil {
			return &InvalidStepError{Index: index, Kind: s.Kind, Reason: fmt.Sprintf("row has no value for key column %q", s.Column)}
		}
	}
	return nil
}

// RowColumns returns the SeedRow column names in a stable order.
func (s Step) RowColumns() []string {
	cols := make([]string, 0, len(s.Row))
	for c := range s.Row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Validate checks every step of the batch and returns the first problem found.
func (b Batch) Validate() error {
	for i, s := range b.Steps {
		if err := s.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

func describe(f field) string {
	var names []string
	for bit := fieldTable; bit <= fieldRow; bit <<= 1 {
		if f&bit != 0 {
			names = append(names, fieldNames[bit])
		}
	}
	return strings.Join(names, ", ")
}
