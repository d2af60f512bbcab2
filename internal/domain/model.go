package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type StepKind string

const (
	AddColumn     StepKind = "AddColumn"
	DropColumn    StepKind = "DropColumn"
	RenameColumn  StepKind = "RenameColumn"
	CreateTable   StepKind = "CreateTable"
	RenameTable   StepKind = "RenameTable"
	BackfillValue StepKind = "BackfillValue"
	SeedRow       StepKind = "SeedRow"
)

var stepKinds = []StepKind{AddColumn, DropColumn, RenameColumn, CreateTable, RenameTable, BackfillValue, SeedRow}

// ParseStepKind accepts the canonical name as well as snake_case spellings
// such as "add_column".
func ParseStepKind(s string) (StepKind, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, k := range stepKinds {
		if strings.ToLower(string(k)) == norm {
			return k, nil
		}
	}
	return "", errors.Errorf("unknown step kind %q", s)
}

// Step is one declarative schema or data change. Only the fields the Kind
// needs may be set, see Validate.
type Step struct {
	Table        string
	Kind         StepKind
	Column       string
	NewName      string
	TypeSpec     string
	DefaultValue interface{}
	DDLBody      string
	Row          map[string]interface{}
}

func (s Step) String() string {
	switch s.Kind {
	case AddColumn:
		return fmt.Sprintf("AddColumn(%s.%s %s)", s.Table, s.Column, s.TypeSpec)
	case DropColumn:
		return fmt.Sprintf("DropColumn(%s.%s)", s.Table, s.Column)
	case RenameColumn:
		return fmt.Sprintf("RenameColumn(%s.%s -> %s)", s.Table, s.Column, s.NewName)
	case CreateTable:
		return fmt.Sprintf("CreateTable(%s)", s.Table)
	case RenameTable:
		return fmt.Sprintf("RenameTable(%s -> %s)", s.Table, s.NewName)
	case BackfillValue:
		return fmt.Sprintf("BackfillValue(%s.%s = %v)", s.Table, s.Column, s.DefaultValue)
	case SeedRow:
		return fmt.Sprintf("SeedRow(%s by %s = %v)", s.Table, s.Column, s.Row[s.Column])
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Table)
}

// Batch is applied in order inside a single transaction.
type Batch struct {
	Name  string
	Steps []Step
}

type Outcome string

const (
	Pending Outcome = "Pending"
	Applied Outcome = "Applied"
	Skipped Outcome = "Skipped"
	Failed  Outcome = "Failed"
)

type BatchState string

const (
	BatchPending    BatchState = "Pending"
	BatchRunning    BatchState = "Running"
	BatchCommitted  BatchState = "Committed"
	BatchRolledBack BatchState = "RolledBack"
)

type ReportEntry struct {
	Index   int
	Step    Step
	Outcome Outcome
	// RowsAffected is only meaningful for BackfillValue and SeedRow.
	RowsAffected int64
}

type Report struct {
	Batch   string
	State   BatchState
	Entries []ReportEntry
}

// Outcomes returns the per-step outcomes in batch order.
func (r Report) Outcomes() []Outcome {
	out := make([]Outcome, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Outcome
	}
	return out
}

func (r Report) Count(o Outcome) int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

type Column struct {
	Table string
	Name  string
	Type  string
}

// SchemaSnapshot is read from the live catalog, never stored.
type SchemaSnapshot struct {
	Tables map[string][]Column
}

func NewSchemaSnapshot() SchemaSnapshot {
	return SchemaSnapshot{Tables: map[string][]Column{}}
}

func (s SchemaSnapshot) HasTable(table string) bool {
	_, ok := s.Tables[table]
	return ok
}

func (s SchemaSnapshot) HasColumn(table, column string) bool {
	for _, c := range s.Tables[table] {
		if c.Name == column {
			return true
		}
	}
	return false
}

// TableNames returns the snapshot tables sorted by name.
func (s SchemaSnapshot) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
