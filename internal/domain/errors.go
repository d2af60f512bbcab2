package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrTableNotFound  = errors.New("table not found")
)

// ConnectionError means the database could not be reached. No step was attempted.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "database connection: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error { return e.Err }
func (e *ConnectionError) Cause() error  { return e.Err }

// InvalidIdentifierError is returned before any SQL is issued when a table or
// column name fails the identifier allow-list.
type InvalidIdentifierError struct {
	Index int
	Field string
	Value string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("step %d: invalid identifier in %s: %q", e.Index, e.Field, e.Value)
}

// InvalidStepError reports a step whose populated fields do not match its kind.
type InvalidStepError struct {
	Index  int
	Kind   StepKind
	Reason string
}

func (e *InvalidStepError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Index, e.Kind, e.Reason)
}

// StepExecutionError wraps the failure of a step statement. The batch has been rolled back.
type StepExecutionError struct {
	Index int
	Step  string
	Err   error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d %s: %v", e.Index, e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }
func (e *StepExecutionError) Cause() error  { return e.Err }

// SchemaQueryError wraps a failed pre-check introspection query. Handled like
// StepExecutionError.
type SchemaQueryError struct {
	Index int
	Step  string
	Err   error
}

func (e *SchemaQueryError) Error() string {
	return fmt.Sprintf("step %d %s: schema query: %v", e.Index, e.Step, e.Err)
}

func (e *SchemaQueryError) Unwrap() error { return e.Err }
func (e *SchemaQueryError) Cause() error  { return e.Err }
