package app

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"schemamigrator/internal/domain"
)

// Runner applies a batch inside one transaction, re-reading the schema before
// each step to decide whether the step still has work to do.
type Runner struct {
	repo   domain.SchemaRepository
	logger log.FieldLogger
}

var _ domain.MigrationRunner = (*Runner)(nil)

func NewRunner(repo domain.SchemaRepository, logger log.FieldLogger) *Runner {
	if logger == nil {
		l := log.New()
		l.SetLevel(log.PanicLevel)
		logger = l
	}
	return &Runner{repo: repo, logger: logger}
}

// Run validates every step, then applies them in order. The returned report
// is populated on failure too: reached steps carry their outcome, the failing
// step is Failed and the rest stay Pending.
func (r *Runner) Run(ctx context.Context, batch domain.Batch) (report domain.Report, err error) {
	report = domain.Report{Batch: batch.Name, State: domain.BatchPending, Entries: make([]domain.ReportEntry, len(batch.Steps))}
	for i, step := range batch.Steps {
		report.Entries[i] = domain.ReportEntry{Index: i, Step: step, Outcome: domain.Pending}
	}
	logger := r.logger.WithField("batch", batch.Name)

	if err = batch.Validate(); err != nil {
		logger.WithError(err).Error("batch rejected")
		return report, err
	}

	tx, err := r.repo.Begin(ctx)
	if err != nil {
		err = &domain.ConnectionError{Err: errors.Wrap(err, "begin transaction")}
		logger.WithError(err).Error("batch not started")
		return report, err
	}
	report.State = domain.BatchRunning
	logger.WithField("steps", len(batch.Steps)).Info("batch started")

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.WithError(rbErr).Error("rollback failed")
		}
		report.State = domain.BatchRolledBack
		logger.WithError(err).Warn("batch rolled back")
	}()

	for i, step := range batch.Steps {
		entry := &report.Entries[i]
		outcome, rows, stepErr := r.apply(ctx, tx, i, step)
		if stepErr != nil {
			entry.Outcome = domain.Failed
			return report, stepErr
		}
		entry.Outcome = outcome
		entry.RowsAffected = rows
		fields := log.Fields{
			"step":    i,
			"kind":    step.Kind,
			"table":   step.Table,
			"outcome": outcome,
		}
		if step.Kind == domain.BackfillValue || step.Kind == domain.SeedRow {
			fields["rows"] = rows
		}
		logger.WithFields(fields).Info(step.String())
	}

	if err = tx.Commit(); err != nil {
		return report, &domain.StepExecutionError{Index: len(batch.Steps), Step: "commit", Err: err}
	}
	committed = true
	report.State = domain.BatchCommitted
	logger.WithFields(log.Fields{
		"applied": report.Count(domain.Applied),
		"skipped": report.Count(domain.Skipped),
	}).Info("batch committed")
	return report, nil
}

func (r *Runner) Inspect(ctx context.Context, tables ...string) (domain.SchemaSnapshot, error) {
	snap, err := r.repo.Snapshot(ctx, tables...)
	if err != nil {
		return snap, errors.Wrap(err, "inspect schema")
	}
	return snap, nil
}

func (r *Runner) apply(ctx context.Context, tx domain.SchemaTx, index int, step domain.Step) (domain.Outcome, int64, error) {
	desc := step.String()
	queryErr := func(err error) error {
		return &domain.SchemaQueryError{Index: index, Step: desc, Err: err}
	}
	execErr := func(err error) error {
		return &domain.StepExecutionError{Index: index, Step: desc, Err: err}
	}

	done, err := r.satisfied(ctx, tx, step)
	if err != nil {
		if errors.Is(err, domain.ErrColumnNotFound) || errors.Is(err, domain.ErrTableNotFound) {
			return domain.Failed, 0, execErr(err)
		}
		return domain.Failed, 0, queryErr(err)
	}
	if done {
		return domain.Skipped, 0, nil
	}

	stmt, err := buildStatement(step, r.repo.Placeholder)
	if err != nil {
		return domain.Failed, 0, execErr(err)
	}
	rows, err := tx.Exec(ctx, stmt.query, stmt.args...)
	if err != nil {
		return domain.Failed, 0, execErr(err)
	}
	if step.Kind != domain.BackfillValue && step.Kind != domain.SeedRow {
		rows = 0
	}
	return domain.Applied, rows, nil
}

// satisfied reports whether the step's postcondition already holds.
func (r *Runner) satisfied(ctx context.Context, tx domain.SchemaTx, step domain.Step) (bool, error) {
	switch step.Kind {
	case domain.AddColumn:
		return tx.HasColumn(ctx, step.Table, step.Column)
	case domain.DropColumn:
		has, err := tx.HasColumn(ctx, step.Table, step.Column)
		return !has, err
	case domain.RenameColumn:
		hasTarget, err := tx.HasColumn(ctx, step.Table, step.NewName)
		if err != nil || hasTarget {
			return hasTarget, err
		}
		hasSource, err := tx.HasColumn(ctx, step.Table, step.Column)
		return !hasSource, err
	case domain.CreateTable:
		return tx.TableExists(ctx, step.Table)
	case domain.RenameTable:
		hasTarget, err := tx.TableExists(ctx, step.NewName)
		if err != nil || hasTarget {
			return hasTarget, err
		}
		hasSource, err := tx.TableExists(ctx, step.Table)
		return !hasSource, err
	case domain.BackfillValue:
		has, err := tx.HasColumn(ctx, step.Table, step.Column)
		if err != nil {
			return false, err
		}
		if !has {
			return false, errors.Wrapf(domain.ErrColumnNotFound, "%s.%s", step.Table, step.Column)
		}
		return false, nil
	case domain.SeedRow:
		exists, err := tx.TableExists(ctx, step.Table)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, errors.Wrap(domain.ErrTableNotFound, step.Table)
		}
		lookup := seedLookup(step, r.repo.Placeholder)
		n, err := tx.QueryInt(ctx, lookup.query, lookup.args...)
		return n > 0, err
	}
	return false, errors.Errorf("unknown step kind %q", step.Kind)
}
