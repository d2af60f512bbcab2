package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"schemamigrator/internal/domain"
)

func WriteReport(w io.Writer, report domain.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "batch %s: %s\n", report.Batch, report.State)
	fmt.Fprintln(tw, "#\tSTEP\tOUTCOME\tROWS")
	for _, e := range report.Entries {
		rows := "-"
		if e.Step.Kind == domain.BackfillValue || e.Step.Kind == domain.SeedRow {
			if e.Outcome == domain.Applied || e.Outcome == domain.Skipped {
				rows = fmt.Sprint(e.RowsAffected)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Index, e.Step, e.Outcome, rows)
	}
	return tw.Flush()
}

func WriteSnapshot(w io.Writer, snap domain.SchemaSnapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, table := range snap.TableNames() {
		fmt.Fprintf(tw, "%s\n", table)
		for _, c := range snap.Tables[table] {
			fmt.Fprintf(tw, "\t%s\t%s\n", c.Name, c.Type)
		}
	}
	return tw.Flush()
}
