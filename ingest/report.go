package ingest

import (
	"fmt"
	"io"

	"ewintr.nl/ytsum/model"
)

// WriteReport prints one line per outcome, in the order they arrived,
// followed by the totals.
func WriteReport(w io.Writer, report *model.IngestionReport) error {
	for _, outcome := range report.Outcomes {
		if _, err := fmt.Fprintln(w, outcome.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d videos discovered: %d saved, %d skipped, %d failed\n",
		report.Discovered, report.Succeeded, report.Skipped, report.Failed)

	return err
}
