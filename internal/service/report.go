package service

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/pkg/errors"
)

// OutcomeColumns follow the input columns in every report.
var OutcomeColumns = []string{
	"Source Column",
	"URL",
	"Original URL",
	"Final URL",
	"Status Code",
	"Redirect Chain",
	"Soft Failure Suspected",
	"Error Flag",
	"Note",
}

const chainSeparator = " > "

// Assemble emits one row per URL occurrence, in occurrence order. Occurrences
// whose URL has no outcome get a "not checked" outcome. Rows wider than the
// header keep every cell; the extra columns get the names Occurrences uses.
func Assemble(table models.InputTable, occs []models.Occurrence, outcomes map[string]models.FetchOutcome) models.Report {
	width := len(table.Columns)
	for _, row := range table.Rows {
		width = max(width, len(row))
	}

	columns := make([]string, width)
	for i := range columns {
		columns[i] = columnName(table, i)
	}

	report := models.Report{
		Columns: columns,
		Rows:    make([]models.ReportRow, 0, len(occs)),
	}

	for _, occ := range occs {
		outcome, ok := outcomes[occ.URL]
		if !ok {
			outcome = models.NotCheckedOutcome(occ.URL)
		}

		values := make([]string, width)
		for i := range values {
			values[i] = table.Cell(occ.Row, i)
		}

		report.Rows = append(report.Rows, models.ReportRow{
			Values:       values,
			SourceColumn: occ.Column,
			URL:          occ.URL,
			OriginalURL:  occ.Raw,
			Outcome:      outcome,
		})
	}
	return report
}

// Summarize counts errors and soft failures per unique URL.
func Summarize(report models.Report) models.Summary {
	sum := models.Summary{Occurrences: len(report.Rows)}
	seen := make(map[string]struct{}, len(report.Rows))
	for _, row := range report.Rows {
		if _, ok := seen[row.URL]; ok {
			continue
		}
		seen[row.URL] = struct{}{}
		sum.UniqueURLs++
		if row.Outcome.ErrorFlag {
			sum.Errors++
		}
		if row.Outcome.SoftFailureSuspected {
			sum.SoftFailures++
		}
	}
	return sum
}

// WriteCSV writes the report as a header row followed by one record per row.
func WriteCSV(w io.Writer, report models.Report) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(report.Columns)+len(OutcomeColumns))
	header = append(header, report.Columns...)
	header = append(header, OutcomeColumns...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, `failed to write csv header`)
	}

	for _, row := range report.Rows {
		o := row.Outcome
		record := make([]string, 0, len(header))
		record = append(record, row.Values...)
		for len(record) < len(report.Columns) {
			record = append(record, "")
		}
		record = append(record,
			row.SourceColumn,
			row.URL,
			row.OriginalURL,
			o.FinalURL,
			statusText(o.StatusCode),
			strings.Join(o.RedirectChain, chainSeparator),
			strconv.FormatBool(o.SoftFailureSuspected),
			strconv.FormatBool(o.ErrorFlag),
			o.Note,
		)
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, `failed to write csv row`)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, `failed to flush csv`)
	}
	return nil
}

func statusText(code int) string {
	if code == models.StatusFailed {
		return "ERROR"
	}
	return strconv.Itoa(code)
}
