package service

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"link_auditor/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_SharedOutcomeAcrossOccurrences(t *testing.T) {
	table := models.InputTable{
		Columns: []string{"Name", "Link", "Notes"},
		Rows: [][]string{
			{"one", "https://a.com", "see https://a.com"},
			{"two", "https://a.com"},
		},
	}
	occs, _ := Occurrences(table)
	require.Len(t, occs, 3)

	outcome := models.FetchOutcome{
		URL:           "https://a.com",
		FinalURL:      "https://a.com/home",
		StatusCode:    200,
		RedirectChain: []string{"https://a.com", "https://a.com/home"},
		Note:          models.NoteOK,
	}
	report := Assemble(table, occs, map[string]models.FetchOutcome{"https://a.com": outcome})

	require.Len(t, report.Rows, 3)
	for _, row := range report.Rows {
		assert.Equal(t, outcome, row.Outcome)
	}
	assert.Equal(t, "Link", report.Rows[0].SourceColumn)
	assert.Equal(t, "Notes", report.Rows[1].SourceColumn)
	assert.Equal(t, []string{"two", "https://a.com", ""}, report.Rows[2].Values)

	sum := Summarize(report)
	assert.Equal(t, 3, sum.Occurrences)
	assert.Equal(t, 1, sum.UniqueURLs)
	assert.Equal(t, 0, sum.Errors)
}

func TestAssemble_RaggedRowsKeepEveryCell(t *testing.T) {
	table := models.InputTable{
		Columns: []string{"name"},
		Rows: [][]string{
			{"a", "see https://x.com/p"},
			{"b"},
		},
	}
	occs, _ := Occurrences(table)
	require.Len(t, occs, 1)
	assert.Equal(t, "Column 2", occs[0].Column)

	report := Assemble(table, occs, nil)

	assert.Equal(t, []string{"name", "Column 2"}, report.Columns)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, []string{"a", "see https://x.com/p"}, report.Rows[0].Values)
	assert.Equal(t, "Column 2", report.Rows[0].SourceColumn)
}

func TestAssemble_TableWithoutHeader(t *testing.T) {
	table := models.InputTable{Rows: [][]string{{"x", "https://a.com"}}}
	occs, _ := Occurrences(table)

	report := Assemble(table, occs, nil)

	assert.Equal(t, []string{"Column 1", "Column 2"}, report.Columns)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, []string{"x", "https://a.com"}, report.Rows[0].Values)
}

func TestAssemble_MissingOutcomeIsNotChecked(t *testing.T) {
	table := models.TableFromURLs([]string{"https://a.com", "https://b.com"})
	occs, _ := Occurrences(table)

	report := Assemble(table, occs, map[string]models.FetchOutcome{
		"https://a.com": {URL: "https://a.com", FinalURL: "https://a.com", StatusCode: 200, Note: models.NoteOK},
	})

	require.Len(t, report.Rows, 2)
	missing := report.Rows[1].Outcome
	assert.Equal(t, models.NoteNotChecked, missing.Note)
	assert.Equal(t, models.StatusFailed, missing.StatusCode)
	assert.True(t, missing.ErrorFlag)

	sum := Summarize(report)
	assert.Equal(t, 2, sum.UniqueURLs)
	assert.Equal(t, 1, sum.Errors)
}

func TestWriteCSV(t *testing.T) {
	report := models.Report{
		Columns: []string{"Title", "Body"},
		Rows: []models.ReportRow{
			{
				Values:       []string{"Quote, \"inner\"", "go to www.a.com"},
				SourceColumn: "Body",
				URL:          "https://www.a.com",
				OriginalURL:  "www.a.com",
				Outcome: models.FetchOutcome{
					URL:           "https://www.a.com",
					FinalURL:      "https://a.com/",
					StatusCode:    200,
					RedirectChain: []string{"https://www.a.com", "https://a.com/"},
					Note:          models.NoteOK,
				},
			},
			{
				Values:       []string{"Dead"},
				SourceColumn: "Title",
				URL:          "https://dead.com",
				OriginalURL:  "https://dead.com",
				Outcome:      models.FailedOutcome("https://dead.com", models.TransportErrorNote("no such host"), 1, time.Time{}),
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Title", "Body",
		"Source Column", "URL", "Original URL", "Final URL", "Status Code",
		"Redirect Chain", "Soft Failure Suspected", "Error Flag", "Note",
	}, records[0])
	assert.Equal(t, []string{
		"Quote, \"inner\"", "go to www.a.com",
		"Body", "https://www.a.com", "www.a.com", "https://a.com/", "200",
		"https://www.a.com > https://a.com/", "false", "false", "OK",
	}, records[1])
	assert.Equal(t, []string{
		"Dead", "",
		"Title", "https://dead.com", "https://dead.com", "", "ERROR",
		"https://dead.com", "false", "true", "Transport error: no such host",
	}, records[2])
}
