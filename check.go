package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"link_auditor/internal/application"
	"link_auditor/internal/domain/models"
	"link_auditor/internal/service"

	"github.com/spf13/cobra"
)

var (
	checkIn  string
	checkOut string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the URLs of a file once and write a CSV report",
	Long: `Reads a plain list (one URL per line) or, for .csv input, a table with a header
row, audits every URL found and writes the report as CSV.

Examples:
  link_auditor check --in links.txt --out report.csv
  link_auditor check --in sheet.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := readInput(checkIn)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		auditor := application.NewAuditor(cfg.Audit, logInstance)
		report, runErr := auditor.Run(cmd.Context(), table, func(done, total int, o models.FetchOutcome) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %s\n", done, total, o.URL, o.Note)
		})
		if report == nil {
			return runErr
		}

		if checkOut != "" {
			f, err := os.Create(checkOut)
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			defer f.Close()
			out = f
		}
		if err := service.WriteCSV(out, *report); err != nil {
			return err
		}

		s := report.Summary
		fmt.Fprintf(cmd.ErrOrStderr(), "%d occurrences, %d unique URLs, %d errors, %d soft failures, %d from cache\n",
			s.Occurrences, s.UniqueURLs, s.Errors, s.SoftFailures, s.CacheHits)
		return runErr
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkIn, "in", "", "input file: plain URL list, or .csv with a header row")
	checkCmd.Flags().StringVar(&checkOut, "out", "", "report file (default stdout)")
	_ = checkCmd.MarkFlagRequired("in")
}

func readInput(path string) (models.InputTable, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return models.InputTable{}, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return service.ReadCSVTable(r)
	}
	return service.ReadURLList(r)
}
