package service

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/pkg/errors"
)

// ReadURLList reads one URL per line. Blank lines are skipped.
func ReadURLList(r io.Reader) (models.InputTable, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return models.InputTable{}, errors.Wrap(err, `failed to read url list`)
	}
	return models.TableFromURLs(urls), nil
}

// ReadCSVTable reads a CSV whose first record is the header row. Rows may have
// differing lengths.
func ReadCSVTable(r io.Reader) (models.InputTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return models.InputTable{}, errors.Wrap(err, `failed to read csv`)
	}
	if len(records) == 0 {
		return models.InputTable{}, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return models.InputTable{Columns: header, Rows: records[1:]}, nil
}
