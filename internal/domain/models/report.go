package models

// InputTable is the row/column structure URLs were extracted from. A plain URL
// list is a single-column table with PlainList set, in which case each cell is
// normalized as a whole instead of being searched for URLs.
type InputTable struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	PlainList bool       `json:"-"`
}

// PlainListColumn is the column name given to a bare URL list.
const PlainListColumn = "Link"

// TableFromURLs wraps a plain list of raw URL strings.
func TableFromURLs(urls []string) InputTable {
	rows := make([][]string, 0, len(urls))
	for _, u := range urls {
		rows = append(rows, []string{u})
	}
	return InputTable{
		Columns:   []string{PlainListColumn},
		Rows:      rows,
		PlainList: true,
	}
}

// Cell returns the value at row/col, or "" for short rows.
func (t InputTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Occurrence is one appearance of a URL in the input.
type Occurrence struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Raw    string `json:"raw"`
	URL    string `json:"url"`
}

// ReportRow pairs an input row with one URL occurrence and its outcome.
type ReportRow struct {
	Values       []string     `json:"values"`
	SourceColumn string       `json:"source_column"`
	URL          string       `json:"url"`
	OriginalURL  string       `json:"original_url"`
	Outcome      FetchOutcome `json:"outcome"`
}

// Report is the assembled result of an audit.
type Report struct {
	RunID   string      `json:"run_id"`
	Columns []string    `json:"columns"`
	Rows    []ReportRow `json:"rows"`
	Summary Summary     `json:"summary"`
}

// Summary aggregates a report for status output.
type Summary struct {
	Occurrences  int `json:"occurrences"`
	UniqueURLs   int `json:"unique_urls"`
	Errors       int `json:"errors"`
	SoftFailures int `json:"soft_failures"`
	CacheHits    int `json:"cache_hits"`
	Rejected     int `json:"rejected"`
}
