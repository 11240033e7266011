package service

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/pkg/errors"
)

var (
	ErrEmptyURL          = errors.New("url is empty")
	ErrUnsupportedScheme = errors.New("url scheme is not http or https")
	ErrMissingHost       = errors.New("url has no host")
)

// urlPattern finds URL-like substrings in free text: anything starting with a
// scheme or "www." up to whitespace or a delimiter commonly wrapped around links.
var urlPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"'` + "`" + `\[\]{}|\\^]+`)

const trailingPunct = ".,;:!?)'\""

// nonWebSchemes are rejected outright instead of being read as a host.
var nonWebSchemes = map[string]struct{}{
	"mailto": {}, "tel": {}, "sms": {}, "javascript": {}, "data": {},
	"ftp": {}, "ftps": {}, "sftp": {}, "file": {}, "news": {}, "irc": {}, "about": {},
}

// Normalize turns a raw string into an absolute http(s) URL. It is purely
// syntactic and idempotent.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyURL
	}

	if !strings.Contains(s, "://") {
		if i := strings.IndexByte(s, ':'); i > 0 {
			if _, ok := nonWebSchemes[strings.ToLower(s[:i])]; ok {
				return "", ErrUnsupportedScheme
			}
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", errors.Wrap(err, `failed to parse url`)
	}
	if !isHTTPScheme(u.Scheme) {
		return "", ErrUnsupportedScheme
	}
	if u.Host == "" {
		return "", ErrMissingHost
	}
	return s, nil
}

func isHTTPScheme(scheme string) bool {
	return strings.EqualFold(scheme, "http") || strings.EqualFold(scheme, "https")
}

// ExtractURLs finds every URL-like substring of a cell, in order of appearance.
func ExtractURLs(cell string) []string {
	matches := urlPattern.FindAllString(cell, -1)
	out := matches[:0]
	for _, m := range matches {
		m = strings.TrimRight(m, trailingPunct)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Occurrences walks every cell of the table and returns each URL occurrence
// that normalizes, plus the count of candidates that were rejected.
func Occurrences(table models.InputTable) ([]models.Occurrence, int) {
	var (
		occs     []models.Occurrence
		rejected int
	)
	for r, row := range table.Rows {
		for c, cell := range row {
			column := columnName(table, c)

			var candidates []string
			if table.PlainList {
				if strings.TrimSpace(cell) != "" {
					candidates = []string{strings.TrimSpace(cell)}
				}
			} else {
				candidates = ExtractURLs(cell)
			}

			for _, raw := range candidates {
				normalized, err := Normalize(raw)
				if err != nil {
					rejected++
					continue
				}
				occs = append(occs, models.Occurrence{
					Row:    r,
					Column: column,
					Raw:    raw,
					URL:    normalized,
				})
			}
		}
	}
	return occs, rejected
}

// UniqueURLs returns the distinct URLs of occs in first-seen order.
func UniqueURLs(occs []models.Occurrence) []string {
	urls := make([]string, 0, len(occs))
	for _, o := range occs {
		urls = append(urls, o.URL)
	}
	return dedupe(urls)
}

func columnName(table models.InputTable, idx int) string {
	if idx < len(table.Columns) && table.Columns[idx] != "" {
		return table.Columns[idx]
	}
	return "Column " + strconv.Itoa(idx+1)
}
