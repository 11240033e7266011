package service

import (
	"testing"

	"link_auditor/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		err      error
	}{
		{name: "bare domain", input: "example.com", expected: "https://example.com"},
		{name: "www prefix", input: "www.example.com/a", expected: "https://www.example.com/a"},
		{name: "upper case www", input: "WWW.Example.com", expected: "https://WWW.Example.com"},
		{name: "http kept", input: "http://example.com/x?y=1", expected: "http://example.com/x?y=1"},
		{name: "surrounding space", input: "  https://example.com/  ", expected: "https://example.com/"},
		{name: "host with port", input: "example.com:8080/path", expected: "https://example.com:8080/path"},
		{name: "empty", input: "   ", err: ErrEmptyURL},
		{name: "ftp", input: "ftp://example.com", err: ErrUnsupportedScheme},
		{name: "no host", input: "https://", err: ErrMissingHost},
		{name: "mailto", input: "mailto:a@b.com", err: ErrUnsupportedScheme},
		{name: "tel", input: "tel:+15551234", err: ErrUnsupportedScheme},
		{name: "javascript", input: "javascript:void(0)", err: ErrUnsupportedScheme},
		{name: "ftp without slashes", input: "FTP:example.com", err: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			again, err := Normalize(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "normalize must be idempotent")
		})
	}
}

func TestNormalize_MalformedWithScheme(t *testing.T) {
	for _, input := range []string{"https://exa mple.com", "http://[::1"} {
		t.Run(input, func(t *testing.T) {
			got, err := Normalize(input)
			assert.Error(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		expected []string
	}{
		{
			name:     "prose with punctuation",
			cell:     "See https://a.com/x, and www.b.org.",
			expected: []string{"https://a.com/x", "www.b.org"},
		},
		{
			name:     "parenthesised",
			cell:     "(https://c.com/page)",
			expected: []string{"https://c.com/page"},
		},
		{
			name:     "html attribute",
			cell:     `<a href="http://d.com/q?x=1">d</a>`,
			expected: []string{"http://d.com/q?x=1"},
		},
		{
			name:     "nothing",
			cell:     "no links here",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractURLs(tt.cell)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOccurrences_Table(t *testing.T) {
	table := models.InputTable{
		Columns: []string{"Name", "Links"},
		Rows: [][]string{
			{"Acme", "https://a.com and https://b.com"},
			{"Beta", "none"},
			{"https://a.com", "", "www.extra.com"},
		},
	}

	occs, rejected := Occurrences(table)
	assert.Equal(t, 0, rejected)
	require.Len(t, occs, 4)

	assert.Equal(t, models.Occurrence{Row: 0, Column: "Links", Raw: "https://a.com", URL: "https://a.com"}, occs[0])
	assert.Equal(t, models.Occurrence{Row: 0, Column: "Links", Raw: "https://b.com", URL: "https://b.com"}, occs[1])
	assert.Equal(t, models.Occurrence{Row: 2, Column: "Name", Raw: "https://a.com", URL: "https://a.com"}, occs[2])
	assert.Equal(t, models.Occurrence{Row: 2, Column: "Column 3", Raw: "www.extra.com", URL: "https://www.extra.com"}, occs[3])

	assert.Equal(t, []string{"https://a.com", "https://b.com", "https://www.extra.com"}, UniqueURLs(occs))
}

func TestOccurrences_PlainList(t *testing.T) {
	table := models.TableFromURLs([]string{"example.com/a", "", "ftp://x.com", "https://b.com"})

	occs, rejected := Occurrences(table)
	assert.Equal(t, 1, rejected)
	require.Len(t, occs, 2)
	assert.Equal(t, "https://example.com/a", occs[0].URL)
	assert.Equal(t, "example.com/a", occs[0].Raw)
	assert.Equal(t, models.PlainListColumn, occs[0].Column)
	assert.Equal(t, 3, occs[1].Row)
}
