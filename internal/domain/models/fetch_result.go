package models

import "time"

// FetchResult is the raw transport result of a probe, before classification.
// Err is set when no terminal response was obtained.
type FetchResult struct {
	URL           string
	FinalURL      string
	StatusCode    int
	RedirectChain []string
	Body          []byte
	ContentType   string
	Attempts      int
	RetryAfter    time.Duration
	Err           error
}
