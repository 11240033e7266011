package models

import "time"

const (
	// StatusFailed marks an outcome that never received a terminal HTTP response.
	StatusFailed = 0
	// FinalURLFailed is the final URL of an outcome with no terminal response.
	FinalURLFailed = ""
)

const (
	NoteOK            = "OK"
	NoteSoftFailure   = "Soft failure suspected"
	NoteNotChecked    = "Not checked"
	NoteCancelled     = "Cancelled"
	noteRedirect      = "Redirect %d"
	noteErrorStatus   = "Error status %d"
	noteTransportFail = "Transport error: %s"
)

// FetchOutcome is the result of probing one unique URL. Outcomes are shared by
// value between every report row referencing the same URL and must not be
// modified after creation.
type FetchOutcome struct {
	URL                  string    `json:"url"`
	FinalURL             string    `json:"final_url"`
	StatusCode           int       `json:"status_code"`
	RedirectChain        []string  `json:"redirect_chain"`
	SoftFailureSuspected bool      `json:"soft_failure_suspected"`
	ErrorFlag            bool      `json:"error_flag"`
	Note                 string    `json:"note"`
	Attempts             int       `json:"attempts"`
	CheckedAt            time.Time `json:"checked_at"`
}

// Retries is the number of attempts beyond the first.
func (o FetchOutcome) Retries() int {
	if o.Attempts <= 1 {
		return 0
	}
	return o.Attempts - 1
}

// FailedOutcome builds the outcome of a probe that never got a terminal response.
func FailedOutcome(url, note string, attempts int, at time.Time) FetchOutcome {
	return FetchOutcome{
		URL:           url,
		FinalURL:      FinalURLFailed,
		StatusCode:    StatusFailed,
		RedirectChain: []string{url},
		ErrorFlag:     true,
		Note:          note,
		Attempts:      attempts,
		CheckedAt:     at,
	}
}

// NotCheckedOutcome stands in for a URL that has no outcome after a run.
func NotCheckedOutcome(url string) FetchOutcome {
	return FailedOutcome(url, NoteNotChecked, 0, time.Time{})
}

// CancelledOutcome is recorded for URLs left unresolved when a batch is aborted.
func CancelledOutcome(url string, attempts int, at time.Time) FetchOutcome {
	return FailedOutcome(url, NoteCancelled, attempts, at)
}
