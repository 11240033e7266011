package service

import (
	"context"
	"sync"
	"time"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/pkg/errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

var (
	ErrAuditRunning   = errors.New("an audit is already running")
	ErrBatchCancelled = errors.New("audit batch did not finish")
)

// Status is a snapshot of the auditor's state machine.
type Status struct {
	State      State           `json:"state"`
	RunID      string          `json:"run_id,omitempty"`
	Done       int             `json:"done"`
	Total      int             `json:"total"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Summary    *models.Summary `json:"summary,omitempty"`
	CacheSize  int             `json:"cache_size"`
	Error      string          `json:"error,omitempty"`
}

// Auditor coordinates one audit at a time: Idle -> Running -> Complete|Failed.
// It is the only writer of the result cache.
type Auditor struct {
	mu           sync.Mutex
	status       Status
	last         *models.Report
	scheduler    *Scheduler
	cache        *ResultCache
	batchTimeout time.Duration
	log          *log.Logger
}

func NewAuditor(scheduler *Scheduler, cache *ResultCache, batchTimeout time.Duration, log *log.Logger) *Auditor {
	return &Auditor{
		status:       Status{State: StateIdle},
		scheduler:    scheduler,
		cache:        cache,
		batchTimeout: batchTimeout,
		log:          log,
	}
}

// Run audits every URL found in table and returns the assembled report. When
// the batch is cut short the report is still complete, unresolved URLs are
// marked cancelled, the state becomes Failed and ErrBatchCancelled is returned
// alongside the report.
func (a *Auditor) Run(ctx context.Context, table models.InputTable, progress ProgressFunc) (*models.Report, error) {
	runID, err := a.begin()
	if err != nil {
		return nil, err
	}
	logger := a.log.WithField(`run_id`, runID)

	if a.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.batchTimeout)
		defer cancel()
	}

	occs, rejected := Occurrences(table)
	urls := UniqueURLs(occs)
	logger.WithFields(log.Fields{
		`occurrences`: len(occs),
		`unique`:      len(urls),
		`rejected`:    rejected,
	}).Info(`audit started`)

	outcomes := make(map[string]models.FetchOutcome, len(urls))
	var pending []string
	for _, u := range urls {
		if o, ok := a.cache.Get(u); ok {
			outcomes[u] = o
			continue
		}
		pending = append(pending, u)
	}
	hits := len(outcomes)
	a.setProgress(hits, len(urls))

	fetched := a.scheduler.RunBatch(ctx, pending, func(done, total int, o models.FetchOutcome) {
		a.setProgress(hits+done, len(urls))
		if progress != nil {
			progress(hits+done, len(urls), o)
		}
	})

	for u, o := range fetched {
		outcomes[u] = o
		if o.Note != models.NoteCancelled {
			a.cache.Put(u, o)
		}
	}

	report := Assemble(table, occs, outcomes)
	report.RunID = runID
	report.Summary = Summarize(report)
	report.Summary.CacheHits = hits
	report.Summary.Rejected = rejected

	if ctx.Err() != nil {
		logger.WithError(ctx.Err()).Warn(`audit batch cancelled`)
		a.finish(StateFailed, &report, ctx.Err().Error())
		return &report, errors.Errorf(`%w: %w`, ErrBatchCancelled, ctx.Err())
	}

	logger.WithFields(log.Fields{
		`errors`:        report.Summary.Errors,
		`soft_failures`: report.Summary.SoftFailures,
		`cache_hits`:    hits,
	}).Info(`audit complete`)
	a.finish(StateComplete, &report, "")
	return &report, nil
}

// Reset returns a finished auditor to Idle.
func (a *Auditor) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status.State == StateRunning {
		return ErrAuditRunning
	}
	a.status = Status{State: StateIdle}
	a.last = nil
	return nil
}

// Status returns a snapshot of the current state.
func (a *Auditor) Status() Status {
	a.mu.Lock()
	st := a.status
	a.mu.Unlock()
	st.CacheSize = a.cache.Len()
	return st
}

// LastReport is the report of the most recent finished run, if any.
func (a *Auditor) LastReport() *models.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// PurgeCache drops expired cache entries.
func (a *Auditor) PurgeCache() int {
	return a.cache.Purge()
}

func (a *Auditor) begin() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status.State == StateRunning {
		return "", ErrAuditRunning
	}
	runID := uuid.NewString()
	a.status = Status{
		State:     StateRunning,
		RunID:     runID,
		StartedAt: time.Now(),
	}
	return runID, nil
}

func (a *Auditor) setProgress(done, total int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Done = done
	a.status.Total = total
}

func (a *Auditor) finish(state State, report *models.Report, errMsg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	summary := report.Summary
	a.status.State = state
	a.status.FinishedAt = time.Now()
	a.status.Summary = &summary
	a.status.Error = errMsg
	a.last = report
}
