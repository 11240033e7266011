package service

import (
	"context"
	"hash/fnv"
	"time"

	"link_auditor/internal/domain/adaptors"
	"link_auditor/internal/domain/models"
	"link_auditor/internal/pkg/errors"
	"link_auditor/internal/pkg/metrics"
	"link_auditor/internal/pkg/worker_pool"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultConcurrencyLimit = 10
	DefaultMaxJitter        = 50 * time.Millisecond
)

// SchedulerConfig bounds how probes are dispatched. A positive
// InterRequestDelay spaces dispatches by a fixed interval and replaces the
// per-URL jitter.
type SchedulerConfig struct {
	ConcurrencyLimit  int
	MaxJitter         time.Duration
	InterRequestDelay time.Duration
}

// ProgressFunc is called by the collecting goroutine after each probe finishes.
type ProgressFunc func(done, total int, outcome models.FetchOutcome)

type Scheduler struct {
	client     adaptors.WebClient
	classifier *Classifier
	cfg        SchedulerConfig
	limiter    *rate.Limiter
	now        func() time.Time
	log        *log.Logger
}

func NewScheduler(client adaptors.WebClient, classifier *Classifier, cfg SchedulerConfig, log *log.Logger) *Scheduler {
	if cfg.ConcurrencyLimit <= 0 {
		cfg.ConcurrencyLimit = DefaultConcurrencyLimit
	}
	if cfg.MaxJitter < 0 {
		cfg.MaxJitter = 0
	}
	s := &Scheduler{
		client:     client,
		classifier: classifier,
		cfg:        cfg,
		now:        time.Now,
		log:        log,
	}
	if cfg.InterRequestDelay > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.InterRequestDelay), 1)
	}
	return s
}

// RunBatch probes every URL with at most ConcurrencyLimit probes in flight and
// returns exactly one outcome per distinct input URL. A failing URL never
// aborts the batch. If ctx ends first, URLs left unresolved are reported as
// cancelled.
func (s *Scheduler) RunBatch(ctx context.Context, urls []string, progress ProgressFunc) map[string]models.FetchOutcome {
	urls = dedupe(urls)
	outcomes := make(map[string]models.FetchOutcome, len(urls))
	if len(urls) == 0 {
		return outcomes
	}

	start := time.Now()
	s.log.WithFields(log.Fields{
		`urls`:        len(urls),
		`concurrency`: s.cfg.ConcurrencyLimit,
	}).Info(`probe batch started`)

	pool := worker_pool.NewWorkerPool(ctx, s.cfg.ConcurrencyLimit, false, s.log)
	defer pool.Stop()

	var g errgroup.Group
	g.Go(func() error {
		defer pool.Close()
		for _, u := range urls {
			u := u
			err := pool.Submit(u, func(ctx context.Context) (any, error) {
				return s.probe(ctx, u), nil
			})
			if err != nil {
				s.log.WithError(err).Warn(`batch dispatch stopped`)
				return nil
			}
		}
		return nil
	})
	g.Go(func() error {
		done := 0
		for res := range pool.ResultsCh {
			outcome, ok := res.Result.(models.FetchOutcome)
			if !ok {
				detail := `no outcome`
				if res.Err != nil {
					detail = res.Err.Error()
				}
				outcome = models.FailedOutcome(res.ID, models.TransportErrorNote(detail), 0, s.now())
			}
			outcomes[res.ID] = outcome
			done++
			if progress != nil {
				progress(done, len(urls), outcome)
			}
		}
		return nil
	})
	_ = g.Wait()

	for _, u := range urls {
		if _, ok := outcomes[u]; !ok {
			outcomes[u] = models.CancelledOutcome(u, 0, s.now())
		}
	}

	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	s.log.WithFields(log.Fields{
		`urls`:     len(urls),
		`duration`: time.Since(start).String(),
	}).Info(`probe batch finished`)
	return outcomes
}

// probe paces, fetches and classifies a single URL.
func (s *Scheduler) probe(ctx context.Context, url string) models.FetchOutcome {
	if err := s.pace(ctx, url); err != nil {
		return models.CancelledOutcome(url, 0, s.now())
	}

	res := s.client.Fetch(ctx, url)
	outcome := s.toOutcome(ctx, url, res)
	metrics.ProbeOutcomesTotal.WithLabelValues(outcomeLabel(outcome)).Inc()

	s.log.WithFields(log.Fields{
		`url`:      url,
		`status`:   outcome.StatusCode,
		`final`:    outcome.FinalURL,
		`attempts`: outcome.Attempts,
		`note`:     outcome.Note,
	}).Debug(`probe finished`)
	return outcome
}

// pace delays a dispatch: by the shared limiter when a fixed inter-request
// delay is configured, otherwise by a jitter derived from the URL.
func (s *Scheduler) pace(ctx context.Context, url string) error {
	if s.limiter != nil {
		return s.limiter.Wait(ctx)
	}
	d := jitter(url, s.cfg.MaxJitter)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jitter maps url onto [0, limit) deterministically.
func jitter(url string, limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(url))
	return time.Duration(h.Sum64() % uint64(limit))
}

func (s *Scheduler) toOutcome(ctx context.Context, url string, res *models.FetchResult) models.FetchOutcome {
	now := s.now()
	if res == nil {
		return models.FailedOutcome(url, models.TransportErrorNote(`no result`), 0, now)
	}
	if res.Err != nil {
		if ctx.Err() != nil || errors.Is(res.Err, context.Canceled) {
			return models.CancelledOutcome(url, res.Attempts, now)
		}
		return models.FailedOutcome(url, models.TransportErrorNote(res.Err.Error()), res.Attempts, now)
	}

	cls := s.classifier.Classify(url, res.FinalURL, res.StatusCode, res.Body, res.ContentType)
	return models.FetchOutcome{
		URL:                  url,
		FinalURL:             res.FinalURL,
		StatusCode:           res.StatusCode,
		RedirectChain:        res.RedirectChain,
		SoftFailureSuspected: cls.SoftFailureSuspected,
		ErrorFlag:            cls.ErrorFlag,
		Note:                 cls.Note,
		Attempts:             res.Attempts,
		CheckedAt:            now,
	}
}

func outcomeLabel(o models.FetchOutcome) string {
	switch {
	case o.Note == models.NoteCancelled:
		return "cancelled"
	case o.StatusCode == models.StatusFailed:
		return "transport_error"
	case o.SoftFailureSuspected:
		return "soft_failure"
	case o.ErrorFlag:
		return "error_status"
	default:
		return "ok"
	}
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
