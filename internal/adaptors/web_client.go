package adaptors

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/pkg/errors"
	"link_auditor/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// WebClientConfig controls transport mechanics of a probe.
type WebClientConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	MaxBackoff   time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string
}

func (c WebClientConfig) withDefaults() WebClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 10
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	return c
}

type WebClient struct {
	client *http.Client
	cfg    WebClientConfig
	log    *log.Logger
}

type chainKey struct{}

// chainRecorder collects redirect targets for one request.
type chainRecorder struct {
	urls []string
}

func NewWebClient(cfg WebClientConfig, log *log.Logger) *WebClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10

	rTripper := promhttp.InstrumentRoundTripperInFlight(metrics.HTTPClientInFlight,
		promhttp.InstrumentRoundTripperDuration(metrics.HTTPClientRequestDuration,
			promhttp.InstrumentRoundTripperCounter(metrics.HTTPClientRequestsTotal, transport)))

	return newWebClient(cfg, rTripper, log)
}

func newWebClient(cfg WebClientConfig, transport http.RoundTripper, log *log.Logger) *WebClient {
	cfg = cfg.withDefaults()
	w := &WebClient{
		cfg: cfg,
		log: log,
	}
	w.client = &http.Client{
		Timeout:       cfg.Timeout,
		Transport:     transport,
		CheckRedirect: w.checkRedirect,
	}
	return w
}

// checkRedirect records every hop. Past MaxRedirects the last 3xx response is
// returned as the terminal response instead of an error.
func (w *WebClient) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= w.cfg.MaxRedirects {
		return http.ErrUseLastResponse
	}
	if rec, ok := req.Context().Value(chainKey{}).(*chainRecorder); ok {
		rec.urls = append(rec.urls, req.URL.String())
	}
	return nil
}

// Fetch issues a GET following redirects, retrying transient failures with
// exponential backoff. It always returns a non-nil result.
func (w *WebClient) Fetch(ctx context.Context, url string) *models.FetchResult {
	maxAttempts := w.cfg.MaxRetries + 1

	for attempt := 1; ; attempt++ {
		res, err := w.fetchOnce(ctx, url)
		res.Attempts = attempt
		if err == nil {
			return res
		}

		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}

		if !errors.IsTransient(err) || attempt >= maxAttempts {
			var he *errors.HTTPError
			if errors.As(err, &he) {
				// a terminal status is still an answer
				return res
			}
			res.Err = err
			return res
		}

		delay := w.backoff(attempt, res)
		metrics.ProbeRetriesTotal.Inc()
		w.log.WithFields(log.Fields{
			`url`:     url,
			`attempt`: attempt,
			`delay`:   delay.String(),
		}).WithError(err).Warn(`probe failed, retrying`)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.Err = ctx.Err()
			return res
		case <-timer.C:
		}
	}
}

func (w *WebClient) fetchOnce(ctx context.Context, url string) (*models.FetchResult, error) {
	res := &models.FetchResult{
		URL:           url,
		FinalURL:      models.FinalURLFailed,
		StatusCode:    models.StatusFailed,
		RedirectChain: []string{url},
	}

	rec := &chainRecorder{}
	req, err := http.NewRequestWithContext(context.WithValue(ctx, chainKey{}, rec), http.MethodGet, url, nil)
	if err != nil {
		return res, &errors.TransportError{Err: err, Permanent: true}
	}

	// Set headers to mimic a browser
	req.Header.Set("User-Agent", w.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := w.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, errors.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.FinalURL = finalURL(resp, url, rec.urls)
	res.RedirectChain = buildChain(url, rec.urls, res.FinalURL)
	res.ContentType = resp.Header.Get("Content-Type")

	if errors.IsTransientStatus(resp.StatusCode) {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			res.RetryAfter = time.Duration(secs) * time.Second
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, w.cfg.MaxBodyBytes))
		return res, &errors.HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.cfg.MaxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, errors.ClassifyTransport(err)
	}
	res.Body = body

	return res, nil
}

// backoff doubles from BackoffBase per attempt. A Retry-After header on a
// 429/5xx raises the delay, bounded by MaxBackoff. Only the delta-seconds form
// of Retry-After is honoured; HTTP-date values are ignored.
func (w *WebClient) backoff(attempt int, res *models.FetchResult) time.Duration {
	delay := time.Duration(float64(w.cfg.BackoffBase) * math.Pow(2, float64(attempt-1)))
	if res != nil && res.RetryAfter > delay {
		delay = res.RetryAfter
	}
	if delay > w.cfg.MaxBackoff {
		delay = w.cfg.MaxBackoff
	}
	return delay
}

// finalURL prefers the request attached to the response; transports are not
// required to set it.
func finalURL(resp *http.Response, original string, hops []string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	if len(hops) > 0 {
		return hops[len(hops)-1]
	}
	return original
}

// buildChain returns [original] + hops + [final], final included once.
func buildChain(original string, hops []string, final string) []string {
	chain := make([]string, 0, len(hops)+2)
	chain = append(chain, original)
	chain = append(chain, hops...)
	if len(hops) == 0 || hops[len(hops)-1] != final {
		chain = append(chain, final)
	}
	return chain
}
