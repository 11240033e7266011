package service

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"link_auditor/internal/domain/models"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

// MockWebClient is a mock implementation of the WebClient interface
type MockWebClient struct {
	mock.Mock
}

func (m *MockWebClient) Fetch(ctx context.Context, url string) *models.FetchResult {
	args := m.Called(ctx, url)
	return args.Get(0).(*models.FetchResult)
}

// fakeWebClient answers from a function and records call counts and the peak
// number of concurrent fetches.
type fakeWebClient struct {
	mu       sync.Mutex
	calls    map[string]int
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	respond  func(url string) *models.FetchResult
}

func newFakeWebClient(respond func(url string) *models.FetchResult) *fakeWebClient {
	if respond == nil {
		respond = okResult
	}
	return &fakeWebClient{calls: make(map[string]int), respond: respond}
}

func (f *fakeWebClient) Fetch(ctx context.Context, url string) *models.FetchResult {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return &models.FetchResult{URL: url, Attempts: 1, Err: ctx.Err()}
		case <-time.After(f.delay):
		}
	}
	return f.respond(url)
}

func (f *fakeWebClient) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeWebClient) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func okResult(url string) *models.FetchResult {
	return &models.FetchResult{
		URL:           url,
		FinalURL:      url,
		StatusCode:    200,
		RedirectChain: []string{url, url},
		Body:          []byte(`<html><body><p>Welcome</p></body></html>`),
		ContentType:   "text/html; charset=utf-8",
		Attempts:      1,
	}
}

func newTestScheduler(client *fakeWebClient, limit int) *Scheduler {
	return NewScheduler(client, NewClassifier(DefaultClassifierConfig()), SchedulerConfig{
		ConcurrencyLimit: limit,
	}, testLogger())
}
