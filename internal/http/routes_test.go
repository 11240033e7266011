package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/service"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuditor echoes the input table back as a report of unchecked URLs.
type stubAuditor struct {
	runs int
}

func (s *stubAuditor) Run(_ context.Context, table models.InputTable, _ service.ProgressFunc) (*models.Report, error) {
	s.runs++
	occs, _ := service.Occurrences(table)
	report := service.Assemble(table, occs, nil)
	return &report, nil
}

func (s *stubAuditor) Status() service.Status { return service.Status{State: service.StateIdle} }

func (s *stubAuditor) Reset() error { return nil }

func (s *stubAuditor) LastReport() *models.Report { return nil }

func (s *stubAuditor) PurgeCache() int { return 0 }

func TestRoutes(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	auditor := &stubAuditor{}
	router := NewRouter(context.Background(), logger, auditor)

	srv := httptest.NewServer(router.httpRouter)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("x-request-id"))

	resp, err = http.Post(srv.URL+"/audit?format=csv", "application/json", strings.NewReader(`{"urls":["example.com"]}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "https://example.com")
	assert.Contains(t, string(body), models.NoteNotChecked)
	assert.Equal(t, 1, auditor.runs)

	resp, err = http.Get(srv.URL + "/audit/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/audit/report")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/audit/reset")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsServer_ServesRegistry(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	srv := NewMetricsServer(":0", time.Second, logger)

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "link_audit_probe_retries_total")
	assert.Contains(t, rec.Body.String(), "http_client_requests_in_flight")
}
