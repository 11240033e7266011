package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/http/middleware"
	"link_auditor/internal/pkg/errors"
	"link_auditor/internal/service"

	log "github.com/sirupsen/logrus"
)

const maxRequestBytes = 10 << 20

// Auditor is the audit coordinator as seen by the HTTP layer.
type Auditor interface {
	Run(ctx context.Context, table models.InputTable, progress service.ProgressFunc) (*models.Report, error)
	Status() service.Status
	Reset() error
	LastReport() *models.Report
	PurgeCache() int
}

type AuditHandler struct {
	service Auditor
	log     *log.Logger
}

// AuditRequest carries either a plain URL list or a table.
type AuditRequest struct {
	URLs    []string   `json:"urls,omitempty"`
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

type AuditResponse struct {
	State  service.State  `json:"state"`
	Error  string         `json:"error,omitempty"`
	Report *models.Report `json:"report"`
}

func (r *AuditRequest) Validate() error {
	if r.URLs == nil && r.Rows == nil {
		return errors.New("request has neither urls nor rows")
	}
	if r.URLs != nil && r.Rows != nil {
		return errors.New("request must not mix urls and rows")
	}
	return nil
}

func (r *AuditRequest) Table() models.InputTable {
	if r.URLs != nil {
		return models.TableFromURLs(r.URLs)
	}
	return models.InputTable{Columns: r.Columns, Rows: r.Rows}
}

func NewAuditHandler(service Auditor, log *log.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		log:     log,
	}
}

// Run handles POST /audit. The audit runs within the request; a batch that is
// cut short still answers with its full report and state "failed".
func (h *AuditHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.log.Debug(`audit handler called`)

	var request AuditRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&request); err != nil {
		h.log.WithError(err).Error(`failed to decode request body`)
		sendError(w, `failed to decode request body`, err, http.StatusBadRequest)
		return
	}

	if err := request.Validate(); err != nil {
		h.log.WithError(err).Error(`failed to validate request body`)
		sendError(w, `failed to validate request body`, err, http.StatusBadRequest)
		return
	}

	report, err := h.service.Run(r.Context(), request.Table(), nil)
	if errors.Is(err, service.ErrAuditRunning) {
		sendError(w, `an audit is already running`, err, http.StatusConflict)
		return
	}
	if report == nil {
		sendError(w, `failed to run audit`, err, http.StatusInternalServerError)
		return
	}

	state, errMsg := service.StateComplete, ""
	if err != nil {
		state, errMsg = service.StateFailed, err.Error()
	}
	h.log.WithFields(log.Fields{
		`request_id`: middleware.RequestID(r.Context()),
		`run_id`:     report.RunID,
		`state`:      state,
	}).Info(`audit request served`)
	h.writeReport(w, r, state, report, errMsg)
}

// Report handles GET /audit/report, the report of the last finished run.
func (h *AuditHandler) Report(w http.ResponseWriter, r *http.Request) {
	report := h.service.LastReport()
	if report == nil {
		sendError(w, `no finished audit`, errors.New(`no report available`), http.StatusNotFound)
		return
	}
	st := h.service.Status()
	h.writeReport(w, r, st.State, report, st.Error)
}

// Status handles GET /audit/status.
func (h *AuditHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, h.service.Status())
}

// Reset handles POST /audit/reset.
func (h *AuditHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(); err != nil {
		sendError(w, `cannot reset a running audit`, err, http.StatusConflict)
		return
	}
	writeJSON(w, h.log, http.StatusOK, h.service.Status())
}

// PurgeCache handles POST /audit/cache/purge.
func (h *AuditHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	n := h.service.PurgeCache()
	h.log.WithField(`purged`, n).Info(`cache purged`)
	writeJSON(w, h.log, http.StatusOK, map[string]int{`purged`: n})
}

func (h *AuditHandler) writeReport(w http.ResponseWriter, r *http.Request, state service.State, report *models.Report, errMsg string) {
	w.Header().Set(`X-Audit-State`, string(state))

	if wantsCSV(r) {
		w.Header().Set(`Content-Type`, `text/csv; charset=utf-8`)
		w.Header().Set(`Content-Disposition`, `attachment; filename="link-audit.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := service.WriteCSV(w, *report); err != nil {
			h.log.WithError(err).Error(`failed to write csv report`)
		}
		return
	}

	response := AuditResponse{State: state, Error: errMsg, Report: report}
	writeJSON(w, h.log, http.StatusOK, response)
}

func wantsCSV(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get(`format`), `csv`) {
		return true
	}
	return strings.Contains(r.Header.Get(`Accept`), `text/csv`)
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, code int, v any) {
	w.Header().Set(`Content-Type`, `application/json`)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error(`failed to encode response`)
	}
}
