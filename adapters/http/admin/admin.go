// Package admin provides HTTP handlers for the admin reporting API.
package admin

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/adapters/metrics"
	"github.com/hearthchat/hearth/app"
	"github.com/hearthchat/hearth/domain/auth"
	"github.com/hearthchat/hearth/domain/report"
	"github.com/hearthchat/hearth/ports"
)

// TokenHeader carries the admin shared secret.
const TokenHeader = "x-admin-token"

// Handler provides the admin reporting endpoints.
type Handler struct {
	reports *app.ReportService
	gate    auth.Gate
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// Deps contains dependencies for the admin handler.
type Deps struct {
	Reports *app.ReportService
	Gate    auth.Gate
	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// NewHandler creates a new admin API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		reports: deps.Reports,
		gate:    deps.Gate,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
}

// Router returns the admin API router. Every endpoint sits behind the
// access gate.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(h.GateMiddleware)

	r.Get("/summary", h.Summary)
	r.Get("/timeseries", h.Timeseries)
	r.Get("/users", h.Users)
	r.Get("/export", h.Export)

	return r
}

// GateMiddleware authorizes requests against the admin gate. The token is
// accepted from the x-admin-token header, the token query parameter, or a
// token body field, in that priority order.
func (h *Handler) GateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.gate.Authorize(extractToken(r)) {
			if h.metrics != nil {
				h.metrics.AuthFailures.Inc()
			}
			writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken pulls the presented secret from the request. Body lookup
// replaces the consumed body so downstream handlers stay unaffected.
func extractToken(r *http.Request) string {
	if t := r.Header.Get(TokenHeader); t != "" {
		return t
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Token
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

type filterEcho struct {
	PartnerCode string `json:"partner_code,omitempty"`
	AccessType  string `json:"access_type,omitempty"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
}

func echoFilter(f report.Filter) filterEcho {
	e := filterEcho{
		PartnerCode: f.PartnerCode,
		AccessType:  f.AccessType,
	}
	if f.HasDateFrom() {
		e.DateFrom = f.DateFrom.Format(report.DateFormat)
	}
	if f.HasDateTo() {
		e.DateTo = f.DateTo.Format(report.DateFormat)
	}
	return e
}

// Summary handles GET /api/admin/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	sum, err := h.reports.Summary(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"filters": echoFilter(f),
		"cards":   sum.Cards,
		"summary": sum.Groups,
	})
}

// Timeseries handles GET /api/admin/timeseries.
func (h *Handler) Timeseries(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	points, err := h.reports.Timeseries(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "timeseries": points})
}

// Users handles GET /api/admin/users.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	users, err := h.reports.Users(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "users": users})
}

// Export handles GET /api/admin/export, returning a CSV attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	csv, err := h.reports.ExportCSV(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="usage_summary.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(csv)
}

func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (report.Filter, bool) {
	f, err := app.ParseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return report.Filter{}, false
	}
	return f, true
}

// writeError maps service failures to HTTP. Aggregation reads are not
// retried; storage detail stays in the server logs and callers get a
// generic body.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if !errors.Is(err, ports.ErrStorage) {
		h.logger.Error().Err(err).Msg("unexpected admin failure")
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
