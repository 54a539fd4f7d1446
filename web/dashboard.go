package web

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hearthchat/hearth/app"
	"github.com/hearthchat/hearth/domain/report"
)

// dashboardData feeds the dashboard template. Charts arrive pre-rendered
// as SVG so the page needs no client-side scripting.
type dashboardData struct {
	Token   string
	Filters filterForm
	Cards   report.Cards

	Groups     []report.Group
	GroupsPage report.Page

	Users     []report.UserActivity
	UsersPage report.Page

	Timeseries  []report.TimeseriesPoint
	DAUChart    template.HTML
	VolumeChart template.HTML

	ExportURL string
	Error     string
}

type filterForm struct {
	PartnerCode string
	AccessType  string
	DateFrom    string
	DateTo      string
}

// Dashboard handles GET /admin. The page is gated with the same shared
// secret as the JSON API; an unauthorized request gets the token prompt
// rather than a bare 401 body.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")

	if !h.gate.Authorize(token) {
		h.render(w, http.StatusUnauthorized, "login", nil)
		return
	}

	f, err := app.ParseFilter(q)
	data := dashboardData{
		Token: token,
		Filters: filterForm{
			PartnerCode: q.Get("partner_code"),
			AccessType:  q.Get("access_type"),
			DateFrom:    q.Get("date_from"),
			DateTo:      q.Get("date_to"),
		},
	}
	if err != nil {
		data.Error = "Invalid date filter. Use YYYY-MM-DD."
		h.render(w, http.StatusOK, "dashboard", data)
		return
	}

	ctx := r.Context()

	sum, err := h.reports.Summary(ctx, f)
	if err != nil {
		h.renderError(w, data)
		return
	}
	points, err := h.reports.Timeseries(ctx, f)
	if err != nil {
		h.renderError(w, data)
		return
	}
	users, err := h.reports.Users(ctx, f)
	if err != nil {
		h.renderError(w, data)
		return
	}

	data.Cards = sum.Cards
	data.Timeseries = points

	// Both tables paginate independently. A new filter submission carries
	// no page params, so both snap back to page 1.
	gp := report.Paginate(len(sum.Groups), atoiDefault(q.Get("summary_page"), 1), report.DashboardPageSize)
	data.Groups = sum.Groups[gp.Start:gp.End]
	data.GroupsPage = gp

	up := report.Paginate(len(users), atoiDefault(q.Get("users_page"), 1), report.DashboardPageSize)
	data.Users = users[up.Start:up.End]
	data.UsersPage = up

	labels := make([]string, len(points))
	dau := make([]int64, len(points))
	volume := make([]int64, len(points))
	for i, p := range points {
		labels[i] = p.Day
		dau[i] = p.DAU
		volume[i] = p.Messages
	}
	data.DAUChart = template.HTML(report.LineChartSVG(labels, dau))
	data.VolumeChart = template.HTML(report.LineChartSVG(labels, volume))

	data.ExportURL = "/api/admin/export?" + exportQuery(token, data.Filters)

	h.render(w, http.StatusOK, "dashboard", data)
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.dashboard.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("dashboard render failed")
	}
}

func (h *Handler) renderError(w http.ResponseWriter, data dashboardData) {
	data.Error = "Reporting is temporarily unavailable."
	h.render(w, http.StatusInternalServerError, "dashboard", data)
}

// PageURL rebuilds the dashboard URL with one page parameter replaced,
// keeping the token, the filters, and the other table's page intact.
func (d dashboardData) PageURL(param string, page int) string {
	q := url.Values{}
	if d.Token != "" {
		q.Set("token", d.Token)
	}
	if d.Filters.PartnerCode != "" {
		q.Set("partner_code", d.Filters.PartnerCode)
	}
	if d.Filters.AccessType != "" {
		q.Set("access_type", d.Filters.AccessType)
	}
	if d.Filters.DateFrom != "" {
		q.Set("date_from", d.Filters.DateFrom)
	}
	if d.Filters.DateTo != "" {
		q.Set("date_to", d.Filters.DateTo)
	}
	if param != "summary_page" && d.GroupsPage.Page > 1 {
		q.Set("summary_page", strconv.Itoa(d.GroupsPage.Page))
	}
	if param != "users_page" && d.UsersPage.Page > 1 {
		q.Set("users_page", strconv.Itoa(d.UsersPage.Page))
	}
	q.Set(param, strconv.Itoa(page))
	return "/admin?" + q.Encode()
}

func exportQuery(token string, f filterForm) string {
	q := url.Values{}
	if token != "" {
		q.Set("token", token)
	}
	if f.PartnerCode != "" {
		q.Set("partner_code", f.PartnerCode)
	}
	if f.AccessType != "" {
		q.Set("access_type", f.AccessType)
	}
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	return q.Encode()
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
