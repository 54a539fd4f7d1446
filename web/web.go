// Package web provides the embedded chat UI and the SSR admin dashboard.
// All templates and static files are embedded in the binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/app"
	"github.com/hearthchat/hearth/domain/auth"
	"github.com/hearthchat/hearth/domain/partner"
	"github.com/hearthchat/hearth/domain/report"
)

//go:embed templates/* static/*
var assets embed.FS

// Handler provides the web UI endpoints.
type Handler struct {
	dashboard *template.Template
	reports   *app.ReportService
	gate      auth.Gate
	allowlist partner.Allowlist
	logger    zerolog.Logger
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Reports   *app.ReportService
	Gate      auth.Gate
	Allowlist partner.Allowlist
	Logger    zerolog.Logger
}

// NewHandler creates a new web UI handler.
func NewHandler(deps Deps) (*Handler, error) {
	tmpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"displayCode":   report.DisplayCode,
		"displayAccess": report.DisplayAccess,
		"maskUser":      maskUser,
		"add":           func(a, b int) int { return a + b },
		"sub":           func(a, b int) int { return a - b },
	}).ParseFS(assets, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		dashboard: tmpl,
		reports:   deps.Reports,
		gate:      deps.Gate,
		allowlist: deps.Allowlist,
		logger:    deps.Logger,
	}, nil
}

// Router returns the web UI router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	staticFS, _ := fs.Sub(assets, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/", h.ChatUI)
	r.Get("/p/{code}", h.PartnerLanding)
	r.Get("/admin", h.Dashboard)

	return r
}

// ChatUI serves the embedded chat frontend.
func (h *Handler) ChatUI(w http.ResponseWriter, r *http.Request) {
	h.serveChatPage(w)
}

// PartnerLanding serves the chat UI for a shareable partner link.
// Codes that are not valid for routing get a 404; validity here is
// stricter than attribution (DIRECT and permissive-mode codes never route).
func (h *Handler) PartnerLanding(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !partner.ValidForRouting(code, h.allowlist) {
		http.NotFound(w, r)
		return
	}
	h.serveChatPage(w)
}

func (h *Handler) serveChatPage(w http.ResponseWriter) {
	page, err := assets.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// maskUser shortens an anonymous user ID for display.
func maskUser(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10] + "…"
}
