package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"salespulse/internal/chart"
	"salespulse/pkg/contracts/domain"
)

// IndexTemplate is the dashboard page inside the web filesystem.
const IndexTemplate = "templates/index.html"

// PageData feeds the dashboard page template.
type PageData struct {
	Title     string
	Version   string
	MaxFiles  int
	Accept    string
	Kinds     []chart.Kind
	Snapshot  domain.DashboardSnapshot
	HasChart  bool
	ChartURL  string
	ExportURL string
}

// PageHandler renders the dashboard page.
type PageHandler struct {
	service  DashboardServiceInterface
	tmpl     *template.Template
	version  string
	maxFiles int
	logger   *slog.Logger
}

// NewPageHandler parses the page template from webFS.
func NewPageHandler(service DashboardServiceInterface, webFS fs.FS, version string, maxFiles int, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(webFS, IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &PageHandler{
		service:  service,
		tmpl:     tmpl,
		version:  version,
		maxFiles: maxFiles,
		logger:   logger.With(slog.String("component", "page_handler")),
	}, nil
}

// ServeIndex handles GET /
func (h *PageHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Snapshot()
	data := PageData{
		Title:     "Sales Dashboard",
		Version:   h.version,
		MaxFiles:  h.maxFiles,
		Accept:    ".xlsx,.xlsm,.xls,.csv",
		Kinds:     chart.Kinds,
		Snapshot:  snap,
		HasChart:  snap.State == domain.StateRendered,
		ChartURL:  fmt.Sprintf("/api/chart?kind=%s&v=%d", snap.ChartKind, snap.ChartVersion),
		ExportURL: "/api/export/",
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "page render failed", slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}
