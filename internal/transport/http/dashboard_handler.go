package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"salespulse/internal/chart"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/services"
)

// ChartQuery holds the query parameters of the chart endpoints.
type ChartQuery struct {
	Kind   string `query:"kind" validate:"omitempty,oneof=bar line pie doughnut"`
	Format string `query:"format" validate:"omitempty,oneof=svg png"`
}

// DashboardHandler serves the dashboard state, charts and exports.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("query")
	})

	return &DashboardHandler{
		service:      service,
		validate:     v,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes mounts under /api.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/dashboard", h.GetDashboard)
	r.Get("/chart", h.GetChart)
	r.Get("/chart/spec", h.GetChartSpec)
	r.Route("/export", func(r chi.Router) {
		r.Get("/"+exporter.MonthlyFileName, h.ExportMonthly)
		r.Get("/"+exporter.RecordsFileName, h.ExportRecords)
	})

	return r
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Snapshot())
}

// GetChart handles GET /api/chart. It writes the image itself, not JSON.
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseChartQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	kind := chart.Kind(query.Kind)
	if kind == "" {
		kind = h.service.SelectedKind()
	}
	format, err := chart.ParseFormat(query.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	instance, err := h.service.RenderChart(r.Context(), kind, format)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapChartError(kind, err))
		return
	}

	w.Header().Set("Content-Type", instance.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Chart-ID", instance.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(instance.Image); err != nil {
		h.logger.WarnContext(r.Context(), "chart write failed", slog.String("error", err.Error()))
	}
}

// GetChartSpec handles GET /api/chart/spec
func (h *DashboardHandler) GetChartSpec(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseChartQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	kind := chart.Kind(query.Kind)
	if kind == "" {
		kind = h.service.SelectedKind()
	}

	spec, err := h.service.ChartSpec(kind)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapChartError(kind, err))
		return
	}
	render.JSON(w, r, spec)
}

// ExportMonthly handles GET /api/export/monthly.csv
func (h *DashboardHandler) ExportMonthly(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Table()
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapDatasetError(err))
		return
	}
	h.writeCSV(w, r, exporter.MonthlyFileName, exporter.MonthlyOptions(table))
}

// ExportRecords handles GET /api/export/records.csv
func (h *DashboardHandler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Records()
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapDatasetError(err))
		return
	}
	h.writeCSV(w, r, exporter.RecordsFileName, exporter.RecordOptions(records))
}

func (h *DashboardHandler) writeCSV(w http.ResponseWriter, r *http.Request, name string, opts exporter.WriteOptions) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(name)))
	if err := exporter.WriteCSV(w, opts); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}

func (h *DashboardHandler) parseChartQuery(r *http.Request) (ChartQuery, error) {
	q := r.URL.Query()
	query := ChartQuery{
		Kind:   strings.ToLower(strings.TrimSpace(q.Get("kind"))),
		Format: strings.ToLower(strings.TrimSpace(q.Get("format"))),
	}

	if err := h.validate.Struct(query); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return query, apierrors.InvalidRequestWithError(err)
		}
		fields := make([]apierrors.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("must be one of: %s", fe.Param()),
			})
		}
		if len(fields) == 1 && fields[0].Field == "kind" {
			return query, apierrors.ErrInvalidChartKind
		}
		return query, apierrors.NewValidationErrors(fields)
	}
	return query, nil
}

func (h *DashboardHandler) mapChartError(kind chart.Kind, err error) error {
	switch {
	case errors.Is(err, services.ErrNoDataset), errors.Is(err, chart.ErrNoData):
		return apierrors.ErrNoDataset
	case errors.Is(err, chart.ErrUnknownKind):
		return apierrors.ErrInvalidChartKind
	default:
		return apierrors.ChartRenderError(string(kind), err)
	}
}

func (h *DashboardHandler) mapDatasetError(err error) error {
	if errors.Is(err, services.ErrNoDataset) {
		return apierrors.ErrNoDataset
	}
	return err
}
