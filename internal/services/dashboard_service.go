package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/chart"
	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts/domain"
)

// User-facing status texts.
const (
	StatusIdle         = "Select one or more spreadsheet files to start."
	StatusProcessing   = "Processing %d file(s)..."
	StatusSucceeded    = "Upload and consolidation of %d of %d file(s) succeeded"
	StatusNoData       = "No valid data found after consolidation"
	NoDataFormatHint   = "Check that the files use the expected pivot layout and contain numeric values."
	ChartRenderFailed  = "The %s chart could not be drawn: %v"
	chartSwitchedEvent = "Chart switched to %s"
)

// Upload is one file of a batch. Err carries a problem found before the
// content could be read (for instance a truncated multipart part).
type Upload struct {
	Name string
	Data []byte
	Err  error
}

// StatusPublisher receives every dashboard state transition.
type StatusPublisher interface {
	Publish(ctx context.Context, event domain.StatusEvent)
}

// DashboardOptions configures a DashboardService.
type DashboardOptions struct {
	Processor          dataprocessing.ProcessorOptions
	MaxConcurrentFiles int
	MaxFileBytes       int64
	Locale             string
	DefaultKind        chart.Kind
	ChartWidth         int
	ChartHeight        int
	Palette            []string
}

// DashboardOptionsFromConfig maps the upload and dashboard sections.
func DashboardOptionsFromConfig(cfg *config.Config) DashboardOptions {
	return DashboardOptions{
		Processor: dataprocessing.ProcessorOptions{
			MonthKeySource: cfg.Dashboard.MonthKeySource,
			FirstSheetOnly: cfg.Dashboard.FirstSheetOnly,
			Normalize: dataprocessing.NormalizeOptions{
				SingleHeaderRow: !cfg.Dashboard.CategoryRow,
				AllowTextPeriod: !cfg.Dashboard.RequireNumericPeriod,
			},
		},
		MaxConcurrentFiles: cfg.Upload.MaxConcurrentFiles,
		MaxFileBytes:       cfg.Upload.MaxBytes,
		Locale:             cfg.Dashboard.Locale,
		DefaultKind:        chart.Kind(cfg.Dashboard.DefaultChart),
		ChartWidth:         cfg.Dashboard.ChartWidth,
		ChartHeight:        cfg.Dashboard.ChartHeight,
	}
}

// DashboardService owns the dashboard state: the last consolidated dataset,
// the chart canvas and the status texts. Batches run one at a time; reads
// are safe from any goroutine.
type DashboardService struct {
	processor *dataprocessing.FileProcessor
	validator *validation.FileValidator
	formatter dataprocessing.NumberFormatter
	canvas    *chart.Canvas
	palette   []string
	limit     int
	source    string

	publisher StatusPublisher
	metrics   *infrastructure.DashboardMetrics
	tracer    trace.Tracer
	logger    *slog.Logger

	// run serializes batches.
	run chan struct{}

	mu           sync.RWMutex
	state        domain.DashboardState
	status       string
	errMsg       string
	kind         chart.Kind
	records      []domain.FlatRecord
	aggregate    *domain.Aggregate
	table        domain.SummaryTable
	chartVersion int64
	lastBatch    *domain.BatchResult
}

// NewDashboardService creates an idle dashboard. publisher and metrics may be
// nil.
func NewDashboardService(opts DashboardOptions, publisher StatusPublisher, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) (*DashboardService, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if opts.Locale == "" {
		opts.Locale = "pt-BR"
	}
	formatter, err := dataprocessing.NewLocaleFormatter(opts.Locale)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid dashboard locale", err)
	}

	kind := chart.KindBar
	if opts.DefaultKind != "" {
		if kind, err = chart.ParseKind(string(opts.DefaultKind)); err != nil {
			return nil, apperrors.NewConfigError("invalid default chart", err)
		}
	}
	if opts.MaxConcurrentFiles <= 0 {
		opts.MaxConcurrentFiles = 4
	}
	if opts.Processor.MonthKeySource == "" {
		opts.Processor.MonthKeySource = dataprocessing.MonthKeyAuto
	}

	return &DashboardService{
		processor: dataprocessing.NewFileProcessor(opts.Processor, logger),
		validator: validation.NewFileValidator(opts.MaxFileBytes, logger),
		formatter: formatter,
		canvas:    chart.NewCanvas(chart.NewRenderer(opts.ChartWidth, opts.ChartHeight)),
		palette:   opts.Palette,
		limit:     opts.MaxConcurrentFiles,
		source:    opts.Processor.MonthKeySource,
		publisher: publisher,
		metrics:   metrics,
		tracer:    otel.Tracer("salespulse/services"),
		logger:    logger.With(slog.String("component", "dashboard_service")),
		run:       make(chan struct{}, 1),
		state:     domain.StateIdle,
		status:    StatusIdle,
		kind:      kind,
		table:     dataprocessing.BuildTable(nil, formatter),
	}, nil
}

// ProcessBatch parses every upload concurrently, waits for all of them and
// replaces the dataset with the merged result. A failing file never stops
// the others; it is reported in the result and left out of the dataset.
// Only an empty batch or a cancelled wait for a running batch return an
// error.
func (s *DashboardService) ProcessBatch(ctx context.Context, uploads []Upload) (domain.BatchResult, error) {
	if len(uploads) == 0 {
		return domain.BatchResult{}, ErrNoUploads
	}

	select {
	case s.run <- struct{}{}:
	case <-ctx.Done():
		return domain.BatchResult{}, ctx.Err()
	}
	defer func() { <-s.run }()

	batchID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "dashboard.ProcessBatch",
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.Int("batch.files", len(uploads)),
		))
	defer span.End()

	ctx = infrastructure.WithBatchID(ctx, batchID)
	start := time.Now()

	s.transition(ctx, domain.StateProcessing, fmt.Sprintf(StatusProcessing, len(uploads)), "", len(uploads), 0)
	s.logger.InfoContext(ctx, "batch started", slog.Int("files", len(uploads)))

	results := make([]dataprocessing.FileResult, len(uploads))
	var g errgroup.Group
	g.SetLimit(s.limit)
	for i, upload := range uploads {
		i, upload := i, upload
		g.Go(func() error {
			results[i] = s.processUpload(ctx, upload)
			return nil
		})
	}
	_ = g.Wait()

	result := domain.BatchResult{
		BatchID:   batchID,
		Files:     make([]domain.FileOutcome, 0, len(results)),
		FileCount: len(uploads),
	}
	var records []domain.FlatRecord
	var lastErr string
	for _, r := range results {
		result.Files = append(result.Files, r.Outcome())
		if !r.Succeeded() {
			lastErr = r.Message
			continue
		}
		result.Succeeded++
		for _, rec := range r.Records {
			if rec.Quantity > 0 {
				records = append(records, rec)
			}
		}
	}
	result.RecordCount = len(records)

	agg := dataprocessing.Aggregate(records, s.palette)
	if agg.Empty() {
		result.State = domain.StateError
		result.Status = StatusNoData
		result.Error = lastErr
		if result.Error == "" {
			result.Error = NoDataFormatHint
		}
	} else {
		result.State = domain.StateRendered
		result.Status = fmt.Sprintf(StatusSucceeded, result.Succeeded, result.FileCount)
	}
	result.Duration = time.Since(start)

	result = s.commit(ctx, result, records, agg)

	s.metrics.RecordBatch(ctx, string(result.State), result.Duration)
	span.SetAttributes(
		attribute.Int("batch.succeeded", result.Succeeded),
		attribute.Int("batch.records", result.RecordCount),
		attribute.String("batch.state", string(result.State)))
	s.logger.InfoContext(ctx, "batch completed",
		slog.String("state", string(result.State)),
		slog.Int("files", result.FileCount),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("records", result.RecordCount),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func (s *DashboardService) processUpload(ctx context.Context, upload Upload) dataprocessing.FileResult {
	var result dataprocessing.FileResult

	err := upload.Err
	if err == nil {
		err = s.validator.ValidateUpload(upload.Name, int64(len(upload.Data)))
	}
	if err != nil {
		result = dataprocessing.FileResult{
			Name:      upload.Name,
			ErrorKind: domain.FileErrorValidation,
			Err:       err,
			Message:   dataprocessing.UserMessage(upload.Name, domain.FileErrorValidation, s.source) + " " + rejectionReason(err),
		}
		infrastructure.RecordError(ctx, err)
	} else {
		result = s.processor.Process(ctx, upload.Name, upload.Data)
	}

	outcome := "succeeded"
	if !result.Succeeded() {
		outcome = string(result.ErrorKind)
	}
	s.metrics.RecordFile(ctx, outcome, len(result.Records))
	return result
}

// commit replaces the dashboard state with the outcome of a batch. A batch
// without data clears the previous dataset and chart.
// The dataset and table survive a chart render failure; the failure is
// reported in the returned result's Error.
func (s *DashboardService) commit(ctx context.Context, result domain.BatchResult, records []domain.FlatRecord, agg *domain.Aggregate) domain.BatchResult {
	s.mu.Lock()
	if result.State == domain.StateRendered {
		s.records = records
		s.aggregate = agg
		s.table = dataprocessing.BuildTable(agg, s.formatter)
		if _, err := s.drawLocked(ctx, s.kind, chart.FormatSVG); err != nil {
			result.Error = fmt.Sprintf(ChartRenderFailed, s.kind, err)
		}
	} else {
		s.records = nil
		s.aggregate = nil
		s.table = dataprocessing.BuildTable(nil, s.formatter)
		s.canvas.Dispose()
	}
	s.lastBatch = &result
	s.mu.Unlock()

	s.transition(ctx, result.State, result.Status, result.Error, result.FileCount, result.Succeeded)
	return result
}

// drawLocked renders the cached aggregate. Callers hold s.mu.
func (s *DashboardService) drawLocked(ctx context.Context, kind chart.Kind, format chart.Format) (*chart.Instance, error) {
	spec, err := chart.BuildSpec(s.aggregate, kind)
	if err != nil {
		return nil, err
	}
	instance, err := s.canvas.Draw(spec, format)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "chart render failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return nil, err
	}
	s.chartVersion++
	s.metrics.RecordChartRender(ctx, string(kind), string(format))
	return instance, nil
}

// RenderChart returns the chart of the cached aggregate for kind, drawing it
// only when the live chart differs. The kind becomes the selected one.
func (s *DashboardService) RenderChart(ctx context.Context, kind chart.Kind, format chart.Format) (*chart.Instance, error) {
	kind, err := chart.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.aggregate.Empty() {
		s.mu.Unlock()
		return nil, ErrNoDataset
	}

	if current := s.canvas.Current(); current != nil && current.Spec.Kind == kind && current.Format == format {
		s.mu.Unlock()
		return current, nil
	}

	switched := kind != s.kind
	s.kind = kind
	instance, err := s.drawLocked(ctx, kind, format)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if switched && s.publisher != nil {
		s.publisher.Publish(ctx, domain.StatusEvent{
			Type:    domain.EventChart,
			State:   domain.StateRendered,
			Message: fmt.Sprintf(chartSwitchedEvent, kind),
		})
	}
	return instance, nil
}

// ChartSpec describes the chart of the cached aggregate without drawing it.
func (s *DashboardService) ChartSpec(kind chart.Kind) (chart.Spec, error) {
	kind, err := chart.ParseKind(string(kind))
	if err != nil {
		return chart.Spec{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.aggregate.Empty() {
		return chart.Spec{}, ErrNoDataset
	}
	return chart.BuildSpec(s.aggregate, kind)
}

// SelectedKind returns the chart kind pages should show.
func (s *DashboardService) SelectedKind() chart.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kind
}

// Snapshot returns a copy of the current dashboard state.
func (s *DashboardService) Snapshot() domain.DashboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.DashboardSnapshot{
		State:         s.state,
		Status:        s.status,
		Error:         s.errMsg,
		ChartKind:     string(s.kind),
		ChartVersion:  s.chartVersion,
		Months:        []string{},
		Subcategories: []string{},
		Table:         s.table,
	}
	if s.aggregate != nil {
		snap.Months = append(snap.Months, s.aggregate.Months...)
		snap.Subcategories = append(snap.Subcategories, s.aggregate.Subcategories...)
		snap.Colors = make(map[string]string, len(s.aggregate.Colors))
		for k, v := range s.aggregate.Colors {
			snap.Colors[k] = v
		}
	}
	if s.lastBatch != nil {
		batch := *s.lastBatch
		snap.LastBatch = &batch
	}
	return snap
}

// Records returns the flat records of the current dataset.
func (s *DashboardService) Records() ([]domain.FlatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.aggregate.Empty() {
		return nil, ErrNoDataset
	}
	return append([]domain.FlatRecord(nil), s.records...), nil
}

// Table returns the monthly totals table of the current dataset.
func (s *DashboardService) Table() (domain.SummaryTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.aggregate.Empty() {
		return domain.SummaryTable{}, ErrNoDataset
	}
	return s.table, nil
}

// State returns the current lifecycle state.
func (s *DashboardService) State() domain.DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *DashboardService) transition(ctx context.Context, state domain.DashboardState, status, errMsg string, files, succeeded int) {
	s.mu.Lock()
	s.state = state
	s.status = status
	s.errMsg = errMsg
	s.mu.Unlock()

	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, domain.StatusEvent{
		Type:      domain.EventStatus,
		State:     state,
		Message:   status,
		Error:     errMsg,
		Files:     files,
		Succeeded: succeeded,
		Timestamp: time.Now(),
	})
}

// rejectionReason is the innermost cause of a validation error.
func rejectionReason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		err = appErr.Cause
	}
	msg := err.Error()
	if msg == "" {
		return ""
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
