package http

import (
	"context"

	"salespulse/internal/chart"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// DashboardServiceInterface is the part of the dashboard service the
// handlers need.
type DashboardServiceInterface interface {
	ProcessBatch(ctx context.Context, uploads []services.Upload) (domain.BatchResult, error)
	RenderChart(ctx context.Context, kind chart.Kind, format chart.Format) (*chart.Instance, error)
	ChartSpec(kind chart.Kind) (chart.Spec, error)
	SelectedKind() chart.Kind
	Snapshot() domain.DashboardSnapshot
	Records() ([]domain.FlatRecord, error)
	Table() (domain.SummaryTable, error)
	State() domain.DashboardState
}
