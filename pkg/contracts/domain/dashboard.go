package domain

import "time"

// DashboardState is the lifecycle state of the dashboard.
type DashboardState string

const (
	StateIdle       DashboardState = "idle"
	StateProcessing DashboardState = "processing"
	StateRendered   DashboardState = "rendered"
	StateError      DashboardState = "error"
)

// FileErrorKind classifies why a file was excluded from a batch.
type FileErrorKind string

const (
	FileErrorMonthKey   FileErrorKind = "month_key"
	FileErrorParse      FileErrorKind = "parse"
	FileErrorValidation FileErrorKind = "validation"
)

// FileOutcome reports what happened to one file of a batch.
type FileOutcome struct {
	Name      string        `json:"name"`
	Succeeded bool          `json:"succeeded"`
	Sheets    int           `json:"sheets"`
	Records   int           `json:"records"`
	MonthKeys []string      `json:"month_keys,omitempty"`
	ErrorKind FileErrorKind `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// BatchResult is the outcome of one upload batch.
type BatchResult struct {
	BatchID     string         `json:"batch_id"`
	State       DashboardState `json:"state"`
	Status      string         `json:"status"`
	Error       string         `json:"error,omitempty"`
	Files       []FileOutcome  `json:"files"`
	FileCount   int            `json:"file_count"`
	Succeeded   int            `json:"succeeded"`
	RecordCount int            `json:"record_count"`
	Duration    time.Duration  `json:"duration"`
}

// Status event types.
const (
	EventConnection = "connection"
	EventStatus     = "status"
	EventChart      = "chart"
)

// StatusEvent is pushed to connected pages whenever the dashboard state changes.
type StatusEvent struct {
	Type      string         `json:"type"`
	State     DashboardState `json:"state"`
	Message   string         `json:"message"`
	Error     string         `json:"error,omitempty"`
	Files     int            `json:"files,omitempty"`
	Succeeded int            `json:"succeeded,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// DashboardSnapshot is the read-only view of the dashboard served to pages.
type DashboardSnapshot struct {
	State         DashboardState    `json:"state"`
	Status        string            `json:"status"`
	Error         string            `json:"error,omitempty"`
	ChartKind     string            `json:"chart_kind"`
	ChartVersion  int64             `json:"chart_version"`
	Months        []string          `json:"months"`
	Subcategories []string          `json:"subcategories"`
	Colors        map[string]string `json:"colors,omitempty"`
	Table         SummaryTable      `json:"table"`
	LastBatch     *BatchResult      `json:"last_batch,omitempty"`
}
