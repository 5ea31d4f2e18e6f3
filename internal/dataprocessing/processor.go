package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// Month key sources.
const (
	MonthKeyFromFilename = "filename"
	MonthKeyFromSheet    = "sheet"
	MonthKeyAuto         = "auto"
)

// genericUploadName marks downloads that were never renamed.
const genericUploadName = "venda.xlsx"

// ProcessorOptions configures how a file is turned into records.
type ProcessorOptions struct {
	// MonthKeySource is filename, sheet or auto (sheet name, then file name).
	MonthKeySource string
	// FirstSheetOnly ignores every sheet but the first.
	FirstSheetOnly bool
	Normalize      NormalizeOptions
}

// DefaultProcessorOptions reads every sheet and resolves the month key from
// the sheet name first.
func DefaultProcessorOptions() ProcessorOptions {
	return ProcessorOptions{
		MonthKeySource: MonthKeyAuto,
		Normalize:      DefaultNormalizeOptions(),
	}
}

// FileResult is the outcome of processing one uploaded file. A file with no
// error but no records still counts as succeeded.
type FileResult struct {
	Name      string
	Records   []domain.FlatRecord
	Sheets    int
	MonthKeys []string
	ErrorKind domain.FileErrorKind
	Err       error
	// Message is the user-facing explanation when Err is set.
	Message string
}

// Succeeded reports whether the file contributed to the batch.
func (r FileResult) Succeeded() bool {
	return r.Err == nil
}

// Outcome converts the result into its wire form.
func (r FileResult) Outcome() domain.FileOutcome {
	return domain.FileOutcome{
		Name:      r.Name,
		Succeeded: r.Succeeded(),
		Sheets:    r.Sheets,
		Records:   len(r.Records),
		MonthKeys: r.MonthKeys,
		ErrorKind: r.ErrorKind,
		Message:   r.Message,
	}
}

// FileProcessor reads, keys and normalizes one spreadsheet at a time. It is
// stateless and safe for concurrent use.
type FileProcessor struct {
	opts   ProcessorOptions
	logger *slog.Logger
	tracer trace.Tracer
}

// NewFileProcessor creates a processor.
func NewFileProcessor(opts ProcessorOptions, logger *slog.Logger) *FileProcessor {
	if opts.MonthKeySource == "" {
		opts.MonthKeySource = MonthKeyAuto
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &FileProcessor{
		opts:   opts,
		logger: logger.With(slog.String("component", "file_processor")),
		tracer: otel.Tracer("salespulse/dataprocessing"),
	}
}

// Process never fails the caller: every problem is reported in the result.
func (p *FileProcessor) Process(ctx context.Context, name string, data []byte) FileResult {
	ctx, span := p.tracer.Start(ctx, "dataprocessing.Process",
		trace.WithAttributes(
			attribute.String("file.name", name),
			attribute.Int("file.size", len(data)),
		))
	defer span.End()

	result := FileResult{Name: name}

	wb, err := ReadWorkbook(name, data)
	if err != nil {
		p.fail(ctx, &result, domain.FileErrorParse, apperrors.NewParsingError("failed to read workbook", err))
		return result
	}
	if len(wb.Sheets) == 0 {
		p.fail(ctx, &result, domain.FileErrorParse, apperrors.NewParsingError("workbook has no sheets", nil))
		return result
	}

	sheets := wb.Sheets
	if p.opts.FirstSheetOnly {
		sheets = sheets[:1]
	}
	result.Sheets = len(sheets)

	var lastKeyErr error
	for _, sheet := range sheets {
		monthKey, err := p.monthKey(name, sheet.Name)
		if err != nil {
			lastKeyErr = err
			p.logger.DebugContext(ctx, "sheet skipped: no month key",
				slog.String("file", name),
				slog.String("sheet", sheet.Name))
			continue
		}

		records := Normalize(sheet.Rows, monthKey, p.opts.Normalize)
		result.Records = append(result.Records, records...)
		result.MonthKeys = appendUnique(result.MonthKeys, monthKey)

		p.logger.DebugContext(ctx, "sheet normalized",
			slog.String("file", name),
			slog.String("sheet", sheet.Name),
			slog.String("month", monthKey),
			slog.Int("records", len(records)))
	}

	if len(result.MonthKeys) == 0 {
		p.fail(ctx, &result, domain.FileErrorMonthKey,
			apperrors.NewAppValidationError("month/year not derivable", lastKeyErr).WithField("file", name))
		return result
	}

	span.SetAttributes(attribute.Int("records", len(result.Records)))
	if len(result.Records) == 0 {
		p.logger.WarnContext(ctx, "file processed but produced no valid data", slog.String("file", name))
	} else {
		p.logger.InfoContext(ctx, "file processed",
			slog.String("file", name),
			slog.Int("sheets", result.Sheets),
			slog.Int("records", len(result.Records)),
			slog.Any("months", result.MonthKeys))
	}
	return result
}

func (p *FileProcessor) monthKey(fileName, sheetName string) (string, error) {
	switch p.opts.MonthKeySource {
	case MonthKeyFromFilename:
		return ExtractMonthYear(fileName)
	case MonthKeyFromSheet:
		return ExtractMonthYear(sheetName)
	default:
		if key, err := ExtractMonthYear(sheetName); err == nil {
			return key, nil
		}
		return ExtractMonthYear(fileName)
	}
}

func (p *FileProcessor) fail(ctx context.Context, result *FileResult, kind domain.FileErrorKind, err error) {
	result.ErrorKind = kind
	result.Err = err
	result.Records = nil
	result.Message = UserMessage(result.Name, kind, p.opts.MonthKeySource)

	infrastructure.RecordError(ctx, err)
	p.logger.WarnContext(ctx, "file excluded from batch",
		slog.String("file", result.Name),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()))
}

// UserMessage explains a file error in terms the uploader can act on.
func UserMessage(fileName string, kind domain.FileErrorKind, monthKeySource string) string {
	switch kind {
	case domain.FileErrorMonthKey:
		if strings.Contains(strings.ToLower(fileName), genericUploadName) {
			return fmt.Sprintf(`Error in file "%s": the file name is generic and has no month/year. `+
				`Please rename the file to include the month and year (e.g. "vendas - MARÇO - 2025.xlsx").`, fileName)
		}
		where := "file name"
		switch monthKeySource {
		case MonthKeyFromSheet:
			where = "sheet names"
		case MonthKeyAuto:
			where = "sheet names or the file name"
		}
		return fmt.Sprintf(`Error in file "%s": could not extract month/year from the %s. `+
			`The expected format is 'MONTH - YYYY' in the name.`, fileName, where)
	case domain.FileErrorParse:
		return fmt.Sprintf(`Error reading or processing file "%s". Check the spreadsheet format and the data cells.`, fileName)
	case domain.FileErrorValidation:
		return fmt.Sprintf(`File "%s" was rejected.`, fileName)
	default:
		return ""
	}
}

// IsMonthKeyError reports whether err came from month key resolution.
func IsMonthKeyError(err error) bool {
	return errors.Is(err, ErrMonthKeyNotFound)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
