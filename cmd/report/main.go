// Command report runs the dashboard pipeline offline: it consolidates the
// given spreadsheets and writes the chart and CSV exports to a directory.
//
//	report -out dir -kind bar file1.xlsx dir2/ ...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"salespulse/internal/chart"
	"salespulse/internal/config"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/services"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts/domain"
)

// errNoData is returned when the batch produced nothing to report.
var errNoData = errors.New("no valid data found")

type options struct {
	outDir   string
	kind     string
	format   string
	source   string
	logLevel string
	inputs   []string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := infrastructure.NewLogger(os.Stderr, opts.logLevel)
	if err := run(context.Background(), cfg, opts, os.Stdout, logger); err != nil {
		logger.Error("Report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.outDir, "out", "report", "output directory")
	fs.StringVar(&opts.kind, "kind", "", "chart type: bar, line, pie or doughnut (default from config)")
	fs.StringVar(&opts.format, "format", "svg", "chart image format: svg or png")
	fs.StringVar(&opts.source, "source", "", "month key source: filename, sheet or auto (default from config)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: report [flags] file-or-directory...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.inputs = fs.Args()
	if len(opts.inputs) == 0 {
		fs.Usage()
		return opts, errors.New("no input files")
	}
	return opts, nil
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer, logger *slog.Logger) error {
	if opts.source != "" {
		cfg.Dashboard.MonthKeySource = opts.source
	}
	if opts.kind != "" {
		cfg.Dashboard.DefaultChart = opts.kind
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	kind, err := chart.ParseKind(cfg.Dashboard.DefaultChart)
	if err != nil {
		return err
	}
	format, err := chart.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	validator := validation.NewFileValidator(cfg.Upload.MaxBytes, logger)
	paths, err := validator.CollectInputs(opts.inputs)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no spreadsheet files found in %v", opts.inputs)
	}
	if err := validator.ValidateOutputDirectory(opts.outDir); err != nil {
		return err
	}

	svc, err := services.NewDashboardService(services.DashboardOptionsFromConfig(cfg), nil, nil, logger)
	if err != nil {
		return err
	}

	result, err := svc.ProcessBatch(ctx, readUploads(paths))
	if err != nil {
		return err
	}
	printResult(stdout, result)
	if result.State != domain.StateRendered {
		return errNoData
	}

	instance, err := svc.RenderChart(ctx, kind, format)
	if err != nil {
		return err
	}
	chartPath := filepath.Join(opts.outDir, fmt.Sprintf("chart.%s.%s", kind, format))
	if err := os.WriteFile(chartPath, instance.Image, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	table, err := svc.Table()
	if err != nil {
		return err
	}
	monthlyPath := filepath.Join(opts.outDir, exporter.MonthlyFileName)
	if err := exporter.WriteFile(monthlyPath, exporter.MonthlyOptions(table)); err != nil {
		return err
	}

	records, err := svc.Records()
	if err != nil {
		return err
	}
	recordsPath := filepath.Join(opts.outDir, exporter.RecordsFileName)
	if err := exporter.WriteFile(recordsPath, exporter.RecordOptions(records)); err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	for _, row := range table.Rows {
		fmt.Fprintf(stdout, "%3d  %-16s %s\n", row.Index, row.MonthYear, row.TotalQuantity)
	}
	fmt.Fprintln(stdout)
	for _, p := range []string{chartPath, monthlyPath, recordsPath} {
		fmt.Fprintf(stdout, "wrote %s\n", p)
	}
	return nil
}

func readUploads(paths []string) []services.Upload {
	uploads := make([]services.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		uploads = append(uploads, services.Upload{Name: filepath.Base(p), Data: data, Err: err})
	}
	return uploads
}

func printResult(w io.Writer, result domain.BatchResult) {
	fmt.Fprintln(w, result.Status)
	for _, f := range result.Files {
		if !f.Succeeded {
			fmt.Fprintf(w, "  skipped: %s\n", f.Message)
		}
	}
	if result.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}
}
