package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/infrastructure"
)

const weekly = ";COMPUTADORES;;TELEFONES\n" +
	"Nº SEMANA;NOTEBOOK;DESKTOP;CELULAR\n" +
	"1;10;4;7\n" +
	"2;3;;9\n" +
	"TOTAL;13;4;16\n"

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runReport(t *testing.T, opts options) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := run(context.Background(), config.Default(), opts, &stdout, infrastructure.NewLogger(io.Discard, "error"))
	return stdout.String(), err
}

func TestRun_WritesReport(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeInput(t, inDir, "vendas - MARÇO - 2025.csv", weekly)
	writeInput(t, inDir, "vendas - JANEIRO - 2025.csv", weekly)
	writeInput(t, inDir, "notes.txt", "ignored")

	out, err := runReport(t, options{outDir: outDir, kind: "pie", format: "svg", inputs: []string{inDir}})
	require.NoError(t, err)

	assert.Contains(t, out, "2 of 2")
	assert.Contains(t, out, "JANEIRO/2025")
	assert.Contains(t, out, "MARÇO/2025")

	svg, err := os.ReadFile(filepath.Join(outDir, "chart.pie.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	monthly, err := os.ReadFile(filepath.Join(outDir, "monthly.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(monthly), "JANEIRO/2025")

	records, err := os.ReadFile(filepath.Join(outDir, "records.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(records), "COMPUTADORES - NOTEBOOK")
}

func TestRun_ReportsSkippedFiles(t *testing.T) {
	inDir := t.TempDir()
	good := writeInput(t, inDir, "vendas - MAIO - 2025.csv", weekly)
	bad := writeInput(t, inDir, "relatorio.csv", weekly)

	out, err := runReport(t, options{outDir: t.TempDir(), format: "svg", inputs: []string{good, bad}})
	require.NoError(t, err)

	assert.Contains(t, out, "1 of 2")
	assert.Contains(t, out, "skipped:")
	assert.Contains(t, out, "relatorio.csv")
}

func TestRun_NoData(t *testing.T) {
	inDir := t.TempDir()
	writeInput(t, inDir, "vendas - MAIO - 2025.csv", ";A\nNº SEMANA;B\nTOTAL;5\n")
	outDir := t.TempDir()

	out, err := runReport(t, options{outDir: outDir, format: "svg", inputs: []string{inDir}})
	assert.ErrorIs(t, err, errNoData)
	assert.Contains(t, out, "No valid data found")

	_, statErr := os.Stat(filepath.Join(outDir, "monthly.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_InvalidArguments(t *testing.T) {
	dir := t.TempDir()

	_, err := runReport(t, options{outDir: dir, format: "svg", inputs: []string{filepath.Join(dir, "missing.xlsx")}})
	assert.Error(t, err)

	_, err = runReport(t, options{outDir: dir, kind: "radar", format: "svg", inputs: []string{dir}})
	assert.Error(t, err)

	_, err = runReport(t, options{outDir: dir, format: "gif", inputs: []string{dir}})
	assert.Error(t, err)

	_, err = runReport(t, options{outDir: dir, source: "bogus", format: "svg", inputs: []string{dir}})
	assert.ErrorContains(t, err, "MonthKeySource")

	_, err = runReport(t, options{outDir: dir, format: "svg", inputs: []string{dir}})
	assert.ErrorContains(t, err, "no spreadsheet files")
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer

	opts, err := parseFlags([]string{"-out", "dist", "-kind", "line", "a.xlsx", "b.csv"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "dist", opts.outDir)
	assert.Equal(t, "line", opts.kind)
	assert.Equal(t, "svg", opts.format)
	assert.Equal(t, []string{"a.xlsx", "b.csv"}, opts.inputs)

	_, err = parseFlags(nil, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "usage: report")
}
