// Package exporter writes the consolidated dataset as CSV.
//
// Two exports exist: the monthly totals table and the flat records behind
// it. Both start with a UTF-8 BOM so Excel opens accented month names
// (MARÇO) correctly.
//
//	var buf bytes.Buffer
//	err := exporter.WriteMonthly(&buf, table)
package exporter
