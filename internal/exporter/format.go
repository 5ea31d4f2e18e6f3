package exporter

import "strconv"

// formatQuantity writes the shortest exact form: 13 → "13", 2.5 → "2.5".
func formatQuantity(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}
