package domain

// FlatRecord is one (period row, subcategory column) cell of a pivot sheet
// after it has been unpivoted. Quantity is always positive.
type FlatRecord struct {
	MonthYear   string  `json:"month_year" csv:"MonthYear"`
	Subcategory string  `json:"subcategory" csv:"Subcategory"`
	Quantity    float64 `json:"quantity" csv:"Quantity"`
}

// Sheet is a raw cell matrix read from one worksheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook holds every worksheet of an uploaded spreadsheet in workbook order.
type Workbook struct {
	Name   string
	Format string
	Sheets []Sheet
}
