package entity

// Report output formats
const (
	ReportFormatCSV  = "csv"
	ReportFormatXLSX = "xlsx"
)

// ReportColumns is the header row shared by every report format
var ReportColumns = []string{
	"employee_id",
	"employee_name",
	"date",
	"time_in",
	"time_out",
	"voucher_printed",
}

// Printed flag rendering in reports
const (
	PrintedYes = "yes"
	PrintedNo  = "no"
)
