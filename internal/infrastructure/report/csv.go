package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
)

// CSVRenderer writes reports as comma separated values
type CSVRenderer struct{}

// NewCSVRenderer creates a CSV renderer
func NewCSVRenderer() port.ReportRenderer {
	return &CSVRenderer{}
}

func (r *CSVRenderer) Format() string { return entity.ReportFormatCSV }

func (r *CSVRenderer) ContentType() string { return "text/csv" }

// Render produces the CSV document
func (r *CSVRenderer) Render(entries []*entity.VoucherEntry, timeFormat string) ([]byte, error) {
	rows, err := buildRows(entries, timeFormat)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

var _ port.ReportRenderer = (*CSVRenderer)(nil)
