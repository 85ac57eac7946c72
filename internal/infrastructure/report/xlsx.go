package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
)

// SheetName is the worksheet holding the report rows
const SheetName = "Vouchers"

// XLSXRenderer writes reports as an Excel workbook with one sheet
type XLSXRenderer struct {
	logger *zap.Logger
}

// NewXLSXRenderer creates an Excel renderer
func NewXLSXRenderer(logger *zap.Logger) port.ReportRenderer {
	return &XLSXRenderer{logger: logger}
}

func (r *XLSXRenderer) Format() string { return entity.ReportFormatXLSX }

func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render produces the workbook bytes
func (r *XLSXRenderer) Render(entries []*entity.VoucherEntry, timeFormat string) ([]byte, error) {
	rows, err := buildRows(entries, timeFormat)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := file.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to set row %d: %w", i+1, err)
		}
	}

	if err := r.styleHeader(file); err != nil {
		// Styling is cosmetic; the rows are already in place
		r.logger.Warn("Failed to style report header", zap.Error(err))
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *XLSXRenderer) styleHeader(file *excelize.File) error {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(entity.ReportColumns), 1)
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return err
	}

	return file.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

var _ port.ReportRenderer = (*XLSXRenderer)(nil)
