package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/domain/entity"
)

func sampleEntries() []*entity.VoucherEntry {
	in1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out1 := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	in2 := time.Date(2024, 5, 1, 13, 5, 0, 0, time.UTC)

	return []*entity.VoucherEntry{
		{EmployeeID: "E1", EmployeeName: "Ann", Date: "2024-05-01", TimeIn: in1, TimeOut: &out1, VoucherPrinted: true},
		{EmployeeID: "E2", EmployeeName: "Lee, Bo", Date: "2024-05-01", TimeIn: in2},
	}
}

func TestCSVRenderer_DefaultRFC3339(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleEntries(), "")
	require.NoError(t, err)

	want := "employee_id,employee_name,date,time_in,time_out,voucher_printed\n" +
		"E1,Ann,2024-05-01,2024-05-01T12:00:00Z,2024-05-01T12:30:00Z,yes\n" +
		"E2,\"Lee, Bo\",2024-05-01,2024-05-01T13:05:00Z,,no\n"
	assert.Equal(t, want, string(out))
}

func TestCSVRenderer_StrftimePattern(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleEntries(), "%H:%M")
	require.NoError(t, err)

	want := "employee_id,employee_name,date,time_in,time_out,voucher_printed\n" +
		"E1,Ann,2024-05-01,12:00,12:30,yes\n" +
		"E2,\"Lee, Bo\",2024-05-01,13:05,,no\n"
	assert.Equal(t, want, string(out))
}

func TestCSVRenderer_HeaderOnlyForNoEntries(t *testing.T) {
	out, err := NewCSVRenderer().Render(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "employee_id,employee_name,date,time_in,time_out,voucher_printed\n", string(out))
}

func TestRenderer_InvalidPattern(t *testing.T) {
	_, err := NewCSVRenderer().Render(sampleEntries(), "%!")
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = NewXLSXRenderer(zap.NewNop()).Render(sampleEntries(), "%!")
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestXLSXRenderer_Render(t *testing.T) {
	r := NewXLSXRenderer(zap.NewNop())
	assert.Equal(t, "xlsx", r.Format())

	out, err := r.Render(sampleEntries(), "%H:%M")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, entity.ReportColumns, rows[0])
	assert.Equal(t, []string{"E1", "Ann", "2024-05-01", "12:00", "12:30", "yes"}, rows[1])
	assert.Equal(t, []string{"E2", "Lee, Bo", "2024-05-01", "13:05", "", "no"}, rows[2])
}
