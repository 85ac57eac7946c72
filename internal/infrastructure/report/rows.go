package report

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/garyjia/meal-voucher/internal/domain/entity"
)

// timeFormatter renders report timestamps
type timeFormatter func(time.Time) string

// newTimeFormatter compiles a strftime pattern. An empty pattern renders RFC 3339.
func newTimeFormatter(pattern string) (timeFormatter, error) {
	if pattern == "" {
		return func(t time.Time) string { return t.Format(time.RFC3339) }, nil
	}

	f, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("time format %q: %v: %w", pattern, err, entity.ErrValidation)
	}
	return f.FormatString, nil
}

// buildRows returns the header row followed by one row per entry
func buildRows(entries []*entity.VoucherEntry, timeFormat string) ([][]string, error) {
	format, err := newTimeFormatter(timeFormat)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, entity.ReportColumns)

	for _, e := range entries {
		timeOut := ""
		if e.TimeOut != nil {
			timeOut = format(*e.TimeOut)
		}
		printed := entity.PrintedNo
		if e.VoucherPrinted {
			printed = entity.PrintedYes
		}

		rows = append(rows, []string{
			e.EmployeeID,
			e.EmployeeName,
			e.Date,
			format(e.TimeIn),
			timeOut,
			printed,
		})
	}

	return rows, nil
}
