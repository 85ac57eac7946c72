package port

import (
	"context"
	"time"

	"github.com/garyjia/meal-voucher/internal/domain/entity"
)

// EmployeeRepository defines persistence operations for the employee directory.
// Lookups of unknown ids return an error wrapping entity.ErrNotFound.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *entity.Employee) error
	GetByID(ctx context.Context, employeeID string) (*entity.Employee, error)
	Update(ctx context.Context, employee *entity.Employee) error
	List(ctx context.Context) ([]*entity.Employee, error)
}

// VoucherQuery selects voucher entries for listing and reporting
type VoucherQuery struct {
	// Date restricts results to one calendar date (YYYY-MM-DD) when non-empty
	Date string
	// Ascending orders by time_in oldest first; the default is newest first
	Ascending bool
}

// VoucherRepository defines persistence operations for VoucherEntry
type VoucherRepository interface {
	// Create inserts a new entry; entry.ID must already be set
	Create(ctx context.Context, entry *entity.VoucherEntry) error

	// GetByID returns an error wrapping entity.ErrNotFound for unknown ids
	GetByID(ctx context.Context, id string) (*entity.VoucherEntry, error)

	// FindLatestOpen returns the open entry with the latest time_in for the
	// employee, or an error wrapping entity.ErrNotFound
	FindLatestOpen(ctx context.Context, employeeID string) (*entity.VoucherEntry, error)

	// SetTimeOut closes an entry
	SetTimeOut(ctx context.Context, id string, timeOut time.Time) error

	// ApplySync overwrites time_out and voucher_printed and marks the entry synced
	ApplySync(ctx context.Context, id string, timeOut *time.Time, voucherPrinted bool) error

	// List returns entries matching the query ordered by time_in
	List(ctx context.Context, query VoucherQuery) ([]*entity.VoucherEntry, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
