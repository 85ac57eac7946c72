package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// VoucherRepository implements port.VoucherRepository
type VoucherRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sql.DB, logger *zap.Logger) port.VoucherRepository {
	return &VoucherRepository{
		db:     db,
		logger: logger,
	}
}

const voucherColumns = `id, employee_id, employee_name, date, time_in, time_out, voucher_printed, synced`

// Create inserts a new voucher entry. Timestamps are stored in UTC.
func (r *VoucherRepository) Create(ctx context.Context, entry *entity.VoucherEntry) error {
	query := `
		INSERT INTO voucher_entries (
			id, employee_id, employee_name, date, time_in, time_out, voucher_printed, synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		entry.ID,
		entry.EmployeeID,
		entry.EmployeeName,
		entry.Date,
		entry.TimeIn.UTC(),
		nullTime(entry.TimeOut),
		entry.VoucherPrinted,
		entry.Synced,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("voucher %s: %w", entry.ID, entity.ErrAlreadyExists)
		}
		r.logger.Error("Failed to create voucher entry",
			zap.String("id", entry.ID),
			zap.String("employee_id", entry.EmployeeID),
			zap.Error(err))
		return fmt.Errorf("failed to create voucher entry: %w", err)
	}

	return nil
}

// GetByID retrieves a voucher entry by id
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*entity.VoucherEntry, error) {
	query := `SELECT ` + voucherColumns + ` FROM voucher_entries WHERE id = ?`

	entry, err := scanVoucher(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("voucher %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get voucher entry", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get voucher entry: %w", err)
	}

	return entry, nil
}

// FindLatestOpen retrieves the open entry with the latest time_in
func (r *VoucherRepository) FindLatestOpen(ctx context.Context, employeeID string) (*entity.VoucherEntry, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM voucher_entries
		WHERE employee_id = ? AND time_out IS NULL
		ORDER BY time_in DESC
		LIMIT 1
	`

	entry, err := scanVoucher(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("open voucher for %s: %w", employeeID, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to find open voucher entry", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("failed to find open voucher entry: %w", err)
	}

	return entry, nil
}

// SetTimeOut closes an entry
func (r *VoucherRepository) SetTimeOut(ctx context.Context, id string, timeOut time.Time) error {
	query := `UPDATE voucher_entries SET time_out = ? WHERE id = ?`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query, timeOut.UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set voucher time_out", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to set voucher time_out: %w", err)
	}

	return requireAffected(result, "voucher "+id)
}

// ApplySync overwrites time_out and voucher_printed and marks the entry synced
func (r *VoucherRepository) ApplySync(ctx context.Context, id string, timeOut *time.Time, voucherPrinted bool) error {
	query := `
		UPDATE voucher_entries
		SET time_out = ?, voucher_printed = ?, synced = 1
		WHERE id = ?
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query, nullTime(timeOut), voucherPrinted, id)
	if err != nil {
		r.logger.Error("Failed to apply voucher sync", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to apply voucher sync: %w", err)
	}

	return requireAffected(result, "voucher "+id)
}

// List returns entries matching the query ordered by time_in
func (r *VoucherRepository) List(ctx context.Context, q port.VoucherQuery) ([]*entity.VoucherEntry, error) {
	query := `SELECT ` + voucherColumns + ` FROM voucher_entries`
	args := make([]interface{}, 0, 1)

	if q.Date != "" {
		query += ` WHERE date = ?`
		args = append(args, q.Date)
	}

	if q.Ascending {
		query += ` ORDER BY time_in ASC`
	} else {
		query += ` ORDER BY time_in DESC`
	}

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list voucher entries", zap.String("date", q.Date), zap.Error(err))
		return nil, fmt.Errorf("failed to list voucher entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*entity.VoucherEntry, 0)
	for rows.Next() {
		entry, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanVoucher(row rowScanner) (*entity.VoucherEntry, error) {
	var entry entity.VoucherEntry
	var timeOut sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.EmployeeID,
		&entry.EmployeeName,
		&entry.Date,
		&entry.TimeIn,
		&timeOut,
		&entry.VoucherPrinted,
		&entry.Synced,
	)
	if err != nil {
		return nil, err
	}

	entry.TimeIn = entry.TimeIn.UTC()
	if timeOut.Valid {
		t := timeOut.Time.UTC()
		entry.TimeOut = &t
	}

	return &entry, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, entity.ErrNotFound)
	}
	return nil
}

// Verify interface compliance
var _ port.VoucherRepository = (*VoucherRepository)(nil)
