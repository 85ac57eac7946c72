package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// EmployeeRepository implements port.EmployeeRepository
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) port.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

const employeeColumns = `employee_id, name, department, is_active, created_at, updated_at`

// Create inserts a new employee
func (r *EmployeeRepository) Create(ctx context.Context, employee *entity.Employee) error {
	query := `
		INSERT INTO employees (employee_id, name, department, is_active)
		VALUES (?, ?, ?, ?)
	`

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		employee.EmployeeID,
		employee.Name,
		nullString(employee.Department),
		employee.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("employee %s: %w", employee.EmployeeID, entity.ErrAlreadyExists)
		}
		r.logger.Error("Failed to create employee", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to create employee: %w", err)
	}

	return nil
}

// GetByID retrieves an employee by its directory id
func (r *EmployeeRepository) GetByID(ctx context.Context, employeeID string) (*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_id = ?`

	employee, err := scanEmployee(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", employeeID, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get employee", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return employee, nil
}

// Update overwrites name, department and active flag
func (r *EmployeeRepository) Update(ctx context.Context, employee *entity.Employee) error {
	query := `
		UPDATE employees
		SET name = ?, department = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE employee_id = ?
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		employee.Name,
		nullString(employee.Department),
		employee.IsActive,
		employee.EmployeeID,
	)
	if err != nil {
		r.logger.Error("Failed to update employee", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return fmt.Errorf("failed to update employee: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("employee %s: %w", employee.EmployeeID, entity.ErrNotFound)
	}

	return nil
}

// List returns all employees ordered by employee_id
func (r *EmployeeRepository) List(ctx context.Context) ([]*entity.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY employee_id`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list employees", zap.Error(err))
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*entity.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}

	return employees, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmployee(row rowScanner) (*entity.Employee, error) {
	var employee entity.Employee
	var department sql.NullString

	err := row.Scan(
		&employee.EmployeeID,
		&employee.Name,
		&department,
		&employee.IsActive,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if department.Valid {
		employee.Department = &department.String
	}

	return &employee, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// Verify interface compliance
var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
