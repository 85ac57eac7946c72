package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

// ImportResult counts rows applied by an employee CSV import
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// EmployeeService manages the employee directory
type EmployeeService interface {
	List(ctx context.Context) ([]*entity.Employee, error)
	Get(ctx context.Context, employeeID string) (*entity.Employee, error)
	Create(ctx context.Context, employee *entity.Employee) (*entity.Employee, error)
	Update(ctx context.Context, employeeID string, update entity.EmployeeUpdate) (*entity.Employee, error)
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type employeeServiceImpl struct {
	employeeRepo port.EmployeeRepository
	txManager    port.TransactionManager
	logger       Logger
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(
	employeeRepo port.EmployeeRepository,
	txManager port.TransactionManager,
	logger Logger,
) EmployeeService {
	return &employeeServiceImpl{
		employeeRepo: employeeRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

func (s *employeeServiceImpl) List(ctx context.Context) ([]*entity.Employee, error) {
	return s.employeeRepo.List(ctx)
}

func (s *employeeServiceImpl) Get(ctx context.Context, employeeID string) (*entity.Employee, error) {
	return s.employeeRepo.GetByID(ctx, utils.SanitizeString(employeeID))
}

// Create adds a new employee; a duplicate id fails with ErrAlreadyExists
func (s *employeeServiceImpl) Create(ctx context.Context, employee *entity.Employee) (*entity.Employee, error) {
	employee.EmployeeID = utils.SanitizeString(employee.EmployeeID)
	employee.Name = utils.SanitizeString(employee.Name)
	employee.Department = cleanDepartment(employee.Department)

	if employee.EmployeeID == "" {
		return nil, fmt.Errorf("employee_id is required: %w", entity.ErrValidation)
	}
	if employee.Name == "" {
		return nil, fmt.Errorf("name is required: %w", entity.ErrValidation)
	}

	if err := s.employeeRepo.Create(ctx, employee); err != nil {
		s.logger.Error("Failed to create employee", "employee_id", employee.EmployeeID, "error", err)
		return nil, err
	}

	s.logger.Info("Employee created", "employee_id", employee.EmployeeID)
	return employee, nil
}

// Update applies a partial update to an existing employee
func (s *employeeServiceImpl) Update(ctx context.Context, employeeID string, update entity.EmployeeUpdate) (*entity.Employee, error) {
	if update.Name != nil {
		name := utils.SanitizeString(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("name must not be empty: %w", entity.ErrValidation)
		}
		update.Name = &name
	}

	var employee *entity.Employee
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		employee, err = s.employeeRepo.GetByID(txCtx, utils.SanitizeString(employeeID))
		if err != nil {
			return err
		}

		update.Apply(employee)
		employee.Department = cleanDepartment(employee.Department)
		return s.employeeRepo.Update(txCtx, employee)
	})
	if err != nil {
		s.logger.Error("Failed to update employee", "employee_id", employeeID, "error", err)
		return nil, err
	}

	s.logger.Info("Employee updated", "employee_id", employee.EmployeeID)
	return employee, nil
}

// Import upserts employees from CSV. The header must name employee_id and
// name; department and is_active are optional. Rows with a blank id or name
// are skipped. All rows are applied in one transaction.
func (s *employeeServiceImpl) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV is empty: %w", entity.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %v: %w", err, entity.ErrValidation)
	}

	columns := indexColumns(header)
	if _, ok := columns["employee_id"]; !ok {
		return nil, fmt.Errorf("CSV must include employee_id and name columns: %w", entity.ErrValidation)
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("CSV must include employee_id and name columns: %w", entity.ErrValidation)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %v: %w", err, entity.ErrValidation)
	}

	result := &ImportResult{}
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, record := range records {
			field := func(name string) string {
				i, ok := columns[name]
				if !ok || i >= len(record) {
					return ""
				}
				return utils.SanitizeString(record[i])
			}

			employeeID := field("employee_id")
			name := field("name")
			if employeeID == "" || name == "" {
				continue
			}

			var department *string
			if d := field("department"); d != "" {
				department = &d
			}
			isActive := parseActiveFlag(field("is_active"))

			existing, err := s.employeeRepo.GetByID(txCtx, employeeID)
			switch {
			case err == nil:
				existing.Name = name
				existing.Department = department
				existing.IsActive = isActive
				if err := s.employeeRepo.Update(txCtx, existing); err != nil {
					return err
				}
				result.Updated++
			case errors.Is(err, entity.ErrNotFound):
				if err := s.employeeRepo.Create(txCtx, &entity.Employee{
					EmployeeID: employeeID,
					Name:       name,
					Department: department,
					IsActive:   isActive,
				}); err != nil {
					return err
				}
				result.Created++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Employee import failed", "error", err)
		return nil, err
	}

	s.logger.Info("Employees imported", "created", result.Created, "updated", result.Updated)
	return result, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return columns
}

// parseActiveFlag treats blank, 1, true and yes as active
func parseActiveFlag(value string) bool {
	switch strings.ToLower(value) {
	case "", "1", "true", "yes":
		return true
	default:
		return false
	}
}

func cleanDepartment(d *string) *string {
	if d == nil {
		return nil
	}
	v := utils.SanitizeString(*d)
	if v == "" {
		return nil
	}
	return &v
}
