package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/internal/domain/event"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

// CheckInRequest opens a voucher entry
type CheckInRequest struct {
	EmployeeID string
	// EmployeeName overrides the directory name when non-empty
	EmployeeName string
	// TimeIn defaults to the current time
	TimeIn *time.Time
}

// CheckOutRequest closes the employee's latest open entry
type CheckOutRequest struct {
	EmployeeID string
	// TimeOut defaults to the current time
	TimeOut *time.Time
}

// SyncEntry is one voucher record captured by an offline client
type SyncEntry struct {
	ID             string
	EmployeeID     string
	EmployeeName   string
	Date           string
	TimeIn         time.Time
	TimeOut        *time.Time
	VoucherPrinted bool
}

// VoucherOptions tunes lifecycle rules
type VoucherOptions struct {
	// EnforceSingleOpen rejects a check-in while the employee has an open entry
	EnforceSingleOpen bool
}

// VoucherService runs the voucher lifecycle
type VoucherService interface {
	CheckIn(ctx context.Context, req CheckInRequest) (*entity.VoucherEntry, error)
	CheckOut(ctx context.Context, req CheckOutRequest) (*entity.VoucherEntry, error)
	Sync(ctx context.Context, entries []SyncEntry) ([]*entity.VoucherEntry, error)
	List(ctx context.Context, date string) ([]*entity.VoucherEntry, error)
}

type voucherServiceImpl struct {
	voucherRepo  port.VoucherRepository
	employeeRepo port.EmployeeRepository
	txManager    port.TransactionManager
	publisher    port.EventPublisher
	opts         VoucherOptions
	logger       Logger
	now          func() time.Time
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	voucherRepo port.VoucherRepository,
	employeeRepo port.EmployeeRepository,
	txManager port.TransactionManager,
	publisher port.EventPublisher,
	opts VoucherOptions,
	logger Logger,
) VoucherService {
	return &voucherServiceImpl{
		voucherRepo:  voucherRepo,
		employeeRepo: employeeRepo,
		txManager:    txManager,
		publisher:    publisher,
		opts:         opts,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn opens a new voucher entry for an active employee
func (s *voucherServiceImpl) CheckIn(ctx context.Context, req CheckInRequest) (*entity.VoucherEntry, error) {
	employeeID := utils.SanitizeString(req.EmployeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("employee_id is required: %w", entity.ErrValidation)
	}

	timeIn := s.now()
	if req.TimeIn != nil {
		timeIn = *req.TimeIn
	}

	var entry *entity.VoucherEntry
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		employee, err := s.employeeRepo.GetByID(txCtx, employeeID)
		if err != nil {
			return err
		}
		if !employee.IsActive {
			return fmt.Errorf("employee %s: %w", employeeID, entity.ErrInactiveEmployee)
		}

		if s.opts.EnforceSingleOpen {
			open, err := s.voucherRepo.FindLatestOpen(txCtx, employeeID)
			if err == nil {
				return fmt.Errorf("employee %s has open entry %s: %w", employeeID, open.ID, entity.ErrOpenEntryExists)
			}
			if !errors.Is(err, entity.ErrNotFound) {
				return err
			}
		}

		name := utils.SanitizeString(req.EmployeeName)
		if name == "" {
			name = employee.Name
		}

		entry = &entity.VoucherEntry{
			ID:           uuid.NewString(),
			EmployeeID:   employee.EmployeeID,
			EmployeeName: name,
			Date:         utils.CalendarDate(timeIn),
			TimeIn:       timeIn,
			Synced:       true,
		}
		if err := s.voucherRepo.Create(txCtx, entry); err != nil {
			return err
		}
		entry.TimeIn = entry.TimeIn.UTC()
		return nil
	})
	if err != nil {
		s.logger.Error("Check-in failed", "employee_id", employeeID, "error", err)
		return nil, err
	}

	s.logger.Info("Voucher checked in", "voucher_id", entry.ID, "employee_id", employeeID, "date", entry.Date)
	s.publish(ctx, event.NewEvent(event.TypeVoucherCheckedIn, employeeID, map[string]interface{}{
		"voucher_id": entry.ID,
		"date":       entry.Date,
	}))

	return entry, nil
}

// CheckOut closes the employee's most recent open entry
func (s *voucherServiceImpl) CheckOut(ctx context.Context, req CheckOutRequest) (*entity.VoucherEntry, error) {
	employeeID := utils.SanitizeString(req.EmployeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("employee_id is required: %w", entity.ErrValidation)
	}

	timeOut := s.now()
	if req.TimeOut != nil {
		timeOut = *req.TimeOut
	}

	var entry *entity.VoucherEntry
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.voucherRepo.FindLatestOpen(txCtx, employeeID)
		if errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("employee %s: %w", employeeID, entity.ErrNoOpenEntry)
		}
		if err != nil {
			return err
		}

		if timeOut.Before(open.TimeIn) {
			return fmt.Errorf("time_out %s precedes time_in %s: %w",
				timeOut.Format(time.RFC3339), open.TimeIn.Format(time.RFC3339), entity.ErrValidation)
		}

		if err := s.voucherRepo.SetTimeOut(txCtx, open.ID, timeOut); err != nil {
			return err
		}
		open.Close(timeOut.UTC())
		entry = open
		return nil
	})
	if err != nil {
		s.logger.Error("Check-out failed", "employee_id", employeeID, "error", err)
		return nil, err
	}

	s.logger.Info("Voucher checked out", "voucher_id", entry.ID, "employee_id", employeeID)
	s.publish(ctx, event.NewEvent(event.TypeVoucherCheckedOut, employeeID, map[string]interface{}{
		"voucher_id": entry.ID,
		"date":       entry.Date,
	}))

	return entry, nil
}

// Sync reconciles offline entries in one transaction. Entries whose id is
// already stored only get time_out and voucher_printed overwritten; all
// others are inserted.
func (s *voucherServiceImpl) Sync(ctx context.Context, entries []SyncEntry) ([]*entity.VoucherEntry, error) {
	if len(entries) == 0 {
		return []*entity.VoucherEntry{}, nil
	}

	for i := range entries {
		if err := validateSyncEntry(&entries[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	results := make([]*entity.VoucherEntry, 0, len(entries))
	inserted, updated := 0, 0

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, in := range entries {
			if in.ID != "" {
				existing, err := s.voucherRepo.GetByID(txCtx, in.ID)
				if err == nil {
					if err := s.voucherRepo.ApplySync(txCtx, in.ID, in.TimeOut, in.VoucherPrinted); err != nil {
						return err
					}
					existing.TimeOut = utcPtr(in.TimeOut)
					existing.VoucherPrinted = in.VoucherPrinted
					existing.Synced = true
					results = append(results, existing)
					updated++
					continue
				}
				if !errors.Is(err, entity.ErrNotFound) {
					return err
				}
			}

			entry := &entity.VoucherEntry{
				ID:             in.ID,
				EmployeeID:     in.EmployeeID,
				EmployeeName:   in.EmployeeName,
				Date:           in.Date,
				TimeIn:         in.TimeIn,
				TimeOut:        utcPtr(in.TimeOut),
				VoucherPrinted: in.VoucherPrinted,
				Synced:         true,
			}
			if entry.ID == "" {
				entry.ID = uuid.NewString()
			}
			if entry.Date == "" {
				entry.Date = utils.CalendarDate(in.TimeIn)
			}

			if err := s.voucherRepo.Create(txCtx, entry); err != nil {
				return err
			}
			entry.TimeIn = entry.TimeIn.UTC()
			results = append(results, entry)
			inserted++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Voucher sync failed", "count", len(entries), "error", err)
		return nil, err
	}

	s.logger.Info("Vouchers synced", "count", len(results), "inserted", inserted, "updated", updated)
	s.publish(ctx, event.NewEvent(event.TypeVouchersSynced, "", map[string]interface{}{
		"count":    len(results),
		"inserted": inserted,
		"updated":  updated,
	}))

	return results, nil
}

// List returns entries newest first, optionally for one calendar date
func (s *voucherServiceImpl) List(ctx context.Context, date string) ([]*entity.VoucherEntry, error) {
	if date != "" {
		d, err := utils.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, entity.ErrValidation)
		}
		date = utils.CalendarDate(d)
	}

	return s.voucherRepo.List(ctx, port.VoucherQuery{Date: date})
}

func (s *voucherServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.publisher != nil {
		s.publisher.DispatchAsync(ctx, evt)
	}
}

func validateSyncEntry(e *SyncEntry) error {
	e.ID = utils.SanitizeString(e.ID)
	e.EmployeeID = utils.SanitizeString(e.EmployeeID)
	e.EmployeeName = utils.SanitizeString(e.EmployeeName)

	if e.EmployeeID == "" {
		return fmt.Errorf("employee_id is required: %w", entity.ErrValidation)
	}
	if e.EmployeeName == "" {
		return fmt.Errorf("employee_name is required: %w", entity.ErrValidation)
	}
	if e.TimeIn.IsZero() {
		return fmt.Errorf("time_in is required: %w", entity.ErrValidation)
	}
	if e.Date != "" {
		d, err := utils.ParseDate(e.Date)
		if err != nil {
			return fmt.Errorf("%v: %w", err, entity.ErrValidation)
		}
		e.Date = utils.CalendarDate(d)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
