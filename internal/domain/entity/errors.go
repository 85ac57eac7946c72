package entity

import "errors"

var (
	// Lookup errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Lifecycle rule violations
	ErrInactiveEmployee = errors.New("employee inactive")
	ErrNoOpenEntry      = errors.New("no open voucher entry")
	ErrOpenEntryExists  = errors.New("employee already has an open voucher entry")

	// Reporting
	ErrNoData = errors.New("no vouchers for date")

	// Malformed input
	ErrValidation = errors.New("validation failed")
)
