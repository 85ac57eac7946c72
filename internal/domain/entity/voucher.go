package entity

import "time"

// VoucherEntry is one meal-voucher visit. It is open until TimeOut is set.
type VoucherEntry struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employee_id"`
	EmployeeName   string     `json:"employee_name"`
	Date           string     `json:"date"`
	TimeIn         time.Time  `json:"time_in"`
	TimeOut        *time.Time `json:"time_out"`
	VoucherPrinted bool       `json:"voucher_printed"`
	Synced         bool       `json:"synced"`
}

// IsOpen reports whether the entry still waits for a check-out
func (v *VoucherEntry) IsOpen() bool {
	return v.TimeOut == nil
}

// Close sets the check-out time
func (v *VoucherEntry) Close(at time.Time) {
	v.TimeOut = &at
}
