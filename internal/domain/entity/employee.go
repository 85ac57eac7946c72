package entity

import "time"

// Employee is a directory record; vouchers reference it by EmployeeID only
type Employee struct {
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Department *string   `json:"department"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// EmployeeUpdate carries a partial employee update; nil fields are left untouched
type EmployeeUpdate struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"is_active"`
}

// Apply copies the set fields onto e
func (u EmployeeUpdate) Apply(e *Employee) {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Department != nil {
		e.Department = u.Department
	}
	if u.IsActive != nil {
		e.IsActive = *u.IsActive
	}
}
