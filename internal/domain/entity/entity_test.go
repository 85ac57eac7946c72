package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVoucherEntry_Close(t *testing.T) {
	v := &VoucherEntry{TimeIn: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
	assert.True(t, v.IsOpen())

	v.Close(time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC))
	assert.False(t, v.IsOpen())
	assert.Equal(t, 12, v.TimeOut.Hour())
}

func TestEmployeeUpdate_Apply(t *testing.T) {
	dept := "Kitchen"
	e := &Employee{EmployeeID: "EMP-1", Name: "Ava", IsActive: true}

	inactive := false
	EmployeeUpdate{Department: &dept, IsActive: &inactive}.Apply(e)

	assert.Equal(t, "Ava", e.Name)
	assert.Equal(t, "Kitchen", *e.Department)
	assert.False(t, e.IsActive)
}
