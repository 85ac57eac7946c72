package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/meal-voucher/internal/domain/entity"
)

// CreateEmployeeRequest is the body of POST /api/employees
type CreateEmployeeRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"is_active"`
}

// ListEmployees handles GET /api/employees
func (h *Handlers) ListEmployees(c *gin.Context) {
	employees, err := h.services.Employees.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

// CreateEmployee handles POST /api/employees
func (h *Handlers) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "employee_id and name are required")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	employee, err := h.services.Employees.Create(c.Request.Context(), &entity.Employee{
		EmployeeID: req.EmployeeID,
		Name:       req.Name,
		Department: req.Department,
		IsActive:   active,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// UpdateEmployee handles PUT /api/employees/:employee_id
func (h *Handlers) UpdateEmployee(c *gin.Context) {
	var req entity.EmployeeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	employee, err := h.services.Employees.Update(c.Request.Context(), c.Param("employee_id"), req)
	if errors.Is(err, entity.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Employee not found"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// ImportEmployees handles POST /api/employees/import with a multipart "file" field
func (h *Handlers) ImportEmployees(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil || header.Filename == "" {
		h.badRequest(c, "Missing file")
		return
	}

	f, err := header.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer f.Close()

	result, err := h.services.Employees.Import(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
