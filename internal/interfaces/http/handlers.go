package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/meal-voucher/internal/application/service"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/internal/infrastructure/worker"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	config   ServerConfig
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, config ServerConfig, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		config:   config,
		logger:   logger,
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                  `json:"status"`
	Timestamp string                  `json:"timestamp"`
	Scheduler *worker.SchedulerStatus `json:"scheduler,omitempty"`
}

// CheckInRequest is the body of POST /api/vouchers/checkin
type CheckInRequest struct {
	EmployeeID   string  `json:"employee_id" binding:"required"`
	EmployeeName string  `json:"employee_name"`
	TimeIn       *string `json:"time_in"`
}

// CheckOutRequest is the body of POST /api/vouchers/checkout
type CheckOutRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required"`
	TimeOut    *string `json:"time_out"`
}

// SyncEntryRequest is one element of the POST /api/vouchers/sync body.
// The client-side synced flag is accepted and ignored.
type SyncEntryRequest struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name"`
	Date           string  `json:"date"`
	TimeIn         string  `json:"time_in"`
	TimeOut        *string `json:"time_out"`
	VoucherPrinted bool    `json:"voucher_printed"`
	Synced         bool    `json:"synced"`
}

// PinVerifyRequest is the body of POST /api/auth/verify-pin
type PinVerifyRequest struct {
	PIN string `json:"pin"`
}

// PinVerifyResponse reports whether the PIN matched
type PinVerifyResponse struct {
	Valid bool `json:"valid"`
}

// HealthCheck handles GET /health and GET /api/health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if h.services.Scheduler != nil {
		st := h.services.Scheduler.Status()
		resp.Scheduler = &st
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyPIN handles POST /api/auth/verify-pin
func (h *Handlers) VerifyPIN(c *gin.Context) {
	var req PinVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	c.JSON(http.StatusOK, PinVerifyResponse{Valid: service.VerifyAdminPIN(req.PIN, h.config.AdminPIN)})
}

// ListVouchers handles GET /api/vouchers?date=YYYY-MM-DD
func (h *Handlers) ListVouchers(c *gin.Context) {
	entries, err := h.services.Vouchers.List(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// CheckIn handles POST /api/vouchers/checkin
func (h *Handlers) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "employee_id is required")
		return
	}

	timeIn, err := optionalTimestamp(req.TimeIn)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	entry, err := h.services.Vouchers.CheckIn(c.Request.Context(), service.CheckInRequest{
		EmployeeID:   req.EmployeeID,
		EmployeeName: req.EmployeeName,
		TimeIn:       timeIn,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// CheckOut handles POST /api/vouchers/checkout
func (h *Handlers) CheckOut(c *gin.Context) {
	var req CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "employee_id is required")
		return
	}

	timeOut, err := optionalTimestamp(req.TimeOut)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	entry, err := h.services.Vouchers.CheckOut(c.Request.Context(), service.CheckOutRequest{
		EmployeeID: req.EmployeeID,
		TimeOut:    timeOut,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// SyncVouchers handles POST /api/vouchers/sync
func (h *Handlers) SyncVouchers(c *gin.Context) {
	var req []SyncEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "body must be a JSON array of voucher entries")
		return
	}

	entries := make([]service.SyncEntry, 0, len(req))
	for i, r := range req {
		timeIn, err := utils.ParseTimestamp(r.TimeIn)
		if err != nil {
			h.badRequest(c, fmt.Sprintf("entry %d: %v", i, err))
			return
		}
		timeOut, err := optionalTimestamp(r.TimeOut)
		if err != nil {
			h.badRequest(c, fmt.Sprintf("entry %d: %v", i, err))
			return
		}

		entries = append(entries, service.SyncEntry{
			ID:             r.ID,
			EmployeeID:     r.EmployeeID,
			EmployeeName:   r.EmployeeName,
			Date:           r.Date,
			TimeIn:         timeIn,
			TimeOut:        timeOut,
			VoucherPrinted: r.VoucherPrinted,
		})
	}

	result, err := h.services.Vouchers.Sync(c.Request.Context(), entries)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeError maps domain errors onto HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrNotFound),
		errors.Is(err, entity.ErrInactiveEmployee),
		errors.Is(err, entity.ErrNoOpenEntry),
		errors.Is(err, entity.ErrOpenEntryExists):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrAlreadyExists):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func optionalTimestamp(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := utils.ParseTimestamp(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
