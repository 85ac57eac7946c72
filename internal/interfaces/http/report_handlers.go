package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/meal-voucher/internal/application/service"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

// EmailReportResponse is returned by POST /api/reports/daily/email
type EmailReportResponse struct {
	File    string `json:"file"`
	Rows    int    `json:"rows"`
	Emailed bool   `json:"emailed"`
}

// DailyReport handles GET /api/reports/daily
func (h *Handlers) DailyReport(c *gin.Context) {
	file, err := h.services.Reports.DailyReport(c.Request.Context(), h.reportDate(c), service.ReportOptions{
		TimeFormat: c.Query("time_format"),
		Format:     c.Query("format"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// EmailDailyReport handles POST /api/reports/daily/email
func (h *Handlers) EmailDailyReport(c *gin.Context) {
	file, emailed, err := h.services.Reports.GenerateAndEmail(c.Request.Context(), h.reportDate(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, EmailReportResponse{File: file.Name, Rows: file.Rows, Emailed: emailed})
}

// reportDate returns the report_date query value, defaulting to today in
// the report timezone
func (h *Handlers) reportDate(c *gin.Context) string {
	if d := c.Query("report_date"); d != "" {
		return d
	}
	return utils.CalendarDate(time.Now().In(h.config.ReportLocation))
}
