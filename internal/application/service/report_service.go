package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/internal/domain/event"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

// ReportOptions selects how a daily report is rendered
type ReportOptions struct {
	// TimeFormat is a strftime pattern for time_in/time_out; empty means RFC 3339
	TimeFormat string
	// Format is "csv" (default) or "xlsx"
	Format string
}

// ReportFile describes a generated report
type ReportFile struct {
	Name        string
	Path        string
	Date        string
	Format      string
	ContentType string
	Rows        int
	Content     []byte
}

// ReportService builds daily voucher reports and mails them
type ReportService interface {
	// DailyReport renders and stores the report for reportDate (YYYY-MM-DD).
	// A day without entries fails with ErrNoData.
	DailyReport(ctx context.Context, reportDate string, opts ReportOptions) (*ReportFile, error)

	// GenerateAndEmail produces the default CSV report and mails it. The
	// returned flag is false when mail delivery is not configured.
	GenerateAndEmail(ctx context.Context, reportDate string) (*ReportFile, bool, error)
}

type reportServiceImpl struct {
	voucherRepo port.VoucherRepository
	storage     port.FileStorage
	renderers   map[string]port.ReportRenderer
	mailer      port.Mailer
	publisher   port.EventPublisher
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	voucherRepo port.VoucherRepository,
	storage port.FileStorage,
	renderers []port.ReportRenderer,
	mailer port.Mailer,
	publisher port.EventPublisher,
	logger Logger,
) ReportService {
	byFormat := make(map[string]port.ReportRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}

	return &reportServiceImpl{
		voucherRepo: voucherRepo,
		storage:     storage,
		renderers:   byFormat,
		mailer:      mailer,
		publisher:   publisher,
		logger:      logger,
	}
}

// ReportFileName returns the stored file name for a report date and format
func ReportFileName(date, format string) string {
	return fmt.Sprintf("voucher_report_%s.%s", date, format)
}

func (s *reportServiceImpl) DailyReport(ctx context.Context, reportDate string, opts ReportOptions) (*ReportFile, error) {
	d, err := utils.ParseDate(reportDate)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrValidation)
	}
	date := utils.CalendarDate(d)

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = entity.ReportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q: %w", opts.Format, entity.ErrValidation)
	}

	entries, err := s.voucherRepo.List(ctx, port.VoucherQuery{Date: date, Ascending: true})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", date, entity.ErrNoData)
	}

	content, err := renderer.Render(entries, opts.TimeFormat)
	if err != nil {
		return nil, err
	}

	name := ReportFileName(date, format)
	if err := s.storage.Save(ctx, name, content); err != nil {
		s.logger.Error("Failed to store report", "file", name, "error", err)
		return nil, err
	}

	file := &ReportFile{
		Name:        name,
		Path:        s.storage.GetFullPath(name),
		Date:        date,
		Format:      format,
		ContentType: renderer.ContentType(),
		Rows:        len(entries),
		Content:     content,
	}

	s.logger.Info("Report generated", "file", name, "rows", file.Rows)
	s.publish(ctx, event.NewEvent(event.TypeReportGenerated, "", map[string]interface{}{
		"file":   name,
		"date":   date,
		"format": format,
		"rows":   file.Rows,
	}))

	return file, nil
}

func (s *reportServiceImpl) GenerateAndEmail(ctx context.Context, reportDate string) (*ReportFile, bool, error) {
	file, err := s.DailyReport(ctx, reportDate, ReportOptions{})
	if err != nil {
		return nil, false, err
	}

	if s.mailer == nil || !s.mailer.Enabled() {
		s.logger.Info("Mail delivery not configured, report kept on disk", "file", file.Name)
		return file, false, nil
	}

	msg := &port.MailMessage{
		Subject:     fmt.Sprintf("Meal Voucher Report - %s", file.Date),
		Body:        fmt.Sprintf("Daily report attached for %s.", file.Date),
		Attachments: []string{file.Path},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to email report", "file", file.Name, "error", err)
		return file, false, err
	}

	s.logger.Info("Report emailed", "file", file.Name)
	s.publish(ctx, event.NewEvent(event.TypeReportEmailed, "", map[string]interface{}{
		"file": file.Name,
		"date": file.Date,
	}))

	return file, true, nil
}

func (s *reportServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.publisher != nil {
		s.publisher.DispatchAsync(ctx, evt)
	}
}
