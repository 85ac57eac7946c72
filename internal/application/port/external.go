package port

import (
	"context"

	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/internal/domain/event"
)

// MailMessage is an outbound report email
type MailMessage struct {
	Subject string
	Body    string
	// Attachments are absolute file paths
	Attachments []string
}

// Mailer delivers report emails. When Enabled is false Send is a no-op.
type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, msg *MailMessage) error
}

// ReportRenderer turns voucher entries into a report document
type ReportRenderer interface {
	// Format is the file extension and format name, e.g. "csv"
	Format() string

	// ContentType is the MIME type served for the document
	ContentType() string

	// Render writes the header row and one row per entry in the given order.
	// timeFormat is a strftime pattern; empty means RFC 3339. An invalid
	// pattern returns an error wrapping entity.ErrValidation.
	Render(entries []*entity.VoucherEntry, timeFormat string) ([]byte, error)
}

// EventPublisher fans domain events out to subscribers without blocking the caller
type EventPublisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}
