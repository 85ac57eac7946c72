package dispatcher

import (
	"context"
	"sort"

	"github.com/garyjia/meal-voucher/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// NewAuditHandler returns a handler that writes one structured log line per event
func NewAuditHandler(logger Logger) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		kv := []interface{}{
			"event_type", evt.Type.String(),
			"event_id", evt.ID,
			"timestamp", evt.Timestamp,
		}
		if evt.EmployeeID != "" {
			kv = append(kv, "employee_id", evt.EmployeeID)
		}

		keys := make([]string, 0, len(evt.Payload))
		for k := range evt.Payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			kv = append(kv, k, evt.Payload[k])
		}

		logger.Info("Domain event", kv...)
		return nil
	}
}
