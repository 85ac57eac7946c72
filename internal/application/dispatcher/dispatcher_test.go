package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/meal-voucher/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	entries []map[string]interface{}
}

func (m *mockLogger) record(level, msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := map[string]interface{}{"msg": msg, "level": level}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	m.entries = append(m.entries, entry)

	if level == "error" {
		m.errors = append(m.errors, msg)
	} else {
		m.infos = append(m.infos, msg)
	}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.record("info", msg, keysAndValues...)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.record("error", msg, keysAndValues...)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) find(msg string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e["msg"] == msg {
			return e
		}
	}
	return nil
}

func newEvt(typ event.Type) *event.Event {
	return event.NewEvent(typ, "E1", map[string]interface{}{"voucher_id": "v1"})
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.Subscribe(event.TypeVoucherCheckedIn, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(event.TypeVoucherCheckedIn, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})
	d.SubscribeAll("audit", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "audit")
		return nil
	})

	if err := d.Dispatch(context.Background(), newEvt(event.TypeVoucherCheckedIn)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []string{"first", "second", "audit"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected order %v, got %v", want, order)
	}
}

func TestDispatch_OnlyMatchingType(t *testing.T) {
	d := NewDispatcher()
	called := false

	d.Subscribe(event.TypeVoucherCheckedOut, "checkout", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	if err := d.Dispatch(context.Background(), newEvt(event.TypeVoucherCheckedIn)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called {
		t.Error("handler for another event type must not run")
	}
}

func TestDispatch_StopsOnFirstError(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	boom := errors.New("boom")
	secondCalled := false

	d.Subscribe(event.TypeVouchersSynced, "failing", func(ctx context.Context, evt *event.Event) error {
		return boom
	})
	d.Subscribe(event.TypeVouchersSynced, "second", func(ctx context.Context, evt *event.Event) error {
		secondCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), newEvt(event.TypeVouchersSynced))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if secondCalled {
		t.Error("expected dispatch to stop after the failing handler")
	}
	if logger.ErrorCount() != 1 {
		t.Errorf("expected 1 error log, got %d", logger.ErrorCount())
	}
}

func TestDispatch_RecoversPanics(t *testing.T) {
	d := NewDispatcher(WithLogger(&mockLogger{}))

	d.Subscribe(event.TypeReportGenerated, "panicky", func(ctx context.Context, evt *event.Event) error {
		panic("kaboom")
	})

	err := d.Dispatch(context.Background(), newEvt(event.TypeReportGenerated))
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
}

func TestDispatchAsync_SurvivesCancelledContext(t *testing.T) {
	d := NewDispatcher()
	var sawCancel atomic.Bool
	done := make(chan struct{})

	d.Subscribe(event.TypeVoucherCheckedIn, "slow", func(ctx context.Context, evt *event.Event) error {
		defer close(done)
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchAsync(ctx, newEvt(event.TypeVoucherCheckedIn))
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async handler did not run")
	}
	if sawCancel.Load() {
		t.Error("async handler context must not inherit request cancellation")
	}
}

func TestClose_WaitsForAsyncHandlers(t *testing.T) {
	d := NewDispatcher()
	var finished atomic.Int32

	for i := 0; i < 3; i++ {
		d.Subscribe(event.TypeVouchersSynced, fmt.Sprintf("h%d", i), func(ctx context.Context, evt *event.Event) error {
			time.Sleep(5 * time.Millisecond)
			finished.Add(1)
			return nil
		})
	}

	d.DispatchAsync(context.Background(), newEvt(event.TypeVouchersSynced))
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if finished.Load() != 3 {
		t.Errorf("expected 3 finished handlers, got %d", finished.Load())
	}

	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on second close, got %v", err)
	}
	if err := d.Dispatch(context.Background(), newEvt(event.TypeVouchersSynced)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
}

func TestListHandlers(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }

	d.Subscribe(event.TypeVoucherCheckedIn, "h1", noop)
	d.SubscribeAll("audit", noop)

	handlers := d.ListHandlers(event.TypeVoucherCheckedIn)
	if len(handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(handlers))
	}
	if handlers[0].Name != "h1" || handlers[1].Name != "audit" {
		t.Errorf("unexpected handler names: %s, %s", handlers[0].Name, handlers[1].Name)
	}
	if handlers[0].Handler != nil {
		t.Error("handler functions must not be exposed")
	}
}

func TestAuditHandler_LogsEvent(t *testing.T) {
	logger := &mockLogger{}
	handler := NewAuditHandler(logger)

	evt := event.NewEvent(event.TypeVoucherCheckedOut, "E7", map[string]interface{}{
		"voucher_id": "v9",
		"date":       "2024-05-01",
	})
	if err := handler(context.Background(), evt); err != nil {
		t.Fatalf("audit handler failed: %v", err)
	}

	entry := logger.find("Domain event")
	if entry == nil {
		t.Fatal("expected audit log line")
	}
	if entry["event_type"] != "voucher.checked_out" {
		t.Errorf("unexpected event_type: %v", entry["event_type"])
	}
	if entry["employee_id"] != "E7" || entry["voucher_id"] != "v9" || entry["date"] != "2024-05-01" {
		t.Errorf("unexpected audit fields: %v", entry)
	}
}
