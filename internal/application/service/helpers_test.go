package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/internal/domain/event"
	"github.com/garyjia/meal-voucher/internal/infrastructure/persistence/repository"
	"github.com/garyjia/meal-voucher/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/meal-voucher/migrations"
	"github.com/garyjia/meal-voucher/pkg/database"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockPublisher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type mockMailer struct {
	enabled  bool
	sendFunc func(ctx context.Context, msg *port.MailMessage) error
	sent     []*port.MailMessage
}

func (m *mockMailer) Enabled() bool { return m.enabled }

func (m *mockMailer) Send(ctx context.Context, msg *port.MailMessage) error {
	m.sent = append(m.sent, msg)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, msg)
	}
	return nil
}

// failingVoucherRepo fails the n-th Create call (1-based)
type failingVoucherRepo struct {
	port.VoucherRepository
	failOn int
	calls  int
}

func (f *failingVoucherRepo) Create(ctx context.Context, entry *entity.VoucherEntry) error {
	f.calls++
	if f.calls == f.failOn {
		return errInjected
	}
	return f.VoucherRepository.Create(ctx, entry)
}

var errInjected = errors.New("injected failure")

type testEnv struct {
	employees port.EmployeeRepository
	vouchers  port.VoucherRepository
	tx        port.TransactionManager
	events    *mockPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "service.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunMigrations(migrations.Files))

	return &testEnv{
		employees: repository.NewEmployeeRepository(db.DB, zap.NewNop()),
		vouchers:  repository.NewVoucherRepository(db.DB, zap.NewNop()),
		tx:        sqlite.NewDB(db.DB, zap.NewNop()),
		events:    &mockPublisher{},
	}
}

func (e *testEnv) addEmployee(t *testing.T, id, name string, active bool) {
	t.Helper()
	require.NoError(t, e.employees.Create(context.Background(), &entity.Employee{
		EmployeeID: id,
		Name:       name,
		IsActive:   active,
	}))
}

func (e *testEnv) voucherService(opts VoucherOptions) *voucherServiceImpl {
	return NewVoucherService(e.vouchers, e.employees, e.tx, e.events, opts, &mockLogger{}).(*voucherServiceImpl)
}

func portQuery(date string) port.VoucherQuery {
	return port.VoucherQuery{Date: date}
}
