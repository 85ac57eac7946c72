// Package container wires the meal-voucher service together and owns the
// lifecycle of its long-lived components.
package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/application/dispatcher"
	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/application/service"
	"github.com/garyjia/meal-voucher/internal/config"
	"github.com/garyjia/meal-voucher/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/meal-voucher/internal/infrastructure/worker"
	httpapi "github.com/garyjia/meal-voucher/internal/interfaces/http"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and are torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB        *sql.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Output
	fileStorage port.FileStorage
	renderers   []port.ReportRenderer
	mailer      port.Mailer

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Workers
	workers   *worker.WorkerManager
	scheduler *worker.ReportScheduler

	// Lifecycle
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Employee port.EmployeeRepository
	Voucher  port.VoucherRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Voucher  service.VoucherService
	Employee service.EmployeeService
	Report   service.ReportService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components; call Start to do so.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Order:
// 1. Database and repositories
// 2. Report storage, renderers and mailer
// 3. Event dispatcher
// 4. Application services
// 5. Report scheduler
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	if err := c.initOutputs(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize report outputs: %w", err)
	}
	c.logger.Info("Report outputs initialized",
		zap.String("output_dir", c.config.Report.OutputDir),
		zap.Bool("smtp_enabled", c.config.SMTP.Enabled()))

	if err := c.initDispatcher(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	if err := c.initServices(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if err := c.initWorkers(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize workers: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// A report run in progress finishes before the database goes away
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if err := c.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.sqlDB != nil {
		if err := c.sqlDB.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	// A disabled scheduler is healthy; it simply never fires
	if c.scheduler != nil {
		st := c.scheduler.Status()
		healthy := !st.Enabled || st.Running
		msg := fmt.Sprintf("schedule %q, runs %d, failures %d", st.Schedule, st.RunCount, st.FailCount)
		status.Components["scheduler"] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	} else {
		status.Components["scheduler"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.mailer != nil && !c.mailer.Enabled() {
		status.Components["mailer"] = ComponentHealth{Healthy: true, Message: "smtp not configured"}
	} else {
		status.Components["mailer"] = ComponentHealth{Healthy: c.mailer != nil}
	}

	return status
}

func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.sqlDB, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initOutputs() error {
	fileStorage, err := ProvideStorage(&c.config.Report, c.logger)
	if err != nil {
		return err
	}
	c.fileStorage = fileStorage
	c.renderers = ProvideRenderers(c.logger)
	c.mailer = ProvideMailer(&c.config.SMTP, c.logger.Named("mail"))
	return nil
}

func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.db,
		Storage:   c.fileStorage,
		Renderers: c.renderers,
		Mailer:    c.mailer,
		Publisher: c.dispatcher,
		Vouchers:  c.config.Vouchers,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) initWorkers() error {
	workers, scheduler, err := ProvideReportScheduler(&c.config.Report, c.config.SMTP.Timeout, c.services.Report, c.logger)
	if err != nil {
		return err
	}
	c.workers = workers
	c.scheduler = scheduler

	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	return nil
}

func (c *Container) closeDatabase() error {
	if c.sqlDB == nil {
		return nil
	}
	err := c.sqlDB.Close()
	c.sqlDB = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return err
	}
	c.logger.Info("Database closed")
	return nil
}

// HTTPServices bundles the services exposed by the HTTP adapter.
func (c *Container) HTTPServices() httpapi.Services {
	services := httpapi.Services{
		Vouchers:  c.services.Voucher,
		Employees: c.services.Employee,
		Reports:   c.services.Report,
	}
	if c.scheduler != nil {
		services.Scheduler = c.scheduler
	}
	return services
}

// HTTPConfig derives the HTTP server settings from configuration.
func (c *Container) HTTPConfig() httpapi.ServerConfig {
	cfg := httpapi.DefaultServerConfig()
	cfg.Host = c.config.Server.Host
	cfg.Port = c.config.Server.Port
	if c.config.Server.ReadTimeout > 0 {
		cfg.ReadTimeout = c.config.Server.ReadTimeout
	}
	if c.config.Server.WriteTimeout > 0 {
		cfg.WriteTimeout = c.config.Server.WriteTimeout
	}
	cfg.AdminPIN = c.config.Admin.PIN
	if loc, err := c.config.Report.Location(); err == nil {
		cfg.ReportLocation = loc
	}
	return cfg
}

// HTTPLogger returns the key-value logger used by the HTTP adapter.
func (c *Container) HTTPLogger() httpapi.Logger {
	return &zapLoggerAdapter{logger: c.logger.Named("http")}
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Scheduler returns the daily report scheduler.
func (c *Container) Scheduler() *worker.ReportScheduler {
	return c.scheduler
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces of
// the service, dispatcher and http packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
// Error values become zap.Error so they render as strings.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
