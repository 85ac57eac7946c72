package container

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/application/dispatcher"
	"github.com/garyjia/meal-voucher/internal/application/port"
	"github.com/garyjia/meal-voucher/internal/application/service"
	"github.com/garyjia/meal-voucher/internal/config"
	"github.com/garyjia/meal-voucher/internal/infrastructure/mail"
	"github.com/garyjia/meal-voucher/internal/infrastructure/persistence/repository"
	"github.com/garyjia/meal-voucher/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/meal-voucher/internal/infrastructure/report"
	"github.com/garyjia/meal-voucher/internal/infrastructure/storage"
	"github.com/garyjia/meal-voucher/internal/infrastructure/worker"
	"github.com/garyjia/meal-voucher/migrations"
	"github.com/garyjia/meal-voucher/pkg/database"
)

// defaultReportJobTimeout bounds one scheduled run when smtp.timeout is unset
const defaultReportJobTimeout = 30 * time.Second

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the SQLite file, applies pending migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(migrationSource(cfg.MigrationsDir)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// migrationSource prefers an on-disk directory over the embedded schema
func migrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.Files
	}
	return os.DirFS(dir)
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Employee: repository.NewEmployeeRepository(sqlDB, logger),
		Voucher:  repository.NewVoucherRepository(sqlDB, logger),
	}, nil
}

// ProvideStorage creates the report file store rooted at the output dir.
func ProvideStorage(cfg *config.ReportConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil || cfg.OutputDir == "" {
		return nil, fmt.Errorf("report output directory is required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return storage.NewLocalFileStorage(cfg.OutputDir, logger), nil
}

// ProvideRenderers returns every supported report format.
func ProvideRenderers(logger *zap.Logger) []port.ReportRenderer {
	return []port.ReportRenderer{
		report.NewCSVRenderer(),
		report.NewXLSXRenderer(logger),
	}
}

// ProvideMailer creates the SMTP mailer; an unconfigured relay yields a
// mailer whose Send is a logged no-op.
func ProvideMailer(cfg *config.SMTPConfig, logger *zap.Logger) port.Mailer {
	return mail.NewSMTPMailer(mail.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		To:       cfg.To,
		Timeout:  cfg.Timeout,
	}, logger)
}

// ProvideDispatcher creates the event dispatcher with the audit trail attached.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	adapter := &zapLoggerAdapter{logger: logger.Named("events")}
	disp := dispatcher.NewDispatcher(dispatcher.WithLogger(adapter))
	disp.SubscribeAll("audit", dispatcher.NewAuditHandler(adapter))
	return disp, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Storage   port.FileStorage
	Renderers []port.ReportRenderer
	Mailer    port.Mailer
	Publisher port.EventPublisher
	Vouchers  config.VoucherConfig
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	log := &zapLoggerAdapter{logger: deps.Logger}

	return &ServiceBundle{
		Voucher: service.NewVoucherService(
			deps.Repos.Voucher,
			deps.Repos.Employee,
			deps.TxManager,
			deps.Publisher,
			service.VoucherOptions{EnforceSingleOpen: deps.Vouchers.EnforceSingleOpen},
			log,
		),
		Employee: service.NewEmployeeService(deps.Repos.Employee, deps.TxManager, log),
		Report: service.NewReportService(
			deps.Repos.Voucher,
			deps.Storage,
			deps.Renderers,
			deps.Mailer,
			deps.Publisher,
			log,
		),
	}, nil
}

// ProvideReportScheduler creates the daily report job and registers it with
// a worker manager. One run, SMTP delivery included, is bounded by timeout.
func ProvideReportScheduler(cfg *config.ReportConfig, timeout time.Duration, reports service.ReportService, logger *zap.Logger) (*worker.WorkerManager, *worker.ReportScheduler, error) {
	if reports == nil {
		return nil, nil, fmt.Errorf("report service is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid report timezone: %w", err)
	}

	if timeout <= 0 {
		timeout = defaultReportJobTimeout
	}

	job := func(ctx context.Context, reportDate string) error {
		_, _, err := reports.GenerateAndEmail(ctx, reportDate)
		return err
	}

	scheduler := worker.NewReportScheduler(worker.ReportSchedulerConfig{
		Hour:     cfg.Hour,
		Minute:   cfg.Minute,
		Location: loc,
		Timeout:  timeout,
		Disabled: cfg.SchedulerDisabled,
	}, job, logger.Named("scheduler"))

	manager := worker.NewWorkerManager(logger)
	manager.Register(scheduler)
	return manager, scheduler, nil
}
