// Package http exposes the voucher, employee and report services over a gin router.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/meal-voucher/internal/application/service"
	"github.com/garyjia/meal-voucher/internal/infrastructure/worker"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// SchedulerStatus reports the state of the daily report job
type SchedulerStatus interface {
	Status() worker.SchedulerStatus
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// AdminPIN gates report and employee management routes
	AdminPIN string
	// ReportLocation resolves "today" when a report date is omitted
	ReportLocation *time.Location
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8000,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		AdminPIN:       "1234",
		ReportLocation: time.Local,
	}
}

// Services bundles the application services served over HTTP
type Services struct {
	Vouchers  service.VoucherService
	Employees service.EmployeeService
	Reports   service.ReportService
	// Scheduler is optional
	Scheduler SchedulerStatus
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.ReportLocation == nil {
		config.ReportLocation = time.Local
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.config, s.logger)
	admin := adminPINMiddleware(s.config.AdminPIN)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		api.POST("/auth/verify-pin", h.VerifyPIN)

		vouchers := api.Group("/vouchers")
		vouchers.GET("", h.ListVouchers)
		vouchers.POST("/checkin", h.CheckIn)
		vouchers.POST("/checkout", h.CheckOut)
		vouchers.POST("/sync", h.SyncVouchers)

		employees := api.Group("/employees")
		employees.GET("", h.ListEmployees)
		employees.POST("", admin, h.CreateEmployee)
		employees.PUT("/:employee_id", admin, h.UpdateEmployee)
		employees.POST("/import", admin, h.ImportEmployees)

		reports := api.Group("/reports", admin)
		reports.GET("/daily", h.DailyReport)
		reports.POST("/daily/email", h.EmailDailyReport)
	}
}

// Start serves until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
