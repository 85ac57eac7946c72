package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/meal-voucher/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Vouchers VoucherConfig  `mapstructure:"vouchers"`
	Report   ReportConfig   `mapstructure:"report"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded schema when set
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// AdminConfig holds the shared admin secret
type AdminConfig struct {
	PIN string `mapstructure:"pin"`
}

// VoucherConfig holds lifecycle engine switches
type VoucherConfig struct {
	EnforceSingleOpen bool `mapstructure:"enforce_single_open"`
}

// ReportConfig holds daily report generation and scheduling
type ReportConfig struct {
	OutputDir         string `mapstructure:"output_dir"`
	Hour              int    `mapstructure:"hour"`
	Minute            int    `mapstructure:"minute"`
	Timezone          string `mapstructure:"timezone"`
	SchedulerDisabled bool   `mapstructure:"scheduler_disabled"`
}

// SMTPConfig holds the outbound mail relay
type SMTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	To       []string      `mapstructure:"to"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether mail delivery is configured at all
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && len(c.To) > 0
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional YAML file, an optional .env file
// and the environment. Environment values win.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SMTP.To = splitRecipients(cfg.SMTP.To)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv populates the environment from path when the file exists.
// Variables already set in the environment are kept.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// splitRecipients flattens comma separated entries and drops blanks
func splitRecipients(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, addr := range strings.Split(item, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/meal_voucher.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("admin.pin", "1234")

	v.SetDefault("vouchers.enforce_single_open", false)

	v.SetDefault("report.output_dir", "./reports")
	v.SetDefault("report.hour", 18)
	v.SetDefault("report.minute", 0)
	v.SetDefault("report.timezone", "Local")
	v.SetDefault("report.scheduler_disabled", false)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "reports@mealvoucher.local")
	v.SetDefault("smtp.to", []string{})
	v.SetDefault("smtp.timeout", 30*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the flat environment names used by existing deployments
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"server.port":                  "PORT",
		"database.path":                "DATABASE_PATH",
		"admin.pin":                    "ADMIN_PIN",
		"vouchers.enforce_single_open": "ENFORCE_SINGLE_OPEN_VOUCHER",
		"report.output_dir":            "REPORT_DIR",
		"report.hour":                  "REPORT_HOUR",
		"report.minute":                "REPORT_MINUTE",
		"report.timezone":              "REPORT_TIMEZONE",
		"report.scheduler_disabled":    "DISABLE_SCHEDULER",
		"smtp.host":                    "SMTP_HOST",
		"smtp.port":                    "SMTP_PORT",
		"smtp.username":                "SMTP_USER",
		"smtp.password":                "SMTP_PASSWORD",
		"smtp.from":                    "SMTP_FROM",
		"smtp.to":                      "SMTP_TO",
		"logger.level":                 "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Admin.PIN == "" {
		return fmt.Errorf("admin.pin is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required")
	}
	if c.Report.Hour < 0 || c.Report.Hour > 23 {
		return fmt.Errorf("report.hour must be between 0 and 23, got %d", c.Report.Hour)
	}
	if c.Report.Minute < 0 || c.Report.Minute > 59 {
		return fmt.Errorf("report.minute must be between 0 and 59, got %d", c.Report.Minute)
	}
	if _, err := c.Report.Location(); err != nil {
		return fmt.Errorf("report.timezone: %w", err)
	}
	if c.SMTP.Enabled() {
		if c.SMTP.Port <= 0 {
			return fmt.Errorf("smtp.port must be positive")
		}
		if err := utils.ValidateEmail(c.SMTP.From); err != nil {
			return fmt.Errorf("smtp.from: %w", err)
		}
		for _, to := range c.SMTP.To {
			if err := utils.ValidateEmail(to); err != nil {
				return fmt.Errorf("smtp.to: %w", err)
			}
		}
	}
	return nil
}

// Location resolves the scheduler timezone
func (c ReportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
