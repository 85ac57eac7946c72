// Command seed-demo fills the configured database with demo employees and
// three days of closed voucher entries.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/application/service"
	"github.com/garyjia/meal-voucher/internal/config"
	"github.com/garyjia/meal-voucher/internal/container"
	"github.com/garyjia/meal-voucher/internal/domain/entity"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

const (
	seedDays = 3
	// skipChance is the share of employee-days left without an entry
	skipChance = 0.2
)

type demoEmployee struct {
	id, name, department string
}

var demoEmployees = []demoEmployee{
	{"EMP-1001", "Ava Brooks", "Kitchen"},
	{"EMP-1002", "Miles Carter", "Service"},
	{"EMP-1003", "Lina Patel", "Operations"},
	{"EMP-1004", "Noah Kim", "Service"},
	{"EMP-1005", "Ivy Chen", "Kitchen"},
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Report.SchedulerDisabled = true

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "seed-demo",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer c.Close()

	services := c.Services()
	if err := seedEmployees(ctx, services.Employee); err != nil {
		logger.Fatal("Failed to seed employees", zap.Error(err))
	}

	count, err := seedVouchers(ctx, services.Employee, services.Voucher, time.Now().UTC())
	if err != nil {
		logger.Fatal("Failed to seed vouchers", zap.Error(err))
	}

	logger.Info("Seeded demo employees and vouchers",
		zap.Int("employees", len(demoEmployees)),
		zap.Int("vouchers", count))
}

// seedEmployees adds the demo directory; existing ids are left alone
func seedEmployees(ctx context.Context, employees service.EmployeeService) error {
	for _, d := range demoEmployees {
		dept := d.department
		_, err := employees.Create(ctx, &entity.Employee{
			EmployeeID: d.id,
			Name:       d.name,
			Department: &dept,
			IsActive:   true,
		})
		if err != nil && !errors.Is(err, entity.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

// seedVouchers writes closed, printed entries for every employee over the last
// few days, starting between 08:00 and 10:00 UTC and lasting 4 to 6 hours.
func seedVouchers(ctx context.Context, employees service.EmployeeService, vouchers service.VoucherService, now time.Time) (int, error) {
	list, err := employees.List(ctx)
	if err != nil {
		return 0, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var entries []service.SyncEntry
	for offset := 0; offset < seedDays; offset++ {
		day := today.AddDate(0, 0, -offset)
		for _, e := range list {
			if rand.Float64() < skipChance {
				continue
			}
			timeIn := day.Add(time.Duration(8+rand.IntN(3)) * time.Hour)
			timeOut := timeIn.Add(time.Duration(4+rand.IntN(3)) * time.Hour)
			entries = append(entries, service.SyncEntry{
				EmployeeID:     e.EmployeeID,
				EmployeeName:   e.Name,
				TimeIn:         timeIn,
				TimeOut:        &timeOut,
				VoucherPrinted: true,
			})
		}
	}

	synced, err := vouchers.Sync(ctx, entries)
	if err != nil {
		return 0, err
	}
	return len(synced), nil
}
