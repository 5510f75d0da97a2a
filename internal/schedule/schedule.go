// Package schedule runs the recurring background jobs: generating activities
// for due maintenance orders and scanning the stock ledger for shortages.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/crewmint/depot/internal/models"
	"github.com/crewmint/depot/internal/notify"
	"github.com/crewmint/depot/internal/stock"
)

// DefaultMaintenanceSpec is when the due-maintenance generation job runs.
const DefaultMaintenanceSpec = "0 6 * * *"

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Opts holds configuration for a Scheduler.
type Opts struct {
	DB              *gorm.DB
	Dispatcher      *notify.Dispatcher
	Logger          *zap.Logger
	LowStockSpec    string // cron expression for the low stock scan
	MaintenanceSpec string // cron expression for due-maintenance generation
}

// Scheduler owns the cron runner for the background jobs.
type Scheduler struct {
	db         *gorm.DB
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	runner     *cron.Cron
}

// New creates a Scheduler. Empty specs fall back to defaults.
func New(opts Opts) (*Scheduler, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("schedule: db is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.LowStockSpec == "" {
		opts.LowStockSpec = "0 7 * * *"
	}
	if opts.MaintenanceSpec == "" {
		opts.MaintenanceSpec = DefaultMaintenanceSpec
	}

	s := &Scheduler{
		db:         opts.DB,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		runner:     cron.New(cron.WithParser(cronParser)),
	}

	if _, err := s.runner.AddFunc(opts.MaintenanceSpec, s.runGeneration); err != nil {
		return nil, fmt.Errorf("schedule: maintenance spec %q: %w", opts.MaintenanceSpec, err)
	}
	if _, err := s.runner.AddFunc(opts.LowStockSpec, s.runLowStockScan); err != nil {
		return nil, fmt.Errorf("schedule: low stock spec %q: %w", opts.LowStockSpec, err)
	}
	return s, nil
}

// Start launches the cron runner. It returns immediately; jobs fire on their
// own goroutines until Stop.
func (s *Scheduler) Start() {
	s.runner.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.runner.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runGeneration() {
	created, err := GenerateDueActivities(s.db, time.Now())
	if err != nil {
		s.logger.Error("maintenance generation failed", zap.Error(err))
		s.alert(notify.Alert{
			Title:    "Maintenance generation failed",
			Body:     err.Error(),
			Severity: notify.SeverityError,
		})
		return
	}
	if len(created) == 0 {
		return
	}
	s.logger.Info("maintenance activities generated", zap.Int("count", len(created)))
	for _, act := range created {
		var mid uint
		if act.MaintenanceID != nil {
			mid = *act.MaintenanceID
		}
		s.alert(notify.Alert{
			Title:    "Maintenance activity generated",
			Severity: notify.SeverityInfo,
			Fields: []notify.Field{
				{Name: "maintenance", Value: strconv.FormatUint(uint64(mid), 10)},
				{Name: "activity", Value: strconv.FormatUint(uint64(act.ID), 10)},
			},
		})
	}
}

func (s *Scheduler) runLowStockScan() {
	rows, err := stock.LowStock(s.db)
	if err != nil {
		s.logger.Error("low stock scan failed", zap.Error(err))
		return
	}
	if len(rows) == 0 {
		return
	}
	s.logger.Warn("low stock detected", zap.Int("rows", len(rows)))

	alert := notify.Alert{
		Title:    fmt.Sprintf("%d spare part(s) below minimum stock", len(rows)),
		Severity: notify.SeverityWarning,
	}
	for _, row := range rows {
		alert.Fields = append(alert.Fields, notify.Field{
			Name:  fmt.Sprintf("%s (%s)", row.Reference, row.Region.Name),
			Value: fmt.Sprintf("%d on hand, minimum %d", row.Quantity, row.MinQuantity),
		})
	}
	s.alert(alert)
}

func (s *Scheduler) alert(a notify.Alert) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(context.Background(), a)
}

// GenerateDueActivities creates one pending activity for every recurring
// maintenance whose schedule rule fires today, copying the maintenance's
// region, assignee, and checklist. Generation is idempotent per day: a
// maintenance that already received an activity today is skipped, so the job
// can run any number of times.
func GenerateDueActivities(db *gorm.DB, now time.Time) ([]models.Activity, error) {
	var maintenances []models.Maintenance
	if err := db.Preload("Instructions").
		Where("schedule_rule <> ''").
		Find(&maintenances).Error; err != nil {
		return nil, fmt.Errorf("schedule: load recurring maintenances: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var created []models.Activity
	for _, m := range maintenances {
		if !dueOn(m.ScheduleRule, now) {
			continue
		}

		var count int64
		if err := db.Model(&models.Activity{}).
			Where("maintenance_id = ? AND created_at >= ?", m.ID, dayStart).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("schedule: check today's activities for maintenance %d: %w", m.ID, err)
		}
		if count > 0 {
			continue
		}

		act, err := generateActivity(db, &m)
		if err != nil {
			return nil, err
		}
		created = append(created, *act)
	}
	return created, nil
}

// generateActivity creates the activity and its checklist copy atomically.
func generateActivity(db *gorm.DB, m *models.Maintenance) (*models.Activity, error) {
	var act models.Activity
	err := db.Transaction(func(tx *gorm.DB) error {
		act = models.Activity{
			MaintenanceID: &m.ID,
			RegionID:      m.RegionID,
			Status:        "pending",
			AssigneeKind:  m.AssigneeKind,
			AssigneeID:    m.AssigneeID,
		}
		if err := tx.Create(&act).Error; err != nil {
			return fmt.Errorf("schedule: create activity for maintenance %d: %w", m.ID, err)
		}
		for _, instr := range m.Instructions {
			item := models.ActivityInstruction{
				ActivityID: act.ID,
				Label:      instr.Label,
				Type:       instr.Type,
				Position:   instr.Position,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("schedule: copy instruction %d: %w", instr.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// dueOn reports whether a 5-field cron rule fires at or before now on now's
// calendar day. Invalid rules are never due.
func dueOn(rule string, now time.Time) bool {
	sched, err := cronParser.Parse(rule)
	if err != nil {
		return false
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := sched.Next(dayStart.Add(-time.Second))
	return !next.After(now)
}
