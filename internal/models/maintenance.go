package models

import "time"

// Maintenance is a planned (possibly recurring) maintenance order. LaborCost,
// MaterialCost and Cost are derived values: they are recomputed from scratch
// on every update of an activity under this maintenance, never adjusted
// incrementally.
type Maintenance struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Title        string `gorm:"size:255;not null"`
	Status       string `gorm:"size:32;default:planned;index"`
	RegionID     *uint  `gorm:"index"`
	AssigneeKind string `gorm:"size:16"`
	AssigneeID   *uint
	ScheduleRule string `gorm:"size:64"` // cron expression; empty for one-shot orders
	ScheduledFor *time.Time
	LaborCost    float64 `gorm:"not null;default:0"`
	MaterialCost float64 `gorm:"not null;default:0"`
	Cost         float64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Region       *Region                  `gorm:"foreignKey:RegionID"`
	Activities   []Activity               `gorm:"foreignKey:MaintenanceID"`
	Instructions []MaintenanceInstruction `gorm:"foreignKey:MaintenanceID"`
}

// Task is a standalone work order not tied to a maintenance plan.
type Task struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Title        string `gorm:"size:255;not null"`
	Status       string `gorm:"size:32;default:pending;index"`
	AssigneeKind string `gorm:"size:16"`
	AssigneeID   *uint
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Instructions []TaskInstruction `gorm:"foreignKey:TaskID"`
}

// InterventionRequest is an unplanned incident report that can be assigned
// for execution like a task.
type InterventionRequest struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Title        string `gorm:"size:255;not null"`
	Description  string `gorm:"type:text"`
	Status       string `gorm:"size:32;default:pending;index"`
	AssigneeKind string `gorm:"size:16"`
	AssigneeID   *uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
