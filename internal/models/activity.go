package models

import "time"

// Assignee kinds. An assignable row points at exactly one owner type.
const (
	AssigneeTeam = "team"
	AssigneeUser = "user"
)

// Activity is one technician work record executed against a Task, a
// Maintenance, or an InterventionRequest (at most one of the three). An
// activity may itself have sub-activities through ParentID. RegionID must be
// set before any stock operation can run for it.
type Activity struct {
	ID                    uint    `gorm:"primaryKey;autoIncrement"`
	TaskID                *uint   `gorm:"index"`
	MaintenanceID         *uint   `gorm:"index"`
	InterventionRequestID *uint   `gorm:"index"`
	ParentID              *uint   `gorm:"index"`
	RegionID              *uint   `gorm:"index"`
	Status                string  `gorm:"size:32;default:pending;index"`
	AssigneeKind          string  `gorm:"size:16"`
	AssigneeID            *uint
	ActualStartTime       *time.Time
	ActualEndTime         *time.Time
	ResolutionDescription string `gorm:"type:text"`
	Proposals             string `gorm:"type:text"`
	AdditionalInformation string `gorm:"type:text"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Parent       *Activity             `gorm:"foreignKey:ParentID"`
	Children     []Activity            `gorm:"foreignKey:ParentID"`
	Maintenance  *Maintenance          `gorm:"foreignKey:MaintenanceID"`
	Task         *Task                 `gorm:"foreignKey:TaskID"`
	Intervention *InterventionRequest  `gorm:"foreignKey:InterventionRequestID"`
	Region       *Region               `gorm:"foreignKey:RegionID"`
	Movements    []PartMovement        `gorm:"foreignKey:ActivityID"`
	Instructions []ActivityInstruction `gorm:"foreignKey:ActivityID"`
	Answers      []InstructionAnswer   `gorm:"foreignKey:ActivityID"`
}
