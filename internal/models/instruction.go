package models

import "time"

// Instruction types. Image and signature answers store a JSON array of file
// paths instead of free text.
const (
	InstructionText      = "text"
	InstructionImage     = "image"
	InstructionSignature = "signature"
)

// MaintenanceInstruction is one checklist item on a maintenance order.
type MaintenanceInstruction struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	MaintenanceID uint   `gorm:"not null;index"`
	Label         string `gorm:"size:255;not null"`
	Type          string `gorm:"size:16;default:text"`
	Position      int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskInstruction is one checklist item on a task.
type TaskInstruction struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    uint   `gorm:"not null;index"`
	Label     string `gorm:"size:255;not null"`
	Type      string `gorm:"size:16;default:text"`
	Position  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActivityInstruction is one checklist item copied onto a generated activity.
type ActivityInstruction struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ActivityID uint   `gorm:"not null;index"`
	Label      string `gorm:"size:255;not null"`
	Type       string `gorm:"size:16;default:text"`
	Position   int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InstructionAnswer records the response to exactly one of a task,
// maintenance, or activity instruction (mutually exclusive foreign keys),
// plus the owning activity when applicable. Value holds free text, or a JSON
// array of stored file paths for image/signature instructions.
type InstructionAnswer struct {
	ID                       uint  `gorm:"primaryKey;autoIncrement"`
	ActivityID               *uint `gorm:"index"`
	TaskInstructionID        *uint `gorm:"index"`
	MaintenanceInstructionID *uint `gorm:"index"`
	ActivityInstructionID    *uint `gorm:"index"`
	Value                    string `gorm:"type:text"`
	Author                   string `gorm:"size:128"`
	CreatedAt                time.Time
	UpdatedAt                time.Time

	MaintenanceInstruction *MaintenanceInstruction `gorm:"foreignKey:MaintenanceInstructionID"`
	ActivityInstruction    *ActivityInstruction    `gorm:"foreignKey:ActivityInstructionID"`
}
