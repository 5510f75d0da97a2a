package models

import "time"

// Movement types for PartMovement rows.
const (
	MovementUsed     = "used"
	MovementReturned = "returned"
)

// SparePart is the per-region stock row for one part reference. The Quantity
// column is the authoritative on-hand count for that region; PartMovement
// rows are a side audit log. The same Reference may exist as separate rows
// in different regions.
type SparePart struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	Reference   string  `gorm:"size:64;not null;uniqueIndex:idx_ref_region"`
	RegionID    uint    `gorm:"not null;uniqueIndex:idx_ref_region"`
	Label       string  `gorm:"size:255"`
	Quantity    int     `gorm:"not null;default:0"`
	MinQuantity int     `gorm:"not null;default:0"`
	Price       float64 `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Region Region `gorm:"foreignKey:RegionID"`
}

// PartMovement records one debit or credit of a spare part by an activity.
// Rows are owned by their activity: every parts resync deletes and recreates
// them wholesale.
type PartMovement struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	ActivityID       uint   `gorm:"not null;index"`
	SparePartID      uint   `gorm:"not null;index"`
	Type             string `gorm:"size:16;not null"`
	QuantityUsed     int    `gorm:"not null;default:0"`
	QuantityReturned int    `gorm:"not null;default:0"`
	CreatedAt        time.Time

	SparePart SparePart `gorm:"foreignKey:SparePartID"`
}
