package models

import "time"

// Region is a geographic stock and staffing zone. Spare part quantities are
// tracked per region, not globally.
type Region struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:128;not null;uniqueIndex"`
	Code      string `gorm:"size:16;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
