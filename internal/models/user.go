package models

import "time"

// User is a technician or back-office account.
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:128;not null"`
	Email     string `gorm:"size:255;uniqueIndex"`
	Role      string `gorm:"size:32;default:technician"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Team groups technicians plus a number of tacheron auxiliary laborers.
// TacheronCount feeds the tacheron labor rate during cost aggregation.
type Team struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"size:128;not null;uniqueIndex"`
	TacheronCount int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Members []User `gorm:"many2many:team_members"`
}
