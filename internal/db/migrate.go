package db

import (
	"fmt"

	"github.com/crewmint/depot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Region{},
		&models.User{},
		&models.Team{},
		&models.SparePart{},
		&models.PartMovement{},
		&models.Task{},
		&models.TaskInstruction{},
		&models.InterventionRequest{},
		&models.Maintenance{},
		&models.MaintenanceInstruction{},
		&models.Activity{},
		&models.ActivityInstruction{},
		&models.InstructionAnswer{},
		&models.Expense{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedRegions upserts Region rows by name.
func SeedRegions(db *gorm.DB, names []string) error {
	for _, name := range names {
		region := models.Region{Name: name}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&region)
		if result.Error != nil {
			return fmt.Errorf("db: seed region %q: %w", name, result.Error)
		}
	}
	return nil
}

// SeedDemo loads a small demo dataset for local development: one region,
// a handful of spare parts, and a technician.
func SeedDemo(db *gorm.DB) error {
	region := models.Region{Name: "central"}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&region).Error; err != nil {
		return fmt.Errorf("db: seed region: %w", err)
	}
	if region.ID == 0 {
		if err := db.Where("name = ?", "central").First(&region).Error; err != nil {
			return fmt.Errorf("db: load seeded region: %w", err)
		}
	}

	parts := []models.SparePart{
		{Reference: "FLT-100", Label: "Oil filter", RegionID: region.ID, Quantity: 40, MinQuantity: 10, Price: 12.50},
		{Reference: "BRG-220", Label: "Ball bearing 22mm", RegionID: region.ID, Quantity: 25, MinQuantity: 5, Price: 8.75},
		{Reference: "BLT-050", Label: "Drive belt", RegionID: region.ID, Quantity: 12, MinQuantity: 4, Price: 31.00},
	}
	for _, p := range parts {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}, {Name: "region_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "min_quantity", "price"}),
		}).Create(&p).Error; err != nil {
			return fmt.Errorf("db: seed part %q: %w", p.Reference, err)
		}
	}

	tech := models.User{Name: "Demo Technician", Email: "tech@depot.local"}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&tech).Error; err != nil {
		return fmt.Errorf("db: seed technician: %w", err)
	}
	return nil
}
