// Package cost recomputes maintenance cost totals from activity data.
package cost

import (
	"errors"
	"fmt"
	"time"

	"github.com/crewmint/depot/internal/models"
	"gorm.io/gorm"
)

// Hourly labor rates in currency units. Labor duration truncates to whole
// hours: an activity shorter than one hour contributes zero labor cost.
const (
	TechnicianRate = 2.92
	TacheronRate   = 0.76
)

// Recompute rebuilds a maintenance's labor_cost, material_cost and cost,
// plus its derived expense lines, from every activity under it (direct
// activities and one level of sub-activities). The derived expense
// categories are deleted and regenerated wholesale; totals are never
// adjusted incrementally. No-op when the activity has no governing
// maintenance.
func Recompute(tx *gorm.DB, activity *models.Activity, actor string) error {
	maintenanceID, err := governingMaintenance(tx, activity)
	if err != nil {
		return err
	}
	if maintenanceID == 0 {
		return nil
	}

	// The derived categories are a materialized view; wipe before rebuild.
	if err := tx.Where("owner_kind = ? AND owner_id = ? AND category IN ?",
		models.ExpenseOwnerMaintenance, maintenanceID, models.DerivedExpenseCategories).
		Delete(&models.Expense{}).Error; err != nil {
		return fmt.Errorf("cost: clear derived expenses for maintenance %d: %w", maintenanceID, err)
	}

	activities, err := maintenanceActivities(tx, maintenanceID)
	if err != nil {
		return err
	}

	var material, technicianLabor, tacheronLabor float64
	for i := range activities {
		a := &activities[i]

		m, err := materialCost(tx, a.ID)
		if err != nil {
			return err
		}
		material += m

		tech, tach, err := laborCost(tx, a)
		if err != nil {
			return err
		}
		technicianLabor += tech
		tacheronLabor += tach
	}

	now := time.Now()
	buckets := []struct {
		category string
		label    string
		amount   float64
	}{
		{models.ExpenseParts, "Spare parts", material},
		{models.ExpenseLaborTechnician, "Technician labor", technicianLabor},
		{models.ExpenseLaborTacheron, "Tacheron labor", tacheronLabor},
	}
	for _, b := range buckets {
		if b.amount == 0 {
			continue
		}
		expense := models.Expense{
			OwnerKind: models.ExpenseOwnerMaintenance,
			OwnerID:   maintenanceID,
			Category:  b.category,
			Status:    models.ExpensePending,
			Label:     b.label,
			Amount:    b.amount,
			Date:      now,
			Actor:     actor,
		}
		if err := tx.Create(&expense).Error; err != nil {
			return fmt.Errorf("cost: create %s expense: %w", b.category, err)
		}
	}

	labor := technicianLabor + tacheronLabor
	if err := tx.Model(&models.Maintenance{}).Where("id = ?", maintenanceID).
		Updates(map[string]interface{}{
			"labor_cost":    labor,
			"material_cost": material,
			"cost":          labor + material,
		}).Error; err != nil {
		return fmt.Errorf("cost: update maintenance %d totals: %w", maintenanceID, err)
	}
	return nil
}

// governingMaintenance resolves the maintenance an activity rolls up to:
// its own, or its direct parent's. Zero means none.
func governingMaintenance(tx *gorm.DB, activity *models.Activity) (uint, error) {
	if activity.MaintenanceID != nil {
		return *activity.MaintenanceID, nil
	}
	if activity.ParentID == nil {
		return 0, nil
	}
	var parent models.Activity
	if err := tx.First(&parent, *activity.ParentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("cost: load parent activity %d: %w", *activity.ParentID, err)
	}
	if parent.MaintenanceID == nil {
		return 0, nil
	}
	return *parent.MaintenanceID, nil
}

// maintenanceActivities loads the maintenance's direct activities plus the
// children of those activities. Nesting is capped at one level.
func maintenanceActivities(tx *gorm.DB, maintenanceID uint) ([]models.Activity, error) {
	var direct []models.Activity
	if err := tx.Where("maintenance_id = ?", maintenanceID).Find(&direct).Error; err != nil {
		return nil, fmt.Errorf("cost: load activities for maintenance %d: %w", maintenanceID, err)
	}
	if len(direct) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(direct))
	for i, a := range direct {
		ids[i] = a.ID
	}
	var subs []models.Activity
	if err := tx.Where("parent_id IN ?", ids).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("cost: load sub-activities for maintenance %d: %w", maintenanceID, err)
	}
	return append(direct, subs...), nil
}

// materialCost sums price × quantity_used over an activity's used movements.
func materialCost(tx *gorm.DB, activityID uint) (float64, error) {
	var movements []models.PartMovement
	if err := tx.Preload("SparePart").
		Where("activity_id = ? AND type = ?", activityID, models.MovementUsed).
		Find(&movements).Error; err != nil {
		return 0, fmt.Errorf("cost: load movements for activity %d: %w", activityID, err)
	}
	var total float64
	for _, mv := range movements {
		total += mv.SparePart.Price * float64(mv.QuantityUsed)
	}
	return total, nil
}

// laborCost computes the technician and tacheron labor for one activity.
// Only activities with both timestamps and a positive whole-hour duration
// contribute.
func laborCost(tx *gorm.DB, a *models.Activity) (technician, tacheron float64, err error) {
	if a.ActualStartTime == nil || a.ActualEndTime == nil {
		return 0, 0, nil
	}
	hours := int(a.ActualEndTime.Sub(*a.ActualStartTime).Hours())
	if hours <= 0 {
		return 0, 0, nil
	}

	switch a.AssigneeKind {
	case models.AssigneeTeam:
		if a.AssigneeID == nil {
			return 0, 0, nil
		}
		var team models.Team
		if err := tx.Preload("Members").First(&team, *a.AssigneeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, nil
			}
			return 0, 0, fmt.Errorf("cost: load team %d: %w", *a.AssigneeID, err)
		}
		technician = float64(len(team.Members)) * TechnicianRate * float64(hours)
		tacheron = float64(team.TacheronCount) * TacheronRate * float64(hours)
		return technician, tacheron, nil
	case models.AssigneeUser:
		return TechnicianRate * float64(hours), 0, nil
	default:
		return 0, 0, nil
	}
}
