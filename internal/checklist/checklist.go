// Package checklist mirrors instruction answers between a maintenance's
// checklist and its generated activity's checklist.
package checklist

import (
	"errors"
	"fmt"

	"github.com/crewmint/depot/internal/models"
	"gorm.io/gorm"
)

// SyncScope marks one logical answer-save operation. The mirror upsert it
// performs is itself a save, which re-enters OnAnswerSaved; the scope makes
// that second entry a no-op. Each logical operation gets its own scope, so
// concurrent unrelated saves never block each other.
type SyncScope struct {
	entered bool
}

// NewScope returns a fresh scope for one logical save.
func NewScope() *SyncScope {
	return &SyncScope{}
}

// OnAnswerSaved mirrors a saved answer onto the matching instruction of the
// counterpart checklist. Matching is by exact label equality; an answer with
// no counterpart is left unmirrored, which is not an error.
func OnAnswerSaved(tx *gorm.DB, scope *SyncScope, answer *models.InstructionAnswer) error {
	if scope == nil {
		scope = NewScope()
	}
	if scope.entered {
		return nil
	}
	scope.entered = true

	switch {
	case answer.MaintenanceInstructionID != nil:
		return mirrorToActivity(tx, scope, answer)
	case answer.ActivityInstructionID != nil:
		return mirrorToMaintenance(tx, scope, answer)
	default:
		return nil
	}
}

// mirrorToActivity copies a maintenance-side answer onto the label-matched
// instruction of the maintenance's generated activity.
func mirrorToActivity(tx *gorm.DB, scope *SyncScope, answer *models.InstructionAnswer) error {
	var src models.MaintenanceInstruction
	if err := tx.First(&src, *answer.MaintenanceInstructionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("checklist: load maintenance instruction %d: %w", *answer.MaintenanceInstructionID, err)
	}

	var activity models.Activity
	err := tx.Where("maintenance_id = ?", src.MaintenanceID).
		Order("id ASC").
		First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("checklist: load activity for maintenance %d: %w", src.MaintenanceID, err)
	}

	var target models.ActivityInstruction
	err = tx.Where("activity_id = ? AND label = ?", activity.ID, src.Label).
		First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("checklist: match activity instruction %q: %w", src.Label, err)
	}

	mirrored, err := upsertActivityAnswer(tx, activity.ID, target.ID, answer.Value, answer.Author)
	if err != nil {
		return err
	}
	// The upsert is itself a save; run its handler through the same scope.
	return OnAnswerSaved(tx, scope, mirrored)
}

// mirrorToMaintenance copies an activity-side answer onto the label-matched
// instruction of the governing maintenance.
func mirrorToMaintenance(tx *gorm.DB, scope *SyncScope, answer *models.InstructionAnswer) error {
	var src models.ActivityInstruction
	if err := tx.First(&src, *answer.ActivityInstructionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("checklist: load activity instruction %d: %w", *answer.ActivityInstructionID, err)
	}

	var activity models.Activity
	if err := tx.First(&activity, src.ActivityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("checklist: load activity %d: %w", src.ActivityID, err)
	}
	if activity.MaintenanceID == nil {
		return nil
	}

	var target models.MaintenanceInstruction
	err := tx.Where("maintenance_id = ? AND label = ?", *activity.MaintenanceID, src.Label).
		First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("checklist: match maintenance instruction %q: %w", src.Label, err)
	}

	mirrored, err := upsertMaintenanceAnswer(tx, target.ID, answer.Value, answer.Author)
	if err != nil {
		return err
	}
	return OnAnswerSaved(tx, scope, mirrored)
}

// upsertActivityAnswer creates or updates the answer keyed by
// (activity_id, activity_instruction_id).
func upsertActivityAnswer(tx *gorm.DB, activityID, instructionID uint, value, author string) (*models.InstructionAnswer, error) {
	var existing models.InstructionAnswer
	err := tx.Where("activity_id = ? AND activity_instruction_id = ?", activityID, instructionID).
		First(&existing).Error
	switch {
	case err == nil:
		existing.Value = value
		existing.Author = author
		if err := tx.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("checklist: update activity answer %d: %w", existing.ID, err)
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		created := models.InstructionAnswer{
			ActivityID:            &activityID,
			ActivityInstructionID: &instructionID,
			Value:                 value,
			Author:                author,
		}
		if err := tx.Create(&created).Error; err != nil {
			return nil, fmt.Errorf("checklist: create activity answer: %w", err)
		}
		return &created, nil
	default:
		return nil, fmt.Errorf("checklist: find activity answer: %w", err)
	}
}

// upsertMaintenanceAnswer creates or updates the maintenance-side answer
// keyed by maintenance_instruction_id with no owning activity.
func upsertMaintenanceAnswer(tx *gorm.DB, instructionID uint, value, author string) (*models.InstructionAnswer, error) {
	var existing models.InstructionAnswer
	err := tx.Where("activity_id IS NULL AND maintenance_instruction_id = ?", instructionID).
		First(&existing).Error
	switch {
	case err == nil:
		existing.Value = value
		existing.Author = author
		if err := tx.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("checklist: update maintenance answer %d: %w", existing.ID, err)
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		created := models.InstructionAnswer{
			MaintenanceInstructionID: &instructionID,
			Value:                    value,
			Author:                   author,
		}
		if err := tx.Create(&created).Error; err != nil {
			return nil, fmt.Errorf("checklist: create maintenance answer: %w", err)
		}
		return &created, nil
	default:
		return nil, fmt.Errorf("checklist: find maintenance answer: %w", err)
	}
}
