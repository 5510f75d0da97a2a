// Package activity provides activity lifecycle operations, including the
// transactional intervention-report update chain: field update, spare parts
// sync, instruction answer mirroring, and maintenance cost rollup.
package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/crewmint/depot/internal/checklist"
	"github.com/crewmint/depot/internal/cost"
	"github.com/crewmint/depot/internal/models"
	"gorm.io/gorm"
)

// ErrEndBeforeStart reports an update whose actual end time precedes its
// actual start time.
var ErrEndBeforeStart = errors.New("activity: actual_end_time must not be before actual_start_time")

// ErrNotFound reports an activity ID with no row behind it.
var ErrNotFound = errors.New("activity: not found")

// ErrForeignInstruction reports an answer keyed to an instruction that does
// not belong to the updated activity.
var ErrForeignInstruction = errors.New("activity: instruction does not belong to activity")

// UpdateOpts holds the fields of one activity update request. Nil pointers
// leave the current value untouched. SpareParts nil means "do not touch the
// lists"; a non-nil value fully replaces them, empty lists included.
type UpdateOpts struct {
	Status                *string
	ActualStartTime       *time.Time
	ActualEndTime         *time.Time
	ResolutionDescription *string
	Proposals             *string
	AdditionalInformation *string
	AssigneeKind          *string
	AssigneeID            *uint
	SpareParts            *PartLists
	Answers               map[uint]string // activity_instruction_id → value
	ImagesToDelete        []string        // stored paths to drop from image answers
	Actor                 string
}

// ListFilters holds optional filters for listing activities.
type ListFilters struct {
	Status        string
	RegionID      uint
	MaintenanceID uint
	TaskID        uint
}

// Get retrieves an activity with its movements (and their parts),
// instructions, and answers preloaded.
func Get(db *gorm.DB, id uint) (*models.Activity, error) {
	var act models.Activity
	err := db.Preload("Movements.SparePart").
		Preload("Instructions").
		Preload("Answers").
		First(&act, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("activity: get %d: %w", id, err)
	}
	return &act, nil
}

// List returns activities matching the given filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Activity, error) {
	q := db.Model(&models.Activity{})
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.RegionID != 0 {
		q = q.Where("region_id = ?", filters.RegionID)
	}
	if filters.MaintenanceID != 0 {
		q = q.Where("maintenance_id = ?", filters.MaintenanceID)
	}
	if filters.TaskID != 0 {
		q = q.Where("task_id = ?", filters.TaskID)
	}

	var activities []models.Activity
	if err := q.Order("created_at DESC").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("activity: list: %w", err)
	}
	return activities, nil
}

// Update applies one intervention-report update atomically: field changes,
// status/assignee propagation to the linked parent, spare parts
// reconciliation, instruction answer upserts with mirroring, then
// maintenance cost recomputation. Any failure rolls the whole chain back.
func Update(db *gorm.DB, id uint, opts UpdateOpts) (*models.Activity, error) {
	var act models.Activity
	if err := db.First(&act, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("activity: get %d for update: %w", id, err)
	}

	if err := validateTimes(&act, opts); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := applyFields(tx, &act, opts); err != nil {
			return err
		}
		if opts.Status != nil {
			if err := propagateStatus(tx, &act, *opts.Status); err != nil {
				return err
			}
		}
		if opts.AssigneeKind != nil {
			if err := propagateAssignee(tx, &act, *opts.AssigneeKind, opts.AssigneeID); err != nil {
				return err
			}
		}
		if opts.SpareParts != nil {
			if err := SyncParts(tx, &act, *opts.SpareParts); err != nil {
				return err
			}
		}
		if err := saveAnswers(tx, &act, opts); err != nil {
			return err
		}
		if err := dropAnswerImages(tx, &act, opts.ImagesToDelete, opts.Actor); err != nil {
			return err
		}
		return cost.Recompute(tx, &act, opts.Actor)
	})
	if err != nil {
		return nil, err
	}

	return Get(db, id)
}

// validateTimes checks the effective start/end pair after the update.
func validateTimes(act *models.Activity, opts UpdateOpts) error {
	start := act.ActualStartTime
	if opts.ActualStartTime != nil {
		start = opts.ActualStartTime
	}
	end := act.ActualEndTime
	if opts.ActualEndTime != nil {
		end = opts.ActualEndTime
	}
	if start != nil && end != nil && end.Before(*start) {
		return ErrEndBeforeStart
	}
	return nil
}

// applyFields writes the plain field updates and refreshes the in-memory
// activity to match.
func applyFields(tx *gorm.DB, act *models.Activity, opts UpdateOpts) error {
	updates := map[string]interface{}{}
	if opts.Status != nil {
		updates["status"] = *opts.Status
		act.Status = *opts.Status
	}
	if opts.ActualStartTime != nil {
		updates["actual_start_time"] = *opts.ActualStartTime
		act.ActualStartTime = opts.ActualStartTime
	}
	if opts.ActualEndTime != nil {
		updates["actual_end_time"] = *opts.ActualEndTime
		act.ActualEndTime = opts.ActualEndTime
	}
	if opts.ResolutionDescription != nil {
		updates["resolution_description"] = *opts.ResolutionDescription
		act.ResolutionDescription = *opts.ResolutionDescription
	}
	if opts.Proposals != nil {
		updates["proposals"] = *opts.Proposals
		act.Proposals = *opts.Proposals
	}
	if opts.AdditionalInformation != nil {
		updates["additional_information"] = *opts.AdditionalInformation
		act.AdditionalInformation = *opts.AdditionalInformation
	}
	if opts.AssigneeKind != nil {
		updates["assignee_kind"] = *opts.AssigneeKind
		updates["assignee_id"] = opts.AssigneeID
		act.AssigneeKind = *opts.AssigneeKind
		act.AssigneeID = opts.AssigneeID
	}
	if len(updates) == 0 {
		return nil
	}
	if err := tx.Model(&models.Activity{}).Where("id = ?", act.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("activity: update %d: %w", act.ID, err)
	}
	return nil
}

// propagateStatus pushes a status change to whichever parent the activity
// executes against.
func propagateStatus(tx *gorm.DB, act *models.Activity, status string) error {
	switch {
	case act.TaskID != nil:
		if err := tx.Model(&models.Task{}).Where("id = ?", *act.TaskID).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("activity: propagate status to task %d: %w", *act.TaskID, err)
		}
	case act.MaintenanceID != nil:
		if err := tx.Model(&models.Maintenance{}).Where("id = ?", *act.MaintenanceID).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("activity: propagate status to maintenance %d: %w", *act.MaintenanceID, err)
		}
	case act.InterventionRequestID != nil:
		if err := tx.Model(&models.InterventionRequest{}).Where("id = ?", *act.InterventionRequestID).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("activity: propagate status to intervention %d: %w", *act.InterventionRequestID, err)
		}
	}
	return nil
}

// propagateAssignee pushes an assignee change to the linked parent.
func propagateAssignee(tx *gorm.DB, act *models.Activity, kind string, assigneeID *uint) error {
	updates := map[string]interface{}{
		"assignee_kind": kind,
		"assignee_id":   assigneeID,
	}
	switch {
	case act.TaskID != nil:
		if err := tx.Model(&models.Task{}).Where("id = ?", *act.TaskID).Updates(updates).Error; err != nil {
			return fmt.Errorf("activity: propagate assignee to task %d: %w", *act.TaskID, err)
		}
	case act.MaintenanceID != nil:
		if err := tx.Model(&models.Maintenance{}).Where("id = ?", *act.MaintenanceID).Updates(updates).Error; err != nil {
			return fmt.Errorf("activity: propagate assignee to maintenance %d: %w", *act.MaintenanceID, err)
		}
	case act.InterventionRequestID != nil:
		if err := tx.Model(&models.InterventionRequest{}).Where("id = ?", *act.InterventionRequestID).Updates(updates).Error; err != nil {
			return fmt.Errorf("activity: propagate assignee to intervention %d: %w", *act.InterventionRequestID, err)
		}
	}
	return nil
}

// saveAnswers upserts each supplied instruction answer and runs the mirror
// synchronizer for it. Every answer save is its own logical event and gets
// its own sync scope.
func saveAnswers(tx *gorm.DB, act *models.Activity, opts UpdateOpts) error {
	for instructionID, value := range opts.Answers {
		var instruction models.ActivityInstruction
		if err := tx.Where("id = ? AND activity_id = ?", instructionID, act.ID).
			First(&instruction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: instruction %d, activity %d", ErrForeignInstruction, instructionID, act.ID)
			}
			return fmt.Errorf("activity: load instruction %d: %w", instructionID, err)
		}

		var answer models.InstructionAnswer
		err := tx.Where("activity_id = ? AND activity_instruction_id = ?", act.ID, instructionID).
			First(&answer).Error
		switch {
		case err == nil:
			answer.Value = value
			answer.Author = opts.Actor
			if err := tx.Save(&answer).Error; err != nil {
				return fmt.Errorf("activity: update answer %d: %w", answer.ID, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			answer = models.InstructionAnswer{
				ActivityID:            &act.ID,
				ActivityInstructionID: &instruction.ID,
				Value:                 value,
				Author:                opts.Actor,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return fmt.Errorf("activity: create answer: %w", err)
			}
		default:
			return fmt.Errorf("activity: find answer for instruction %d: %w", instructionID, err)
		}

		if err := checklist.OnAnswerSaved(tx, checklist.NewScope(), &answer); err != nil {
			return err
		}
	}
	return nil
}

// dropAnswerImages removes deleted media paths from the activity's image and
// signature answers. Each touched answer re-runs the mirror synchronizer so
// the maintenance side stays in step. The files themselves are removed by the
// caller only after the transaction commits.
func dropAnswerImages(tx *gorm.DB, act *models.Activity, deleted []string, actor string) error {
	if len(deleted) == 0 {
		return nil
	}

	var answers []models.InstructionAnswer
	err := tx.Select("instruction_answers.*").
		Joins("JOIN activity_instructions ON activity_instructions.id = instruction_answers.activity_instruction_id").
		Where("instruction_answers.activity_id = ?", act.ID).
		Where("activity_instructions.type IN ?", []string{models.InstructionImage, models.InstructionSignature}).
		Find(&answers).Error
	if err != nil {
		return fmt.Errorf("activity: load image answers for %d: %w", act.ID, err)
	}

	for i := range answers {
		answer := &answers[i]
		merged, err := checklist.MergeImagePaths(answer.Value, deleted, nil)
		if err != nil {
			return err
		}
		if merged == answer.Value {
			continue
		}
		answer.Value = merged
		answer.Author = actor
		if err := tx.Save(answer).Error; err != nil {
			return fmt.Errorf("activity: update image answer %d: %w", answer.ID, err)
		}
		if err := checklist.OnAnswerSaved(tx, checklist.NewScope(), answer); err != nil {
			return err
		}
	}
	return nil
}
