package checklist

import (
	"testing"

	"github.com/crewmint/depot/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Maintenance{}, &models.MaintenanceInstruction{},
		&models.Activity{}, &models.ActivityInstruction{},
		&models.InstructionAnswer{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedMirrorPair creates a maintenance with one instruction, its generated
// activity, and a label-matched activity instruction.
func seedMirrorPair(t *testing.T, db *gorm.DB, label string) (*models.MaintenanceInstruction, *models.Activity, *models.ActivityInstruction) {
	t.Helper()

	m := models.Maintenance{Title: "Pump overhaul"}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed maintenance: %v", err)
	}
	mi := models.MaintenanceInstruction{MaintenanceID: m.ID, Label: label}
	if err := db.Create(&mi).Error; err != nil {
		t.Fatalf("seed maintenance instruction: %v", err)
	}
	a := models.Activity{MaintenanceID: &m.ID, Status: "in_progress"}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	ai := models.ActivityInstruction{ActivityID: a.ID, Label: label}
	if err := db.Create(&ai).Error; err != nil {
		t.Fatalf("seed activity instruction: %v", err)
	}
	return &mi, &a, &ai
}

func TestOnAnswerSaved_MaintenanceToActivity(t *testing.T) {
	db := openTestDB(t)
	mi, a, ai := seedMirrorPair(t, db, "Check oil level")

	answer := models.InstructionAnswer{
		MaintenanceInstructionID: &mi.ID,
		Value:                    "ok",
		Author:                   "alice",
	}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("OnAnswerSaved: %v", err)
	}

	var mirrored models.InstructionAnswer
	if err := db.Where("activity_id = ? AND activity_instruction_id = ?", a.ID, ai.ID).
		First(&mirrored).Error; err != nil {
		t.Fatalf("load mirrored answer: %v", err)
	}
	if mirrored.Value != "ok" {
		t.Errorf("Value = %q, want %q", mirrored.Value, "ok")
	}
	if mirrored.Author != "alice" {
		t.Errorf("Author = %q, want %q", mirrored.Author, "alice")
	}
}

func TestOnAnswerSaved_ActivityToMaintenance(t *testing.T) {
	db := openTestDB(t)
	mi, a, ai := seedMirrorPair(t, db, "Inspect belt")

	answer := models.InstructionAnswer{
		ActivityID:            &a.ID,
		ActivityInstructionID: &ai.ID,
		Value:                 "worn, replaced",
		Author:                "bob",
	}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("OnAnswerSaved: %v", err)
	}

	var mirrored models.InstructionAnswer
	if err := db.Where("activity_id IS NULL AND maintenance_instruction_id = ?", mi.ID).
		First(&mirrored).Error; err != nil {
		t.Fatalf("load mirrored answer: %v", err)
	}
	if mirrored.Value != "worn, replaced" {
		t.Errorf("Value = %q, want %q", mirrored.Value, "worn, replaced")
	}
}

func TestOnAnswerSaved_NoLoop(t *testing.T) {
	db := openTestDB(t)
	mi, a, ai := seedMirrorPair(t, db, "Check seals")

	answer := models.InstructionAnswer{
		MaintenanceInstructionID: &mi.ID,
		Value:                    "ok",
	}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("OnAnswerSaved: %v", err)
	}

	// Exactly one mirrored row on the activity side, and the mirror save
	// must not have echoed anything back onto the maintenance side.
	var activitySide int64
	if err := db.Model(&models.InstructionAnswer{}).
		Where("activity_id = ? AND activity_instruction_id = ?", a.ID, ai.ID).
		Count(&activitySide).Error; err != nil {
		t.Fatalf("count activity answers: %v", err)
	}
	if activitySide != 1 {
		t.Errorf("activity-side answers = %d, want 1", activitySide)
	}

	var maintenanceSide int64
	if err := db.Model(&models.InstructionAnswer{}).
		Where("maintenance_instruction_id = ?", mi.ID).
		Count(&maintenanceSide).Error; err != nil {
		t.Fatalf("count maintenance answers: %v", err)
	}
	if maintenanceSide != 1 {
		t.Errorf("maintenance-side answers = %d, want 1 (the source only)", maintenanceSide)
	}
}

func TestOnAnswerSaved_ReenteredScopeIsNoop(t *testing.T) {
	db := openTestDB(t)
	mi, a, ai := seedMirrorPair(t, db, "Check filter")

	answer := models.InstructionAnswer{MaintenanceInstructionID: &mi.ID, Value: "ok"}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	scope := NewScope()
	if err := OnAnswerSaved(db, scope, &answer); err != nil {
		t.Fatalf("first OnAnswerSaved: %v", err)
	}

	// Re-entry on the same scope must do nothing, even for a fresh answer.
	answer.Value = "changed"
	if err := db.Save(&answer).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := OnAnswerSaved(db, scope, &answer); err != nil {
		t.Fatalf("second OnAnswerSaved: %v", err)
	}

	var mirrored models.InstructionAnswer
	if err := db.Where("activity_id = ? AND activity_instruction_id = ?", a.ID, ai.ID).
		First(&mirrored).Error; err != nil {
		t.Fatalf("load mirrored: %v", err)
	}
	if mirrored.Value != "ok" {
		t.Errorf("Value = %q, want %q (second call must be a no-op)", mirrored.Value, "ok")
	}
}

func TestOnAnswerSaved_UpsertNotDuplicate(t *testing.T) {
	db := openTestDB(t)
	mi, a, ai := seedMirrorPair(t, db, "Grease bearings")

	answer := models.InstructionAnswer{MaintenanceInstructionID: &mi.ID, Value: "first"}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	answer.Value = "second"
	if err := db.Save(&answer).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	var count int64
	if err := db.Model(&models.InstructionAnswer{}).
		Where("activity_id = ? AND activity_instruction_id = ?", a.ID, ai.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("mirrored answers = %d, want 1 (upsert, not append)", count)
	}

	var mirrored models.InstructionAnswer
	if err := db.Where("activity_id = ? AND activity_instruction_id = ?", a.ID, ai.ID).
		First(&mirrored).Error; err != nil {
		t.Fatalf("load mirrored: %v", err)
	}
	if mirrored.Value != "second" {
		t.Errorf("Value = %q, want %q", mirrored.Value, "second")
	}
}

func TestOnAnswerSaved_LabelMismatchSkipped(t *testing.T) {
	db := openTestDB(t)

	m := models.Maintenance{Title: "Valve check"}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed maintenance: %v", err)
	}
	mi := models.MaintenanceInstruction{MaintenanceID: m.ID, Label: "Torque bolts"}
	if err := db.Create(&mi).Error; err != nil {
		t.Fatalf("seed instruction: %v", err)
	}
	a := models.Activity{MaintenanceID: &m.ID}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	ai := models.ActivityInstruction{ActivityID: a.ID, Label: "Torque bolts (renamed)"}
	if err := db.Create(&ai).Error; err != nil {
		t.Fatalf("seed activity instruction: %v", err)
	}

	answer := models.InstructionAnswer{MaintenanceInstructionID: &mi.ID, Value: "done"}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("OnAnswerSaved: %v", err)
	}

	var count int64
	if err := db.Model(&models.InstructionAnswer{}).
		Where("activity_instruction_id = ?", ai.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("mirrored answers = %d, want 0 (label mismatch is skipped)", count)
	}
}

func TestOnAnswerSaved_NoMaintenanceParentSkipped(t *testing.T) {
	db := openTestDB(t)

	a := models.Activity{Status: "in_progress"}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	ai := models.ActivityInstruction{ActivityID: a.ID, Label: "Standalone step"}
	if err := db.Create(&ai).Error; err != nil {
		t.Fatalf("seed instruction: %v", err)
	}

	answer := models.InstructionAnswer{ActivityID: &a.ID, ActivityInstructionID: &ai.ID, Value: "ok"}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("OnAnswerSaved: %v", err)
	}

	var count int64
	if err := db.Model(&models.InstructionAnswer{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("answers = %d, want 1 (no mirror without a maintenance)", count)
	}
}

func TestOnAnswerSaved_PlainAnswerIgnored(t *testing.T) {
	db := openTestDB(t)

	answer := models.InstructionAnswer{Value: "free floating"}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}
	if err := OnAnswerSaved(db, NewScope(), &answer); err != nil {
		t.Fatalf("OnAnswerSaved: %v", err)
	}
}
