package stock

import (
	"errors"
	"strings"
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
	if err := db.AutoMigrate(&models.Region{}, &models.SparePart{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedPart(t *testing.T, db *gorm.DB, reference string, regionID uint, qty int, price float64) *models.SparePart {
	t.Helper()
	part := models.SparePart{
		Reference: reference,
		RegionID:  regionID,
		Label:     "Part " + reference,
		Quantity:  qty,
		Price:     price,
	}
	if err := db.Create(&part).Error; err != nil {
		t.Fatalf("seed part %s: %v", reference, err)
	}
	return &part
}

func TestForRegion_Found(t *testing.T) {
	db := openTestDB(t)
	seedPart(t, db, "REF-1", 1, 10, 50)

	row, err := ForRegion(db, "REF-1", 1)
	if err != nil {
		t.Fatalf("ForRegion: %v", err)
	}
	if row.Quantity != 10 {
		t.Errorf("Quantity = %d, want 10", row.Quantity)
	}
}

func TestForRegion_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := ForRegion(db, "REF-X", 1)
	if err == nil {
		t.Fatal("expected error for missing row")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("error = %v, want wrapped ErrRecordNotFound", err)
	}
}

func TestForRegion_MatchesByRegion(t *testing.T) {
	db := openTestDB(t)
	seedPart(t, db, "REF-1", 1, 10, 50)
	seedPart(t, db, "REF-1", 2, 3, 50)

	row, err := ForRegion(db, "REF-1", 2)
	if err != nil {
		t.Fatalf("ForRegion: %v", err)
	}
	if row.RegionID != 2 {
		t.Errorf("RegionID = %d, want 2", row.RegionID)
	}
	if row.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", row.Quantity)
	}
}

func TestForRegionOrCreate_Existing(t *testing.T) {
	db := openTestDB(t)
	src := seedPart(t, db, "REF-1", 1, 10, 50)

	row, err := ForRegionOrCreate(db, src, 1)
	if err != nil {
		t.Fatalf("ForRegionOrCreate: %v", err)
	}
	if row.ID != src.ID {
		t.Errorf("ID = %d, want %d (existing row)", row.ID, src.ID)
	}
}

func TestForRegionOrCreate_CreatesWithSourceMetadata(t *testing.T) {
	db := openTestDB(t)
	src := seedPart(t, db, "REF-1", 1, 10, 50)
	src.MinQuantity = 4

	row, err := ForRegionOrCreate(db, src, 2)
	if err != nil {
		t.Fatalf("ForRegionOrCreate: %v", err)
	}
	if row.RegionID != 2 {
		t.Errorf("RegionID = %d, want 2", row.RegionID)
	}
	if row.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0 (new rows start empty)", row.Quantity)
	}
	if row.Price != 50 {
		t.Errorf("Price = %v, want 50 (copied from source)", row.Price)
	}
	if row.MinQuantity != 4 {
		t.Errorf("MinQuantity = %d, want 4 (copied from source)", row.MinQuantity)
	}
	if row.Label != src.Label {
		t.Errorf("Label = %q, want %q", row.Label, src.Label)
	}
}

func TestAdjust_Credit(t *testing.T) {
	db := openTestDB(t)
	row := seedPart(t, db, "REF-1", 1, 10, 50)

	if err := Adjust(db, row, 5); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if row.Quantity != 15 {
		t.Errorf("in-memory Quantity = %d, want 15", row.Quantity)
	}

	var stored models.SparePart
	if err := db.First(&stored, row.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Quantity != 15 {
		t.Errorf("stored Quantity = %d, want 15", stored.Quantity)
	}
}

func TestAdjust_DebitToZero(t *testing.T) {
	db := openTestDB(t)
	row := seedPart(t, db, "REF-1", 1, 10, 50)

	if err := Adjust(db, row, -10); err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if row.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0", row.Quantity)
	}
}

func TestAdjust_InsufficientStock(t *testing.T) {
	db := openTestDB(t)
	row := seedPart(t, db, "REF-1", 1, 10, 50)

	err := Adjust(db, row, -15)
	if err == nil {
		t.Fatal("expected error for over-debit")
	}

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %T, want *InsufficientStockError", err)
	}
	if insufficient.Reference != "REF-1" {
		t.Errorf("Reference = %q, want %q", insufficient.Reference, "REF-1")
	}
	if insufficient.Required != 15 {
		t.Errorf("Required = %d, want 15", insufficient.Required)
	}
	if insufficient.Available != 10 {
		t.Errorf("Available = %d, want 10", insufficient.Available)
	}

	// Row untouched.
	var stored models.SparePart
	if err := db.First(&stored, row.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Quantity != 10 {
		t.Errorf("stored Quantity = %d, want 10 (unchanged)", stored.Quantity)
	}
}

func TestMissingRegionError_Message(t *testing.T) {
	err := &MissingRegionError{ActivityID: 7}
	if !strings.Contains(err.Error(), "activity 7") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestLowStock(t *testing.T) {
	db := openTestDB(t)
	if err := db.Create(&models.Region{Name: "central"}).Error; err != nil {
		t.Fatalf("seed region: %v", err)
	}

	ok := seedPart(t, db, "REF-OK", 1, 10, 1)
	ok.MinQuantity = 5
	if err := db.Save(ok).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	low := seedPart(t, db, "REF-LOW", 1, 2, 1)
	low.MinQuantity = 5
	if err := db.Save(low).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := LowStock(db)
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Reference != "REF-LOW" {
		t.Errorf("Reference = %q, want %q", rows[0].Reference, "REF-LOW")
	}
}
