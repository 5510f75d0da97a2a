package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/crewmint/depot/internal/config"
	"github.com/crewmint/depot/internal/models"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Name: "depot"})
	want := "root@tcp(127.0.0.1:3306)/depot?parseTime=true&charset=utf8mb4"
	if got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestDSN_WithPassword(t *testing.T) {
	got := DSN(config.DatabaseConfig{User: "depot", Pass: "s3cret", Host: "db", Port: 3307, Name: "depot"})
	if !strings.HasPrefix(got, "depot:s3cret@tcp(db:3307)/depot") {
		t.Errorf("DSN = %q", got)
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "postgres"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("error = %q", err)
	}
}

func TestConnect_SQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	gormDB, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// All tables must exist after migration.
	for _, m := range AllModels() {
		if !gormDB.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
}

func TestSeedDemo_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.db")
	gormDB, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	if err := SeedDemo(gormDB); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	if err := SeedDemo(gormDB); err != nil {
		t.Fatalf("SeedDemo second run: %v", err)
	}

	var regions int64
	if err := gormDB.Model(&models.Region{}).Count(&regions).Error; err != nil {
		t.Fatalf("count regions: %v", err)
	}
	if regions != 1 {
		t.Errorf("regions = %d, want 1", regions)
	}

	var parts int64
	if err := gormDB.Model(&models.SparePart{}).Count(&parts).Error; err != nil {
		t.Fatalf("count parts: %v", err)
	}
	if parts != 3 {
		t.Errorf("parts = %d, want 3", parts)
	}
}

func TestSeedRegions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.db")
	gormDB, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	if err := SeedRegions(gormDB, []string{"north", "south"}); err != nil {
		t.Fatalf("SeedRegions: %v", err)
	}
	if err := SeedRegions(gormDB, []string{"north"}); err != nil {
		t.Fatalf("SeedRegions repeat: %v", err)
	}

	var count int64
	if err := gormDB.Model(&models.Region{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("regions = %d, want 2", count)
	}
}
