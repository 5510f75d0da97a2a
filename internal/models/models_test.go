package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestSparePart_Fields(t *testing.T) {
	typ := reflect.TypeOf(SparePart{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Reference", "uniqueIndex:idx_ref_region")
	assertGormTag(t, typ, "RegionID", "uniqueIndex:idx_ref_region")
	assertGormTag(t, typ, "Quantity", "default:0")
	assertGormTag(t, typ, "Price", "default:0")
}

func TestPartMovement_Fields(t *testing.T) {
	typ := reflect.TypeOf(PartMovement{})

	assertGormTag(t, typ, "ActivityID", "not null")
	assertGormTag(t, typ, "SparePartID", "not null")
	assertGormTag(t, typ, "Type", "size:16")
}

func TestActivity_OptionalParents(t *testing.T) {
	typ := reflect.TypeOf(Activity{})

	// Each linkable parent must be nullable: an activity belongs to at most
	// one of task / maintenance / intervention request.
	for _, field := range []string{"TaskID", "MaintenanceID", "InterventionRequestID", "ParentID", "RegionID"} {
		f, ok := typ.FieldByName(field)
		if !ok {
			t.Fatalf("Activity.%s: field not found", field)
		}
		if f.Type.Kind() != reflect.Ptr {
			t.Errorf("Activity.%s should be a pointer, got %s", field, f.Type)
		}
	}
}

func TestInstructionAnswer_MutuallyExclusiveKeys(t *testing.T) {
	typ := reflect.TypeOf(InstructionAnswer{})

	for _, field := range []string{"TaskInstructionID", "MaintenanceInstructionID", "ActivityInstructionID", "ActivityID"} {
		f, ok := typ.FieldByName(field)
		if !ok {
			t.Fatalf("InstructionAnswer.%s: field not found", field)
		}
		if f.Type.Kind() != reflect.Ptr {
			t.Errorf("InstructionAnswer.%s should be a pointer, got %s", field, f.Type)
		}
	}
}

func TestExpense_Constants(t *testing.T) {
	if ExpenseParts != "parts" {
		t.Errorf("ExpenseParts = %q", ExpenseParts)
	}
	if len(DerivedExpenseCategories) != 3 {
		t.Fatalf("DerivedExpenseCategories = %v, want 3 entries", DerivedExpenseCategories)
	}
	for _, c := range DerivedExpenseCategories {
		switch c {
		case ExpenseParts, ExpenseLaborTechnician, ExpenseLaborTacheron:
		default:
			t.Errorf("unexpected derived category %q", c)
		}
	}
}

func TestMaintenance_DerivedCostColumns(t *testing.T) {
	typ := reflect.TypeOf(Maintenance{})

	assertGormTag(t, typ, "LaborCost", "default:0")
	assertGormTag(t, typ, "MaterialCost", "default:0")
	assertGormTag(t, typ, "Cost", "default:0")
}
