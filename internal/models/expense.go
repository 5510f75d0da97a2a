package models

import "time"

// Expense categories.
const (
	ExpenseParts           = "parts"
	ExpenseLaborTechnician = "labor_technician"
	ExpenseLaborTacheron   = "labor_tacheron"
	ExpenseLabor           = "labor"
	ExpenseTravel          = "travel"
	ExpenseExternalService = "external_service"
	ExpenseOther           = "other"
)

// Expense statuses.
const (
	ExpensePending  = "pending"
	ExpenseApproved = "approved"
	ExpenseRejected = "rejected"
	ExpensePaid     = "paid"
)

// Expense owner kinds. An expense belongs to exactly one owning entity.
const (
	ExpenseOwnerMaintenance = "maintenance"
	ExpenseOwnerActivity    = "activity"
)

// Expense is a cost line attached to a maintenance or an activity. Rows in
// the derived categories (parts, labor_technician, labor_tacheron) are a
// materialized view: cost recomputation deletes and regenerates them, so
// they must never be edited in place. Rows in the other categories are
// ordinary ledger entries and survive recomputation.
type Expense struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	OwnerKind string  `gorm:"size:16;not null;index:idx_expense_owner"`
	OwnerID   uint    `gorm:"not null;index:idx_expense_owner"`
	Category  string  `gorm:"size:32;not null;index"`
	Status    string  `gorm:"size:16;default:pending"`
	Label     string  `gorm:"size:255"`
	Amount    float64 `gorm:"not null;default:0"`
	Date      time.Time
	Actor     string `gorm:"size:128"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DerivedExpenseCategories lists the categories regenerated by cost
// recomputation.
var DerivedExpenseCategories = []string{
	ExpenseParts,
	ExpenseLaborTechnician,
	ExpenseLaborTacheron,
}
