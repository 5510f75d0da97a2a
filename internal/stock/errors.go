package stock

import "fmt"

// InsufficientStockError reports a debit that exceeds the available quantity
// of a per-region stock row.
type InsufficientStockError struct {
	Reference string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock: insufficient stock for %s: required %d, available %d", e.Reference, e.Required, e.Available)
}

// MissingRegionError reports an activity with no region assigned. Stock
// operations cannot run without one.
type MissingRegionError struct {
	ActivityID uint
}

func (e *MissingRegionError) Error() string {
	return fmt.Sprintf("stock: activity %d has no region; stock operations require one", e.ActivityID)
}
