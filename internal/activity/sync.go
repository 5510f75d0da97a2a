package activity

import (
	"errors"
	"fmt"

	"github.com/crewmint/depot/internal/models"
	"github.com/crewmint/depot/internal/stock"
	"gorm.io/gorm"
)

// PartLine is one entry of a used or returned spare parts list.
type PartLine struct {
	ID       uint `json:"id"`
	Quantity int  `json:"quantity"`
}

// PartLists carries the full replacement used/returned lists for one sync.
type PartLists struct {
	Used     []PartLine
	Returned []PartLine
}

// SyncParts makes the activity's movement rows equal to the supplied lists
// while keeping the per-region ledger consistent. The old state is fully
// reversed before the new state is applied, so repeated syncs with the same
// lists leave identical ledger quantities. Must run inside the caller's
// transaction: any error aborts the whole activity update.
func SyncParts(tx *gorm.DB, act *models.Activity, lists PartLists) error {
	if act.RegionID == nil {
		return &stock.MissingRegionError{ActivityID: act.ID}
	}
	regionID := *act.RegionID

	if err := reverseMovements(tx, act.ID, regionID); err != nil {
		return err
	}

	// Old movements and the activity's derived parts expenses are replaced
	// wholesale, never diffed.
	if err := tx.Where("activity_id = ?", act.ID).
		Delete(&models.PartMovement{}).Error; err != nil {
		return fmt.Errorf("activity: delete movements for %d: %w", act.ID, err)
	}
	if err := tx.Where("owner_kind = ? AND owner_id = ? AND category = ?",
		models.ExpenseOwnerActivity, act.ID, models.ExpenseParts).
		Delete(&models.Expense{}).Error; err != nil {
		return fmt.Errorf("activity: delete parts expenses for %d: %w", act.ID, err)
	}

	for _, line := range lists.Used {
		if err := applyUsed(tx, act, regionID, line); err != nil {
			return err
		}
	}
	for _, line := range lists.Returned {
		if err := applyReturned(tx, act, regionID, line); err != nil {
			return err
		}
	}
	return nil
}

// reverseMovements undoes the ledger effect of every existing movement under
// the activity. Reversal matches by part reference within the activity's
// region: the recorded spare_part_id may point at another region's row.
func reverseMovements(tx *gorm.DB, activityID, regionID uint) error {
	var movements []models.PartMovement
	if err := tx.Preload("SparePart").
		Where("activity_id = ?", activityID).
		Find(&movements).Error; err != nil {
		return fmt.Errorf("activity: load movements for %d: %w", activityID, err)
	}

	for _, mv := range movements {
		switch mv.Type {
		case models.MovementUsed:
			row, err := stock.ForRegionOrCreate(tx, &mv.SparePart, regionID)
			if err != nil {
				return err
			}
			if err := stock.Adjust(tx, row, mv.QuantityUsed); err != nil {
				return err
			}
		case models.MovementReturned:
			row, err := stock.ForRegion(tx, mv.SparePart.Reference, regionID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &stock.InsufficientStockError{
						Reference: mv.SparePart.Reference,
						Required:  mv.QuantityReturned,
						Available: 0,
					}
				}
				return err
			}
			if err := stock.Adjust(tx, row, -mv.QuantityReturned); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyUsed debits the region row for one used entry and records the
// movement, plus a parts expense on the activity itself when it has no
// direct maintenance parent (maintenance-owned activities get their parts
// expense through cost aggregation instead).
func applyUsed(tx *gorm.DB, act *models.Activity, regionID uint, line PartLine) error {
	src, err := loadPart(tx, line.ID)
	if err != nil {
		return err
	}

	row, err := stock.ForRegion(tx, src.Reference, regionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &stock.InsufficientStockError{
				Reference: src.Reference,
				Required:  line.Quantity,
				Available: 0,
			}
		}
		return err
	}
	if err := stock.Adjust(tx, row, -line.Quantity); err != nil {
		return err
	}

	movement := models.PartMovement{
		ActivityID:   act.ID,
		SparePartID:  row.ID,
		Type:         models.MovementUsed,
		QuantityUsed: line.Quantity,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("activity: create used movement for %s: %w", src.Reference, err)
	}

	if act.MaintenanceID == nil {
		expense := models.Expense{
			OwnerKind: models.ExpenseOwnerActivity,
			OwnerID:   act.ID,
			Category:  models.ExpenseParts,
			Status:    models.ExpensePending,
			Label:     row.Label,
			Amount:    row.Price * float64(line.Quantity),
		}
		if err := tx.Create(&expense).Error; err != nil {
			return fmt.Errorf("activity: create parts expense for %s: %w", src.Reference, err)
		}
	}
	return nil
}

// applyReturned credits the region row for one returned entry, creating the
// row when the reference has never been stocked in this region.
func applyReturned(tx *gorm.DB, act *models.Activity, regionID uint, line PartLine) error {
	src, err := loadPart(tx, line.ID)
	if err != nil {
		return err
	}

	row, err := stock.ForRegionOrCreate(tx, src, regionID)
	if err != nil {
		return err
	}
	if err := stock.Adjust(tx, row, line.Quantity); err != nil {
		return err
	}

	movement := models.PartMovement{
		ActivityID:       act.ID,
		SparePartID:      row.ID,
		Type:             models.MovementReturned,
		QuantityReturned: line.Quantity,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("activity: create returned movement for %s: %w", src.Reference, err)
	}
	return nil
}

func loadPart(tx *gorm.DB, id uint) (*models.SparePart, error) {
	var part models.SparePart
	if err := tx.First(&part, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("activity: spare part not found: %d", id)
		}
		return nil, fmt.Errorf("activity: load spare part %d: %w", id, err)
	}
	return &part, nil
}
