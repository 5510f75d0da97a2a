// Package stock implements the per-region spare part quantity ledger.
//
// The mutable Quantity column on the per-region SparePart row is the
// authoritative count. Movements recorded by activities are an audit trail
// on the side, not a source of truth.
package stock

import (
	"errors"
	"fmt"

	"github.com/crewmint/depot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate adds a row lock on drivers that support it. SQLite has no
// SELECT FOR UPDATE; its single-writer model serializes the transaction
// anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ForRegion resolves the stock row for a part reference within a region,
// holding a row lock until the surrounding transaction ends. Returns
// gorm.ErrRecordNotFound wrapped if no such row exists.
func ForRegion(tx *gorm.DB, reference string, regionID uint) (*models.SparePart, error) {
	var row models.SparePart
	err := lockForUpdate(tx).
		Where("reference = ? AND region_id = ?", reference, regionID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("stock: no row for %s in region %d: %w", reference, regionID, err)
		}
		return nil, fmt.Errorf("stock: resolve %s in region %d: %w", reference, regionID, err)
	}
	return &row, nil
}

// ForRegionOrCreate resolves the stock row for src's reference within
// regionID, creating it when absent. A new row copies label, price and
// minimum quantity from the source part and starts at quantity zero.
func ForRegionOrCreate(tx *gorm.DB, src *models.SparePart, regionID uint) (*models.SparePart, error) {
	row, err := ForRegion(tx, src.Reference, regionID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.SparePart{
		Reference:   src.Reference,
		RegionID:    regionID,
		Label:       src.Label,
		Quantity:    0,
		MinQuantity: src.MinQuantity,
		Price:       src.Price,
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, fmt.Errorf("stock: create region row for %s in region %d: %w", src.Reference, regionID, err)
	}
	return &created, nil
}

// Adjust applies a signed quantity delta to a stock row. A debit that would
// take the quantity below zero fails with InsufficientStockError and leaves
// the row untouched.
func Adjust(tx *gorm.DB, row *models.SparePart, delta int) error {
	next := row.Quantity + delta
	if next < 0 {
		return &InsufficientStockError{
			Reference: row.Reference,
			Required:  -delta,
			Available: row.Quantity,
		}
	}
	if err := tx.Model(&models.SparePart{}).Where("id = ?", row.ID).
		Update("quantity", next).Error; err != nil {
		return fmt.Errorf("stock: adjust %s by %d: %w", row.Reference, delta, err)
	}
	row.Quantity = next
	return nil
}

// LowStock returns rows whose quantity has fallen below their minimum,
// ordered by region then reference.
func LowStock(db *gorm.DB) ([]models.SparePart, error) {
	var rows []models.SparePart
	if err := db.Preload("Region").
		Where("quantity < min_quantity").
		Order("region_id ASC, reference ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("stock: low stock scan: %w", err)
	}
	return rows, nil
}
