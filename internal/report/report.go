// Package report builds xlsx exports of the stock ledger and maintenance
// costs.
package report

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/crewmint/depot/internal/models"
)

// ErrMaintenanceNotFound reports a cost report request for an unknown
// maintenance.
var ErrMaintenanceNotFound = errors.New("report: maintenance not found")

// Stock builds a per-region inventory workbook. Rows below their minimum
// quantity are highlighted.
func Stock(db *gorm.DB) (*excelize.File, error) {
	var parts []models.SparePart
	if err := db.Preload("Region").
		Order("region_id ASC, reference ASC").
		Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("report: load stock: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Stock"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Region", "Reference", "Label", "Quantity", "Min quantity", "Unit price"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("report: write header: %w", err)
		}
	}

	lowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FDE9D9"}},
	})
	if err != nil {
		return nil, fmt.Errorf("report: create style: %w", err)
	}

	for i, p := range parts {
		row := i + 2
		values := []interface{}{p.Region.Name, p.Reference, p.Label, p.Quantity, p.MinQuantity, p.Price}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("report: write row %d: %w", row, err)
			}
		}
		if p.Quantity < p.MinQuantity {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := f.SetCellStyle(sheet, first, last, lowStyle); err != nil {
				return nil, fmt.Errorf("report: style row %d: %w", row, err)
			}
		}
	}
	return f, nil
}

// MaintenanceCosts builds a cost summary workbook for one maintenance: the
// derived totals followed by the expense breakdown.
func MaintenanceCosts(db *gorm.DB, id uint) (*excelize.File, error) {
	var m models.Maintenance
	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrMaintenanceNotFound, id)
		}
		return nil, fmt.Errorf("report: load maintenance %d: %w", id, err)
	}

	var expenses []models.Expense
	if err := db.Where("owner_kind = ? AND owner_id = ?",
		models.ExpenseOwnerMaintenance, m.ID).
		Order("date ASC, id ASC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("report: load expenses for %d: %w", id, err)
	}

	f := excelize.NewFile()
	const sheet = "Costs"
	f.SetSheetName(f.GetSheetName(0), sheet)

	summary := [][]interface{}{
		{"Maintenance", m.Title},
		{"Status", m.Status},
		{"Labor cost", m.LaborCost},
		{"Material cost", m.MaterialCost},
		{"Total cost", m.Cost},
	}
	for i, pair := range summary {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("report: write summary: %w", err)
			}
		}
	}

	headerRow := len(summary) + 2
	headers := []string{"Category", "Status", "Label", "Amount", "Date", "Actor"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("report: write expense header: %w", err)
		}
	}
	for i, e := range expenses {
		row := headerRow + 1 + i
		values := []interface{}{e.Category, e.Status, e.Label, e.Amount, e.Date.Format("2006-01-02"), e.Actor}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("report: write expense row %d: %w", row, err)
			}
		}
	}
	return f, nil
}
