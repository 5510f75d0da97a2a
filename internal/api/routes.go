package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/crewmint/depot/internal/activity"
	"github.com/crewmint/depot/internal/models"
	"github.com/crewmint/depot/internal/stock"
	"github.com/crewmint/depot/internal/storage"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, store *storage.Local, logger *zap.Logger) {
	router.GET("/activities", handleActivityList(db))
	router.GET("/activities/:id", handleActivityDetail(db))
	router.PATCH("/activities/:id", handleActivityUpdate(db, store, logger))
	router.GET("/maintenances/:id", handleMaintenanceDetail(db))
	router.GET("/regions/:id/stock", handleRegionStock(db))
	router.GET("/stock/low", handleLowStock(db))
}

// updateActivityRequest is the PATCH /activities/:id payload. Absent fields
// leave the current value untouched; the spare parts lists, when present,
// fully replace the recorded ones.
type updateActivityRequest struct {
	Status                *string               `json:"status"`
	ActualStartTime       *time.Time            `json:"actual_start_time"`
	ActualEndTime         *time.Time            `json:"actual_end_time"`
	ResolutionDescription *string               `json:"resolution_description"`
	Proposals             *string               `json:"proposals"`
	AdditionalInformation *string               `json:"additional_information"`
	AssigneeKind          *string               `json:"assignee_kind"`
	AssigneeID            *uint                 `json:"assignee_id"`
	SparePartsUsed        *[]activity.PartLine  `json:"spare_parts_used"`
	SparePartsReturned    *[]activity.PartLine  `json:"spare_parts_returned"`
	InstructionAnswers    map[uint]string       `json:"instruction_answers"`
	ImagesToDelete        []string              `json:"images_to_delete"`
	Actor                 string                `json:"actor"`
}

func handleActivityUpdate(db *gorm.DB, store *storage.Local, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity id"})
			return
		}

		var req updateActivityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
			return
		}
		if msg := validatePartLines(req); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		opts := activity.UpdateOpts{
			Status:                req.Status,
			ActualStartTime:       req.ActualStartTime,
			ActualEndTime:         req.ActualEndTime,
			ResolutionDescription: req.ResolutionDescription,
			Proposals:             req.Proposals,
			AdditionalInformation: req.AdditionalInformation,
			AssigneeKind:          req.AssigneeKind,
			AssigneeID:            req.AssigneeID,
			Answers:               req.InstructionAnswers,
			ImagesToDelete:        req.ImagesToDelete,
			Actor:                 req.Actor,
		}
		if req.SparePartsUsed != nil || req.SparePartsReturned != nil {
			lists := activity.PartLists{}
			if req.SparePartsUsed != nil {
				lists.Used = *req.SparePartsUsed
			}
			if req.SparePartsReturned != nil {
				lists.Returned = *req.SparePartsReturned
			}
			opts.SpareParts = &lists
		}

		act, err := activity.Update(db, id, opts)
		if err != nil {
			writeUpdateError(c, logger, err)
			return
		}

		// Media deletion happens only after the update committed; the list is
		// namespace-filtered inside the store.
		if store != nil && len(req.ImagesToDelete) > 0 {
			store.DeleteAnswerFiles(req.ImagesToDelete)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "activity updated",
			"activity": act,
		})
	}
}

// writeUpdateError maps update-chain failures onto HTTP statuses.
func writeUpdateError(c *gin.Context, logger *zap.Logger, err error) {
	var insufficient *stock.InsufficientStockError
	var missingRegion *stock.MissingRegionError
	switch {
	case errors.Is(err, activity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, activity.ErrEndBeforeStart),
		errors.Is(err, activity.ErrForeignInstruction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient stock",
			"reference": insufficient.Reference,
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
	case errors.As(err, &missingRegion):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error("activity update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// validatePartLines rejects non-positive quantities before any DB work.
func validatePartLines(req updateActivityRequest) string {
	check := func(lines []activity.PartLine) string {
		for _, l := range lines {
			if l.Quantity < 1 {
				return "spare part quantities must be at least 1"
			}
			if l.ID == 0 {
				return "spare part id is required"
			}
		}
		return ""
	}
	if req.SparePartsUsed != nil {
		if msg := check(*req.SparePartsUsed); msg != "" {
			return msg
		}
	}
	if req.SparePartsReturned != nil {
		if msg := check(*req.SparePartsReturned); msg != "" {
			return msg
		}
	}
	return ""
}

func handleActivityList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := activity.ListFilters{
			Status:        c.Query("status"),
			RegionID:      queryID(c, "region_id"),
			MaintenanceID: queryID(c, "maintenance_id"),
			TaskID:        queryID(c, "task_id"),
		}
		activities, err := activity.List(db, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"activities": activities})
	}
}

func handleActivityDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity id"})
			return
		}
		act, err := activity.Get(db, id)
		if err != nil {
			if errors.Is(err, activity.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"activity": act})
	}
}

func handleMaintenanceDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maintenance id"})
			return
		}

		var m models.Maintenance
		err = db.Preload("Activities").Preload("Instructions").First(&m, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "maintenance not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		var expenses []models.Expense
		if err := db.Where("owner_kind = ? AND owner_id = ?",
			models.ExpenseOwnerMaintenance, m.ID).
			Order("date ASC, id ASC").
			Find(&expenses).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"maintenance": m,
			"expenses":    expenses,
		})
	}
}

func handleRegionStock(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid region id"})
			return
		}

		var region models.Region
		if err := db.First(&region, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "region not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		var parts []models.SparePart
		if err := db.Where("region_id = ?", id).
			Order("reference ASC").
			Find(&parts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"region": region,
			"stock":  parts,
		})
	}
}

func handleLowStock(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := stock.LowStock(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stock": rows})
	}
}

func parseID(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func queryID(c *gin.Context, name string) uint {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
