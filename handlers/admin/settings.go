package admin

import (
	"log"
	"strconv"

	"github.com/coinacademy/api/database"
	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/audit"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateSettingRequest represents the request body for updating a setting
type UpdateSettingRequest struct {
	Value       string `json:"value" validate:"required"`
	Description string `json:"description,omitempty"`
}

// priceSettingKeys are the settings that must parse as positive floats
var priceSettingKeys = map[string]bool{
	model.SettingPriceMonthly:   true,
	model.SettingPriceQuarterly: true,
	model.SettingPriceAnnual:    true,
}

// ListSettings retrieves all application settings
// GET /admin/settings
func ListSettings(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var settings []model.AppSetting
	if err := db.Order("key ASC").Find(&settings).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch settings")
	}

	return response.Success(c, settings)
}

// UpsertSetting creates or updates a setting by key. New subscription
// prices apply to checkouts from this point on; already created
// payments keep the amount they were submitted with.
// PUT /admin/settings/:key
func UpsertSetting(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	key := c.Params("key")
	if key == "" {
		return response.BadRequest(c, "Setting key is required")
	}

	var req UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Value == "" {
		return response.BadRequest(c, "Value is required")
	}

	settingType := "string"
	if priceSettingKeys[key] {
		price, err := strconv.ParseFloat(req.Value, 64)
		if err != nil || price <= 0 {
			return response.BadRequest(c, "Price must be a positive number")
		}
		settingType = "float"
	}

	setting := model.AppSetting{
		Key:         key,
		Value:       req.Value,
		Type:        settingType,
		Description: req.Description,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "type", "description", "updated_at",
		}),
	}).Create(&setting).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to save setting")
	}

	recorder := audit.NewRecorder(db)
	if err := recorder.Record(c.Context(), admin.ID, model.AuditSettingUpdated, map[string]interface{}{
		"key":   key,
		"value": req.Value,
	}); err != nil {
		log.Printf("[ADMIN] Audit write failed for setting %s: %v", key, err)
	}

	return response.Success(c, setting)
}
