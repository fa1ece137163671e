package admin

import (
	"strconv"

	"github.com/coinacademy/api/database"
	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// auditPageCap bounds any single audit page; the trail can grow without
// limit and this endpoint is for recent-activity review, not export
const auditPageCap = 100

// ListAuditLogs retrieves the admin action trail, newest first
// GET /admin/audit
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	action := c.Query("action", "")
	adminID := c.Query("admin_id", "")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > auditPageCap {
		limit = 50
	}

	query := db.Model(&model.AuditLog{})

	if action != "" {
		query = query.Where("action = ?", action)
	}
	if adminID != "" {
		query = query.Where("admin_id = ?", adminID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var logs []model.AuditLog
	if err := query.Preload("Admin").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	// Strip admin password hashes from the preloaded rows
	for i := range logs {
		logs[i].Admin.PasswordHash = ""
	}

	return response.Paginated(c, logs, pagination)
}
