package admin

import (
	"log"
	"strconv"
	"strings"

	"github.com/coinacademy/api/database"
	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/audit"
	"github.com/coinacademy/api/utils/auth"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Role    string `query:"role"`
	Status  string `query:"status"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// ListUsers retrieves all users with pagination and filters
// GET /admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	// Default pagination
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Sort == "" {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" && req.SortDir != "desc" {
		req.SortDir = "desc"
	}

	query := db.Model(&model.User{})

	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	// Search by name or email
	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	orderBy := req.Sort + " " + req.SortDir

	if err := query.Offset(offset).Limit(req.Limit).Order(orderBy).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	// Remove sensitive data
	for i := range users {
		users[i].PasswordHash = ""
	}

	return response.SuccessWithMessage(c, "Users retrieved successfully", fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":        req.Page,
			"limit":       req.Limit,
			"total":       total,
			"total_pages": (total + int64(req.Limit) - 1) / int64(req.Limit),
		},
	})
}

// GetUser retrieves a specific user by ID
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var user model.User
	if err := db.Preload("Enrollments").First(&user, uint(userID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	user.PasswordHash = ""

	return response.Success(c, user)
}

// SuspendUser suspends a user account. Suspension takes effect on the
// user's next request: the auth middleware re-reads the user row, and
// all outstanding tokens are invalidated by the version bump.
// POST /admin/users/:id/suspend
func SuspendUser(c *fiber.Ctx, store database.Storage) error {
	return setUserStatus(c, store, model.UserStatusSuspended, model.AuditUserSuspended)
}

// UnsuspendUser restores a suspended account
// POST /admin/users/:id/unsuspend
func UnsuspendUser(c *fiber.Ctx, store database.Storage) error {
	return setUserStatus(c, store, model.UserStatusActive, model.AuditUserUnsuspended)
}

func setUserStatus(c *fiber.Ctx, store database.Storage, status, auditAction string) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	if uint(userID) == admin.ID {
		return response.BadRequest(c, "You cannot change your own account status")
	}

	var user model.User
	if err := db.First(&user, uint(userID)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Status == status {
		return response.Conflict(c, "User is already in that status")
	}

	if err := db.Model(&user).Update("status", status).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user status")
	}

	// Kill existing sessions when suspending
	if status == model.UserStatusSuspended {
		blacklist := auth.NewBlacklistService(db)
		if err := blacklist.RevokeAllUserTokens(c.Context(), user.ID); err != nil {
			log.Printf("[ADMIN] Failed to revoke tokens for suspended user %d: %v", user.ID, err)
		}
	}

	recorder := audit.NewRecorder(db)
	if err := recorder.Record(c.Context(), admin.ID, auditAction, map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	}); err != nil {
		log.Printf("[ADMIN] Audit write failed for user %d: %v", user.ID, err)
	}

	return response.Success(c, fiber.Map{
		"user_id": user.ID,
		"status":  status,
	})
}
