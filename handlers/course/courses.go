package course

import (
	"log"
	"strconv"

	"github.com/coinacademy/api/database"
	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/audit"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/coinacademy/api/utils/response"
	"github.com/coinacademy/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog and course administration
type CourseHandler struct {
	db        *gorm.DB
	store     database.Storage
	audit     *audit.Recorder
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler. Public catalog reads go
// through the raw store; admin writes go through GORM.
func NewCourseHandler(db *gorm.DB, store database.Storage) *CourseHandler {
	return &CourseHandler{
		db:        db,
		store:     store,
		audit:     audit.NewRecorder(db),
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Slug        string  `json:"slug" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	Price       float64 `json:"price" validate:"omitempty,min=0"`
	Published   bool    `json:"published"`
	CoverURL    string  `json:"cover_url" validate:"omitempty,url"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title       string   `json:"title" validate:"omitempty,min=3,max=255"`
	Slug        string   `json:"slug" validate:"omitempty,min=3,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
	Published   *bool    `json:"published"`
	CoverURL    *string  `json:"cover_url" validate:"omitempty,url"`
}

// ListCourses handles GET /api/v1/courses. Only published courses are
// visible on the storefront.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.store.GetPublishedCourses()
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, courses)
}

// GetCourseBySlug handles GET /api/v1/courses/:slug. The lesson list
// comes back ordered by position but without playback locations.
func (h *CourseHandler) GetCourseBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if !validation.ValidateSlug(slug) {
		return response.BadRequest(c, "Invalid course slug")
	}

	course, err := h.store.GetCourseBySlug(slug)
	if err != nil {
		return response.NotFound(c, "Course not found")
	}

	return response.Success(c, course)
}

// ListAllCourses handles GET /api/v1/admin/courses, including drafts
func (h *CourseHandler) ListAllCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := c.Query("search", "")

	query := h.db.Model(&model.Course{})

	if search != "" {
		query = query.Where("title ILIKE ? OR slug ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	if err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, pagination)
}

// CreateCourse handles POST /api/v1/admin/courses
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Title = validation.SanitizeString(req.Title)
	req.Description = validation.SanitizeString(req.Description)

	if !validation.ValidateSlug(req.Slug) {
		return response.BadRequest(c, "Slug may only contain lowercase letters, numbers and hyphens")
	}

	// Slug must be unique across the catalog
	var existing model.Course
	if err := h.db.Unscoped().Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		return response.Conflict(c, "Course with this slug already exists")
	}

	course := model.Course{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Published:   req.Published,
		CoverURL:    req.CoverURL,
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	h.recordAudit(c, admin.ID, model.AuditCourseCreated, course.ID, course.Slug)

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/admin/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}
	if req.Slug != "" && req.Slug != course.Slug {
		if !validation.ValidateSlug(req.Slug) {
			return response.BadRequest(c, "Slug may only contain lowercase letters, numbers and hyphens")
		}
		var existing model.Course
		if err := h.db.Unscoped().Where("slug = ? AND id <> ?", req.Slug, course.ID).First(&existing).Error; err == nil {
			return response.Conflict(c, "Course with this slug already exists")
		}
		course.Slug = req.Slug
	}
	if req.Description != nil {
		course.Description = validation.SanitizeString(*req.Description)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Published != nil {
		course.Published = *req.Published
	}
	if req.CoverURL != nil {
		course.CoverURL = *req.CoverURL
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	h.recordAudit(c, admin.ID, model.AuditCourseUpdated, course.ID, course.Slug)

	return response.Success(c, course)
}

// DeleteCourse handles DELETE /api/v1/admin/courses/:id. Soft delete;
// enrollments and payments keep their history.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if err := h.db.Delete(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	h.recordAudit(c, admin.ID, model.AuditCourseDeleted, course.ID, course.Slug)

	return response.NoContent(c)
}

// recordAudit writes a best-effort course audit entry
func (h *CourseHandler) recordAudit(c *fiber.Ctx, adminID uint, action string, courseID uint, slug string) {
	if err := h.audit.Record(c.Context(), adminID, action, map[string]interface{}{
		"course_id": courseID,
		"slug":      slug,
	}); err != nil {
		log.Printf("[COURSE] Audit write failed for course %d: %v", courseID, err)
	}
}
