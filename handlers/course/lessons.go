package course

import (
	"log"
	"strconv"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/audit"
	"github.com/coinacademy/api/services/entitlement"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/coinacademy/api/utils/response"
	"github.com/coinacademy/api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LessonHandler handles lesson administration and playback access
type LessonHandler struct {
	db          *gorm.DB
	entitlement *entitlement.Service
	audit       *audit.Recorder
	validator   *validation.Validator
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(db *gorm.DB) *LessonHandler {
	return &LessonHandler{
		db:          db,
		entitlement: entitlement.NewService(db),
		audit:       audit.NewRecorder(db),
		validator:   validation.NewValidator(),
	}
}

// CreateLessonRequest represents the request body for creating a lesson
type CreateLessonRequest struct {
	CourseID    uint   `json:"course_id" validate:"required,min=1"`
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Position    int    `json:"position" validate:"omitempty,min=0"`
	IsFree      bool   `json:"is_free"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	DurationSec int    `json:"duration_sec" validate:"omitempty,min=0"`
}

// UpdateLessonRequest represents the request body for updating a lesson
type UpdateLessonRequest struct {
	Title       string  `json:"title" validate:"omitempty,min=3,max=255"`
	Position    *int    `json:"position" validate:"omitempty,min=0"`
	IsFree      *bool   `json:"is_free"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
	DurationSec *int    `json:"duration_sec" validate:"omitempty,min=0"`
}

// AccessResponse is the playback decision for one lesson
type AccessResponse struct {
	LessonID uint                   `json:"lesson_id"`
	Access   entitlement.AccessTier `json:"access"`
	Playable bool                   `json:"playable"`
	VideoURL string                 `json:"video_url,omitempty"`
}

// GetLessonAccess handles GET /api/v1/lessons/:id/access. Runs behind
// optional auth: anonymous viewers get a decision too. The video URL is
// only present when the decision is playable.
func (h *LessonHandler) GetLessonAccess(c *fiber.Ctx) error {
	lessonID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson id")
	}

	viewer, _ := middleware.GetUser(c) // nil for anonymous viewers

	tier := h.entitlement.ResolveAccess(c.Context(), uint(lessonID), viewer)

	res := AccessResponse{
		LessonID: uint(lessonID),
		Access:   tier,
		Playable: tier != entitlement.AccessLocked,
	}

	if res.Playable {
		var lesson model.Lesson
		if err := h.db.First(&lesson, uint(lessonID)).Error; err != nil {
			return response.NotFound(c, "Lesson not found")
		}
		res.VideoURL = lesson.VideoURL
	}

	return response.Success(c, res)
}

// ListLessons handles GET /api/v1/admin/courses/:id/lessons
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	courseID := c.Params("id")

	var course model.Course
	if err := h.db.First(&course, courseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	var lessons []model.Lesson
	if err := h.db.Where("course_id = ?", course.ID).
		Order("position ASC, id ASC").
		Find(&lessons).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch lessons")
	}

	return response.Success(c, lessons)
}

// CreateLesson handles POST /api/v1/admin/lessons
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.First(&course, req.CourseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to verify course")
	}

	lesson := model.Lesson{
		CourseID:    req.CourseID,
		Title:       validation.SanitizeString(req.Title),
		Position:    req.Position,
		IsFree:      req.IsFree,
		VideoURL:    req.VideoURL,
		DurationSec: req.DurationSec,
	}

	if err := h.db.Create(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to create lesson")
	}

	h.recordAudit(c, admin.ID, model.AuditLessonCreated, &lesson)

	return response.Created(c, lesson)
}

// UpdateLesson handles PUT /api/v1/admin/lessons/:id
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var lesson model.Lesson
	if err := h.db.First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Title != "" {
		lesson.Title = validation.SanitizeString(req.Title)
	}
	if req.Position != nil {
		lesson.Position = *req.Position
	}
	if req.IsFree != nil {
		lesson.IsFree = *req.IsFree
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
	}
	if req.DurationSec != nil {
		lesson.DurationSec = *req.DurationSec
	}

	if err := h.db.Save(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to update lesson")
	}

	h.recordAudit(c, admin.ID, model.AuditLessonUpdated, &lesson)

	return response.Success(c, lesson)
}

// DeleteLesson handles DELETE /api/v1/admin/lessons/:id
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	admin, ok := middleware.GetUser(c)
	if !ok || admin == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	id := c.Params("id")

	var lesson model.Lesson
	if err := h.db.First(&lesson, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to fetch lesson")
	}

	if err := h.db.Delete(&lesson).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete lesson")
	}

	h.recordAudit(c, admin.ID, model.AuditLessonDeleted, &lesson)

	return response.NoContent(c)
}

// recordAudit writes a best-effort lesson audit entry
func (h *LessonHandler) recordAudit(c *fiber.Ctx, adminID uint, action string, lesson *model.Lesson) {
	if err := h.audit.Record(c.Context(), adminID, action, map[string]interface{}{
		"lesson_id": lesson.ID,
		"course_id": lesson.CourseID,
		"title":     lesson.Title,
	}); err != nil {
		log.Printf("[LESSON] Audit write failed for lesson %d: %v", lesson.ID, err)
	}
}
