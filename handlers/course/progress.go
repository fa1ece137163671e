package course

import (
	"strconv"
	"time"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/entitlement"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressHandler handles lesson completion tracking and free-course
// enrollment
type ProgressHandler struct {
	db          *gorm.DB
	entitlement *entitlement.Service
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(db *gorm.DB) *ProgressHandler {
	return &ProgressHandler{
		db:          db,
		entitlement: entitlement.NewService(db),
	}
}

// EnrollFreeCourse handles POST /api/v1/courses/:id/enroll. Only free
// published courses can be enrolled without a payment.
func (h *ProgressHandler) EnrollFreeCourse(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var course model.Course
	if err := h.db.Where("id = ? AND published = ?", uint(courseID), true).First(&course).Error; err != nil {
		return response.NotFound(c, "Course not found")
	}

	if !course.IsFree() {
		return response.BadRequest(c, "This course requires a purchase")
	}

	enrollment := model.Enrollment{
		UserID:   userID,
		CourseID: course.ID,
		Status:   model.EnrollmentStatusActive,
	}
	err = h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     model.EnrollmentStatusActive,
			"updated_at": time.Now(),
		}),
	}).Create(&enrollment).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to enroll")
	}

	return response.Created(c, enrollment)
}

// MarkLessonComplete handles POST /api/v1/lessons/:id/progress. Progress
// can only be written against lessons the viewer may actually play.
func (h *ProgressHandler) MarkLessonComplete(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	lessonID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lesson id")
	}

	tier := h.entitlement.ResolveAccess(c.Context(), uint(lessonID), user)
	if tier == entitlement.AccessLocked {
		return response.Forbidden(c, "You do not have access to this lesson")
	}

	var lesson model.Lesson
	if err := h.db.First(&lesson, uint(lessonID)).Error; err != nil {
		return response.NotFound(c, "Lesson not found")
	}

	progress := model.LessonProgress{
		UserID:    user.ID,
		LessonID:  lesson.ID,
		CourseID:  lesson.CourseID,
		Completed: true,
	}
	err = h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed":  true,
			"updated_at": time.Now(),
		}),
	}).Create(&progress).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to record progress")
	}

	return response.Success(c, progress)
}

// GetCourseProgress handles GET /api/v1/courses/:id/progress and returns
// the viewer's completed lessons for one course
func (h *ProgressHandler) GetCourseProgress(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var progress []model.LessonProgress
	if err := h.db.Where("user_id = ? AND course_id = ? AND completed = ?", userID, uint(courseID), true).
		Order("updated_at DESC").
		Find(&progress).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch progress")
	}

	var totalLessons int64
	if err := h.db.Model(&model.Lesson{}).
		Where("course_id = ?", uint(courseID)).
		Count(&totalLessons).Error; err != nil {
		return response.InternalServerError(c, "Failed to count lessons")
	}

	return response.Success(c, fiber.Map{
		"course_id":     uint(courseID),
		"completed":     len(progress),
		"total_lessons": totalLessons,
		"lessons":       progress,
	})
}
