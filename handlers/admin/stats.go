package admin

import (
	"github.com/coinacademy/api/database"
	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DashboardStats is the admin overview snapshot
type DashboardStats struct {
	TotalUsers          int64   `json:"total_users"`
	SuspendedUsers      int64   `json:"suspended_users"`
	PublishedCourses    int64   `json:"published_courses"`
	TotalCourses        int64   `json:"total_courses"`
	ActiveEnrollments   int64   `json:"active_enrollments"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	PendingPayments     int64   `json:"pending_payments"`
	ConfirmedRevenue    float64 `json:"confirmed_revenue"`
}

// GetStats returns the admin dashboard counters
// GET /admin/stats
func GetStats(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var stats DashboardStats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&model.User{})},
		{&stats.SuspendedUsers, db.Model(&model.User{}).Where("status = ?", model.UserStatusSuspended)},
		{&stats.PublishedCourses, db.Model(&model.Course{}).Where("published = ?", true)},
		{&stats.TotalCourses, db.Model(&model.Course{})},
		{&stats.ActiveEnrollments, db.Model(&model.Enrollment{}).Where("status = ?", model.EnrollmentStatusActive)},
		{&stats.ActiveSubscriptions, db.Model(&model.Subscription{}).Where("status = ?", model.SubscriptionStatusActive)},
		{&stats.PendingPayments, db.Model(&model.Payment{}).Where("status = ?", model.PaymentStatusPending)},
	}

	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return response.InternalServerError(c, "Failed to compute stats")
		}
	}

	// Revenue counts confirmed payments only; pending and failed
	// submissions never contribute
	err := db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentStatusConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.ConfirmedRevenue).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to compute revenue")
	}

	return response.Success(c, stats)
}
