package entitlement

import (
	"context"
	"time"

	"github.com/coinacademy/api/model"
	"gorm.io/gorm"
)

// AccessTier is the resolved permission level for a lesson
type AccessTier string

const (
	AccessFree       AccessTier = "free"       // free preview, no identity needed
	AccessSubscribed AccessTier = "subscribed" // active catalog-wide subscription
	AccessPurchased  AccessTier = "purchased"  // active enrollment for the lesson's course
	AccessLocked     AccessTier = "locked"
)

// Service resolves lesson access tiers against the live data store
type Service struct {
	db *gorm.DB
}

// NewService creates a new entitlement service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ResolveAccess decides whether the viewer may play the lesson's video.
//
// Checks run in order, first match wins. Viewer status is always
// re-fetched from the store rather than trusted from session claims, so
// a suspension takes effect on the next access check. Every lookup
// failure degrades to locked; the access check never surfaces errors,
// so existence information cannot leak through error behavior.
func (s *Service) ResolveAccess(ctx context.Context, lessonID uint, viewer *model.User) AccessTier {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, lessonID).Error; err != nil {
		return AccessLocked
	}

	// Free lessons are playable before any authentication check
	if lesson.IsFree {
		return AccessFree
	}

	if viewer == nil {
		return AccessLocked
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, viewer.ID).Error; err != nil {
		return AccessLocked
	}
	if user.IsSuspended() {
		return AccessLocked
	}

	hasSub, err := s.hasActiveSubscription(ctx, user.ID)
	if err != nil {
		return AccessLocked
	}

	var hasEnrollment bool
	if !hasSub {
		hasEnrollment, err = s.hasActiveEnrollment(ctx, user.ID, lesson.CourseID)
		if err != nil {
			return AccessLocked
		}
	}

	return decide(&lesson, &user, hasSub, hasEnrollment)
}

// decide applies the ordered access rules to already-loaded state
func decide(lesson *model.Lesson, viewer *model.User, hasActiveSubscription, hasActiveEnrollment bool) AccessTier {
	if lesson == nil {
		return AccessLocked
	}
	if lesson.IsFree {
		return AccessFree
	}
	if viewer == nil {
		return AccessLocked
	}
	if viewer.IsSuspended() {
		return AccessLocked
	}
	if hasActiveSubscription {
		return AccessSubscribed
	}
	if hasActiveEnrollment {
		return AccessPurchased
	}
	return AccessLocked
}

// hasActiveSubscription reports whether the user holds any active,
// unlapsed subscription. Course identity is irrelevant: a subscription
// covers the whole catalog. The end date check means a lapsed row stops
// granting access immediately, before the expiry sweep cancels it.
func (s *Service) hasActiveSubscription(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND status = ? AND end_date > ?", userID, model.SubscriptionStatusActive, time.Now()).
		Count(&count).
		Error
	return count > 0, err
}

func (s *Service) hasActiveEnrollment(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.EnrollmentStatusActive).
		Count(&count).
		Error
	return count > 0, err
}
