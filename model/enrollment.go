package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentStatusPending   = "pending"
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCancelled = "cancelled"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment grants a user access to a single course (one-time purchase
// or free enroll). Unique per (user, course); activation upserts instead
// of inserting duplicates.
type Enrollment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex:idx_user_course;not null" json:"user_id"`
	CourseID  uint           `gorm:"uniqueIndex:idx_user_course;not null" json:"course_id"`
	Status    string         `gorm:"type:varchar(20);default:'pending'" json:"status"` // pending, active, cancelled, completed
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// IsActive reports whether the enrollment currently grants access
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}
