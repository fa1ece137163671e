package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action tags
const (
	AuditPaymentConfirmed = "PAYMENT_CONFIRMED"
	AuditPaymentRejected  = "PAYMENT_REJECTED"
	AuditUserSuspended    = "USER_SUSPENDED"
	AuditUserUnsuspended  = "USER_UNSUSPENDED"
	AuditCourseCreated    = "COURSE_CREATED"
	AuditCourseUpdated    = "COURSE_UPDATED"
	AuditCourseDeleted    = "COURSE_DELETED"
	AuditLessonCreated    = "LESSON_CREATED"
	AuditLessonUpdated    = "LESSON_UPDATED"
	AuditLessonDeleted    = "LESSON_DELETED"
	AuditSettingUpdated   = "SETTING_UPDATED"
)

// AuditLog is an append-only trail of privileged admin actions. Rows are
// never updated or deleted, and are read back only for display.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AdminID   uint           `gorm:"not null;index" json:"admin_id"`
	Action    string         `gorm:"type:varchar(100);not null;index" json:"action"`
	Detail    datatypes.JSON `gorm:"type:jsonb" json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	// Relationships
	Admin User `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
