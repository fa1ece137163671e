package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription plans. Plan names are stored verbatim on payment records,
// so these values are part of the wire format.
const (
	PlanOneTime   = "OneTime"
	PlanMonthly   = "Monthly"
	PlanQuarterly = "Quarterly"
	PlanAnnual    = "Annual"
)

// Subscription statuses
const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription grants a user time-boxed access to the full catalog.
// A user may accumulate multiple rows over time; queries treat the
// most recently created matching row as the authoritative one. There
// is intentionally no uniqueness constraint on "one active per user".
type Subscription struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Plan      string         `gorm:"type:varchar(20);not null" json:"plan"`            // Monthly, Quarterly, Annual
	Status    string         `gorm:"type:varchar(20);default:'pending'" json:"status"` // pending, active, cancelled
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `gorm:"index" json:"end_date"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive reports whether the subscription currently grants access
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// IsLapsed reports whether an active subscription has passed its end date
func (s *Subscription) IsLapsed(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.After(s.EndDate)
}
