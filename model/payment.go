package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
)

// Accepted settlement coins
const (
	CoinBTC  = "BTC"
	CoinUSDT = "USDT"
	CoinUSDC = "USDC"
)

// Payment represents a manual crypto payment awaiting admin confirmation.
// The primary key is a UUID string: invoice numbers are derived from the
// id suffix, so sequential integers would leak payment volume.
type Payment struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	CourseID      *uint          `gorm:"index" json:"course_id,omitempty"` // set for one-time course purchases
	Plan          string         `gorm:"type:varchar(20)" json:"plan"`     // OneTime, Monthly, Quarterly, Annual
	Amount        float64        `gorm:"not null" json:"amount"`
	Currency      string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Method        string         `gorm:"type:varchar(50);default:'crypto'" json:"method"`
	Coin          string         `gorm:"type:varchar(10)" json:"coin"` // BTC, USDT, USDC
	Status        string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ScreenshotURL string         `gorm:"type:text" json:"screenshot_url"` // payment evidence, reviewed out-of-band
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User    User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course  *Course  `gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL" json:"course,omitempty"`
	Invoice *Invoice `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"invoice,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate assigns a UUID if the payment was created without one
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsConfirmed reports whether the payment has already been confirmed
func (p *Payment) IsConfirmed() bool {
	return p.Status == PaymentStatusConfirmed
}

// Invoice is the financial record for a confirmed payment, 1:1 by
// payment id so regeneration never duplicates.
type Invoice struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	PaymentID     string         `gorm:"uniqueIndex;not null;type:varchar(36)" json:"payment_id"`
	InvoiceNumber string         `gorm:"uniqueIndex;not null;type:varchar(30)" json:"invoice_number"`
	Amount        float64        `gorm:"not null" json:"amount"`
	Currency      string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Status        string         `gorm:"type:varchar(20);default:'paid'" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}
