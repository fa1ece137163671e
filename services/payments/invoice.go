package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coinacademy/api/model"
	"gorm.io/gorm/clause"
)

// InvoiceNumber derives the deterministic invoice number for a payment:
// INV-<year>-<last 6 chars of the payment id, uppercased>
func InvoiceNumber(paymentID string, issuedAt time.Time) string {
	suffix := paymentID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("INV-%d-%s", issuedAt.Year(), strings.ToUpper(suffix))
}

// generateInvoice records the paid invoice for a confirmed payment.
// Keyed by payment id, so regenerating never creates a duplicate.
func (s *Service) generateInvoice(ctx context.Context, payment *model.Payment) error {
	invoice := model.Invoice{
		PaymentID:     payment.ID,
		InvoiceNumber: InvoiceNumber(payment.ID, time.Now()),
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Status:        "paid",
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}},
		DoNothing: true,
	}).Create(&invoice).Error
}
