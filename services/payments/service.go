package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/audit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentNotActive = errors.New("payment is not pending")
	ErrCourseNotFound   = errors.New("course not found")
	ErrCourseRequired   = errors.New("course id is required for a course purchase")
	ErrInvalidCoin      = errors.New("unsupported coin")
	ErrInvalidPlan      = errors.New("unrecognized subscription plan")
	ErrInvalidType      = errors.New("checkout type must be 'course' or 'subscription'")
)

// Mailer is the outbound email surface the payment workflow needs.
// Sending is best-effort; the workflow never fails on mailer errors.
type Mailer interface {
	SendPaymentConfirmedEmail(toEmail, userName, paymentID string) error
}

// Service owns the payment lifecycle: checkout creation, admin
// activation, rejection, and the best-effort invoice that follows a
// confirmation.
type Service struct {
	db     *gorm.DB
	audit  *audit.Recorder
	mailer Mailer
}

// NewService creates a new payment service. mailer may be nil.
func NewService(db *gorm.DB, recorder *audit.Recorder, mailer Mailer) *Service {
	return &Service{
		db:     db,
		audit:  recorder,
		mailer: mailer,
	}
}

// ActivationResult reports the outcome of an activation request
type ActivationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ActivatePayment confirms a pending payment and provisions its
// entitlement. Only a missing payment is fatal; once the entitlement
// grant commits, invoice, audit and email failures are logged and
// swallowed so they can never roll back or block the grant.
//
// Re-activating an already confirmed payment is a no-op that reports
// success. The check is read-then-write, not a compare-and-swap: two
// admins racing on the same pending payment can both proceed, but the
// entitlement writes are upserts, so the worst case is a duplicate
// status update. Acceptable for a human-gated admin action.
func (s *Service) ActivatePayment(ctx context.Context, paymentID string, adminID uint) (*ActivationResult, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).Preload("User").First(&payment, "id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("load payment %s: %w", paymentID, err)
	}

	if payment.IsConfirmed() {
		return &ActivationResult{Success: true, Message: "Already confirmed"}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Payment{}).
			Where("id = ?", payment.ID).
			Update("status", model.PaymentStatusConfirmed).Error; err != nil {
			return err
		}
		return s.provisionEntitlement(tx, &payment)
	})
	if err != nil {
		return nil, fmt.Errorf("activate payment %s: %w", paymentID, err)
	}

	// Everything below is a best-effort observer of the committed grant
	if err := s.generateInvoice(ctx, &payment); err != nil {
		log.Printf("[PAYMENTS] Invoice generation failed for payment %s: %v", payment.ID, err)
	}

	if err := s.audit.Record(ctx, adminID, model.AuditPaymentConfirmed, map[string]interface{}{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
		"plan":       payment.Plan,
	}); err != nil {
		log.Printf("[PAYMENTS] Audit write failed for payment %s: %v", payment.ID, err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPaymentConfirmedEmail(payment.User.Email, payment.User.Name, payment.ID); err != nil {
			log.Printf("[PAYMENTS] Confirmation email failed for payment %s: %v", payment.ID, err)
		}
	}

	return &ActivationResult{Success: true}, nil
}

// provisionEntitlement grants the access the payment paid for
func (s *Service) provisionEntitlement(tx *gorm.DB, payment *model.Payment) error {
	switch {
	case payment.Plan == model.PlanOneTime && payment.CourseID != nil:
		return upsertActiveEnrollment(tx, payment.UserID, *payment.CourseID)

	case IsSubscriptionPlan(payment.Plan):
		return s.activateSubscription(tx, payment.UserID, payment.Plan)

	case payment.CourseID != nil:
		// A course id without a recognized plan is treated as a
		// one-time grant
		log.Printf("[PAYMENTS] Unrecognized plan %q on payment %s, treating as course purchase", payment.Plan, payment.ID)
		return upsertActiveEnrollment(tx, payment.UserID, *payment.CourseID)

	default:
		return fmt.Errorf("payment %s names neither a known plan nor a course", payment.ID)
	}
}

// upsertActiveEnrollment creates or re-activates the (user, course)
// enrollment. The unique index makes repeated activations idempotent.
func upsertActiveEnrollment(tx *gorm.DB, userID, courseID uint) error {
	enrollment := model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   model.EnrollmentStatusActive,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     model.EnrollmentStatusActive,
			"updated_at": time.Now(),
		}),
	}).Create(&enrollment).Error
}

// activateSubscription flips the most recent pending subscription for
// (user, plan) to active, preserving its originally computed end date.
// If no pending row exists the subscription is synthesized from now.
func (s *Service) activateSubscription(tx *gorm.DB, userID uint, plan string) error {
	var sub model.Subscription
	err := tx.Where("user_id = ? AND plan = ? AND status = ?", userID, plan, model.SubscriptionStatusPending).
		Order("created_at DESC").
		First(&sub).Error

	switch {
	case err == nil:
		return tx.Model(&sub).Update("status", model.SubscriptionStatusActive).Error

	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		end, ok := PlanEndDate(now, plan)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
		}
		fresh := model.Subscription{
			UserID:    userID,
			Plan:      plan,
			Status:    model.SubscriptionStatusActive,
			StartDate: now,
			EndDate:   end,
		}
		return tx.Create(&fresh).Error

	default:
		return err
	}
}

// RejectPayment marks a pending payment as failed. No entitlement is
// touched; the pending enrollment/subscription simply never activates.
func (s *Service) RejectPayment(ctx context.Context, paymentID string, adminID uint) error {
	var payment model.Payment
	err := s.db.WithContext(ctx).First(&payment, "id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("load payment %s: %w", paymentID, err)
	}

	if payment.Status != model.PaymentStatusPending {
		return ErrPaymentNotActive
	}

	err = s.db.WithContext(ctx).Model(&payment).
		Update("status", model.PaymentStatusFailed).Error
	if err != nil {
		return fmt.Errorf("reject payment %s: %w", paymentID, err)
	}

	if err := s.audit.Record(ctx, adminID, model.AuditPaymentRejected, map[string]interface{}{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
	}); err != nil {
		log.Printf("[PAYMENTS] Audit write failed for payment %s: %v", payment.ID, err)
	}

	return nil
}

// IsSubscriptionPlan reports whether plan names a recognized
// subscription tier
func IsSubscriptionPlan(plan string) bool {
	switch plan {
	case model.PlanMonthly, model.PlanQuarterly, model.PlanAnnual:
		return true
	}
	return false
}

// PlanEndDate computes the subscription end date using calendar
// arithmetic, not fixed day counts
func PlanEndDate(start time.Time, plan string) (time.Time, bool) {
	switch plan {
	case model.PlanMonthly:
		return start.AddDate(0, 1, 0), true
	case model.PlanQuarterly:
		return start.AddDate(0, 3, 0), true
	case model.PlanAnnual:
		return start.AddDate(1, 0, 0), true
	}
	return time.Time{}, false
}
