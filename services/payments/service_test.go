package payments

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/audit"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPlanEndDate(t *testing.T) {
	start := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		plan   string
		want   time.Time
		wantOK bool
	}{
		// AddDate calendar arithmetic: Jan 31 + 1 month normalizes to Mar 2
		{model.PlanMonthly, time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC), true},
		{model.PlanQuarterly, time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC), true},
		{model.PlanAnnual, time.Date(2027, time.January, 31, 12, 0, 0, 0, time.UTC), true},
		{model.PlanOneTime, time.Time{}, false},
		{"Weekly", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			got, ok := PlanEndDate(start, tt.plan)
			if ok != tt.wantOK {
				t.Fatalf("PlanEndDate(%q) ok = %v, want %v", tt.plan, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("PlanEndDate(%q) = %v, want %v", tt.plan, got, tt.want)
			}
		})
	}
}

func TestPlanEndDateSimpleMonth(t *testing.T) {
	start := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	got, ok := PlanEndDate(start, model.PlanMonthly)
	if !ok {
		t.Fatal("Monthly should be a valid plan")
	}
	want := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestValidCoin(t *testing.T) {
	for _, coin := range []string{model.CoinBTC, model.CoinUSDT, model.CoinUSDC} {
		if !ValidCoin(coin) {
			t.Errorf("ValidCoin(%q) = false, want true", coin)
		}
	}
	for _, coin := range []string{"ETH", "btc", "DOGE", ""} {
		if ValidCoin(coin) {
			t.Errorf("ValidCoin(%q) = true, want false", coin)
		}
	}
}

func TestIsSubscriptionPlan(t *testing.T) {
	for _, plan := range []string{model.PlanMonthly, model.PlanQuarterly, model.PlanAnnual} {
		if !IsSubscriptionPlan(plan) {
			t.Errorf("IsSubscriptionPlan(%q) = false, want true", plan)
		}
	}
	for _, plan := range []string{model.PlanOneTime, "monthly", "Lifetime", ""} {
		if IsSubscriptionPlan(plan) {
			t.Errorf("IsSubscriptionPlan(%q) = true, want false", plan)
		}
	}
}

// setupTestDB connects to the integration test database and migrates a
// clean schema. Requires RUN_INTEGRATION_TESTS=true and TEST_DATABASE_URL.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.Subscription{},
		&model.Payment{},
		&model.Invoice{},
		&model.AuditLog{},
		&model.AppSetting{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	// Each test run starts from empty tables
	for _, table := range []string{"invoices", "audit_logs", "payments", "subscriptions", "enrollments", "lessons", "courses", "app_settings", "users"} {
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := model.User{
		Email:        email,
		PasswordHash: "x",
		Name:         "Test User",
		Role:         model.RoleStudent,
		Status:       model.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func createTestCourse(t *testing.T, db *gorm.DB, slug string, price float64) *model.Course {
	t.Helper()
	course := model.Course{
		Title:     "Test Course " + slug,
		Slug:      slug,
		Price:     price,
		Published: true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("failed to create test course: %v", err)
	}
	return &course
}

func TestActivatePaymentCoursePurchase(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, audit.NewRecorder(db), nil)
	ctx := context.Background()

	user := createTestUser(t, db, "buyer@example.com")
	admin := createTestUser(t, db, "admin@example.com")
	course := createTestCourse(t, db, "go-course", 149)

	payment, err := svc.CreateCheckout(ctx, user.ID, CheckoutInput{
		Type:     CheckoutCourse,
		Coin:     model.CoinBTC,
		CourseID: course.ID,
	})
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}

	// Checkout leaves the enrollment pending
	var enrollment model.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error; err != nil {
		t.Fatalf("expected pending enrollment after checkout: %v", err)
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		t.Fatalf("enrollment status = %q, want pending", enrollment.Status)
	}

	result, err := svc.ActivatePayment(ctx, payment.ID, admin.ID)
	if err != nil {
		t.Fatalf("ActivatePayment failed: %v", err)
	}
	if !result.Success {
		t.Fatal("activation reported failure")
	}

	// Enrollment flips to active, exactly one row
	var enrollments []model.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).Find(&enrollments).Error; err != nil {
		t.Fatalf("failed to load enrollments: %v", err)
	}
	if len(enrollments) != 1 {
		t.Fatalf("enrollment count = %d, want 1", len(enrollments))
	}
	if enrollments[0].Status != model.EnrollmentStatusActive {
		t.Errorf("enrollment status = %q, want active", enrollments[0].Status)
	}

	// Invoice generated with the deterministic number
	var invoice model.Invoice
	if err := db.Where("payment_id = ?", payment.ID).First(&invoice).Error; err != nil {
		t.Fatalf("expected invoice after activation: %v", err)
	}
	want := InvoiceNumber(payment.ID, time.Now())
	if invoice.InvoiceNumber != want {
		t.Errorf("invoice number = %q, want %q", invoice.InvoiceNumber, want)
	}

	// Audit entry written for the confirmation
	var auditCount int64
	db.Model(&model.AuditLog{}).Where("admin_id = ? AND action = ?", admin.ID, model.AuditPaymentConfirmed).Count(&auditCount)
	if auditCount != 1 {
		t.Errorf("audit count = %d, want 1", auditCount)
	}
}

func TestActivatePaymentIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, audit.NewRecorder(db), nil)
	ctx := context.Background()

	user := createTestUser(t, db, "buyer@example.com")
	admin := createTestUser(t, db, "admin@example.com")
	course := createTestCourse(t, db, "go-course", 149)

	payment, err := svc.CreateCheckout(ctx, user.ID, CheckoutInput{
		Type:     CheckoutCourse,
		Coin:     model.CoinUSDT,
		CourseID: course.ID,
	})
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}

	if _, err := svc.ActivatePayment(ctx, payment.ID, admin.ID); err != nil {
		t.Fatalf("first activation failed: %v", err)
	}

	// Second activation short-circuits without touching anything
	result, err := svc.ActivatePayment(ctx, payment.ID, admin.ID)
	if err != nil {
		t.Fatalf("second activation failed: %v", err)
	}
	if !result.Success {
		t.Error("second activation should report success")
	}
	if result.Message != "Already confirmed" {
		t.Errorf("second activation message = %q, want %q", result.Message, "Already confirmed")
	}

	// Still exactly one enrollment, one invoice, one audit entry
	var enrollmentCount, invoiceCount, auditCount int64
	db.Model(&model.Enrollment{}).Where("user_id = ? AND course_id = ?", user.ID, course.ID).Count(&enrollmentCount)
	db.Model(&model.Invoice{}).Where("payment_id = ?", payment.ID).Count(&invoiceCount)
	db.Model(&model.AuditLog{}).Where("action = ?", model.AuditPaymentConfirmed).Count(&auditCount)

	if enrollmentCount != 1 {
		t.Errorf("enrollment count = %d, want 1", enrollmentCount)
	}
	if invoiceCount != 1 {
		t.Errorf("invoice count = %d, want 1", invoiceCount)
	}
	if auditCount != 1 {
		t.Errorf("audit count = %d, want 1", auditCount)
	}
}

func TestActivatePaymentSubscription(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, audit.NewRecorder(db), nil)
	ctx := context.Background()

	user := createTestUser(t, db, "subscriber@example.com")
	admin := createTestUser(t, db, "admin@example.com")

	payment, err := svc.CreateCheckout(ctx, user.ID, CheckoutInput{
		Type: CheckoutSubscription,
		Plan: model.PlanQuarterly,
		Coin: model.CoinUSDC,
	})
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}

	// Default quarterly price applies when no setting overrides it
	if payment.Amount != 79 {
		t.Errorf("payment amount = %v, want 79", payment.Amount)
	}

	var pending model.Subscription
	if err := db.Where("user_id = ? AND status = ?", user.ID, model.SubscriptionStatusPending).First(&pending).Error; err != nil {
		t.Fatalf("expected pending subscription after checkout: %v", err)
	}

	if _, err := svc.ActivatePayment(ctx, payment.ID, admin.ID); err != nil {
		t.Fatalf("ActivatePayment failed: %v", err)
	}

	// The pending row flips active and keeps its original end date
	var active model.Subscription
	if err := db.First(&active, pending.ID).Error; err != nil {
		t.Fatalf("failed to reload subscription: %v", err)
	}
	if active.Status != model.SubscriptionStatusActive {
		t.Errorf("subscription status = %q, want active", active.Status)
	}
	if !active.EndDate.Equal(pending.EndDate) {
		t.Errorf("activation changed end date: %v -> %v", pending.EndDate, active.EndDate)
	}

	// Quarterly end date is three calendar months out
	wantEnd := pending.StartDate.AddDate(0, 3, 0)
	if !active.EndDate.Equal(wantEnd) {
		t.Errorf("end date = %v, want %v", active.EndDate, wantEnd)
	}
}

func TestActivatePaymentSynthesizesMissingSubscription(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, audit.NewRecorder(db), nil)
	ctx := context.Background()

	user := createTestUser(t, db, "subscriber@example.com")
	admin := createTestUser(t, db, "admin@example.com")

	// Payment row without the pending subscription checkout would have
	// created alongside it
	payment := model.Payment{
		UserID: user.ID,
		Plan:   model.PlanMonthly,
		Amount: 29,
		Coin:   model.CoinBTC,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to create payment: %v", err)
	}

	if _, err := svc.ActivatePayment(ctx, payment.ID, admin.ID); err != nil {
		t.Fatalf("ActivatePayment failed: %v", err)
	}

	var sub model.Subscription
	if err := db.Where("user_id = ? AND plan = ?", user.ID, model.PlanMonthly).First(&sub).Error; err != nil {
		t.Fatalf("expected synthesized subscription: %v", err)
	}
	if sub.Status != model.SubscriptionStatusActive {
		t.Errorf("subscription status = %q, want active", sub.Status)
	}
}

func TestRejectPayment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, audit.NewRecorder(db), nil)
	ctx := context.Background()

	user := createTestUser(t, db, "buyer@example.com")
	admin := createTestUser(t, db, "admin@example.com")
	course := createTestCourse(t, db, "go-course", 149)

	payment, err := svc.CreateCheckout(ctx, user.ID, CheckoutInput{
		Type:     CheckoutCourse,
		Coin:     model.CoinBTC,
		CourseID: course.ID,
	})
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}

	if err := svc.RejectPayment(ctx, payment.ID, admin.ID); err != nil {
		t.Fatalf("RejectPayment failed: %v", err)
	}

	var reloaded model.Payment
	if err := db.First(&reloaded, "id = ?", payment.ID).Error; err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if reloaded.Status != model.PaymentStatusFailed {
		t.Errorf("payment status = %q, want failed", reloaded.Status)
	}

	// The enrollment placeholder stays pending; no entitlement granted
	var enrollment model.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error; err != nil {
		t.Fatalf("failed to load enrollment: %v", err)
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		t.Errorf("enrollment status = %q, want pending", enrollment.Status)
	}

	// Rejecting again fails: only pending payments can be rejected
	if err := svc.RejectPayment(ctx, payment.ID, admin.ID); err != ErrPaymentNotActive {
		t.Errorf("second reject error = %v, want ErrPaymentNotActive", err)
	}
}

func TestCreateCheckoutValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, audit.NewRecorder(db), nil)
	ctx := context.Background()

	user := createTestUser(t, db, "buyer@example.com")
	createTestCourse(t, db, "go-course", 149)

	tests := []struct {
		name string
		in   CheckoutInput
	}{
		{"bad coin", CheckoutInput{Type: CheckoutCourse, Coin: "ETH", CourseID: 1}},
		{"bad type", CheckoutInput{Type: "gift", Coin: model.CoinBTC}},
		{"course checkout without course", CheckoutInput{Type: CheckoutCourse, Coin: model.CoinBTC}},
		{"subscription with one-time plan", CheckoutInput{Type: CheckoutSubscription, Plan: model.PlanOneTime, Coin: model.CoinBTC}},
		{"unknown course", CheckoutInput{Type: CheckoutCourse, Coin: model.CoinBTC, CourseID: 999999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateCheckout(ctx, user.ID, tt.in); err == nil {
				t.Error("expected checkout to fail")
			}
		})
	}

	// Failed checkouts must leave no payment rows behind
	var paymentCount int64
	db.Model(&model.Payment{}).Count(&paymentCount)
	if paymentCount != 0 {
		t.Errorf("payment count = %d after failed checkouts, want 0", paymentCount)
	}
}
