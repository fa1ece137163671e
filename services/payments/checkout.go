package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/coinacademy/api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Checkout types
const (
	CheckoutCourse       = "course"
	CheckoutSubscription = "subscription"
)

// Default subscription plan prices (USD), used when no AppSetting
// override exists
var defaultPlanPrices = map[string]float64{
	model.PlanMonthly:   29,
	model.PlanQuarterly: 79,
	model.PlanAnnual:    249,
}

var planPriceSettings = map[string]string{
	model.PlanMonthly:   model.SettingPriceMonthly,
	model.PlanQuarterly: model.SettingPriceQuarterly,
	model.PlanAnnual:    model.SettingPriceAnnual,
}

// CheckoutInput is the validated storefront checkout submission.
// Amounts are never part of the input: prices are always recomputed
// server-side from the course row or plan price table.
type CheckoutInput struct {
	Type          string
	Plan          string
	Coin          string
	CourseID      uint
	ScreenshotURL string
}

// ValidCoin reports whether the settlement coin is accepted
func ValidCoin(coin string) bool {
	switch coin {
	case model.CoinBTC, model.CoinUSDT, model.CoinUSDC:
		return true
	}
	return false
}

// CreateCheckout creates a pending payment together with its pending
// entitlement record in one transaction. Validation failures leave no
// partial state behind.
func (s *Service) CreateCheckout(ctx context.Context, userID uint, in CheckoutInput) (*model.Payment, error) {
	if !ValidCoin(in.Coin) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCoin, in.Coin)
	}

	var payment *model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch in.Type {
		case CheckoutCourse:
			p, err := s.checkoutCourse(tx, userID, in)
			if err != nil {
				return err
			}
			payment = p
			return nil

		case CheckoutSubscription:
			p, err := s.checkoutSubscription(tx, userID, in)
			if err != nil {
				return err
			}
			payment = p
			return nil

		default:
			return ErrInvalidType
		}
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (s *Service) checkoutCourse(tx *gorm.DB, userID uint, in CheckoutInput) (*model.Payment, error) {
	if in.CourseID == 0 {
		return nil, ErrCourseRequired
	}

	var course model.Course
	err := tx.Where("id = ? AND published = ?", in.CourseID, true).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	payment := model.Payment{
		UserID:        userID,
		CourseID:      &course.ID,
		Plan:          model.PlanOneTime,
		Amount:        course.Price,
		Currency:      "USD",
		Coin:          in.Coin,
		ScreenshotURL: in.ScreenshotURL,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, err
	}

	// Pending placeholder; activation flips it to active. An existing
	// row in any state is left untouched here.
	enrollment := model.Enrollment{
		UserID:   userID,
		CourseID: course.ID,
		Status:   model.EnrollmentStatusPending,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&enrollment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (s *Service) checkoutSubscription(tx *gorm.DB, userID uint, in CheckoutInput) (*model.Payment, error) {
	if !IsSubscriptionPlan(in.Plan) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, in.Plan)
	}

	now := time.Now()
	end, _ := PlanEndDate(now, in.Plan)

	payment := model.Payment{
		UserID:        userID,
		Plan:          in.Plan,
		Amount:        s.planPrice(tx, in.Plan),
		Currency:      "USD",
		Coin:          in.Coin,
		ScreenshotURL: in.ScreenshotURL,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, err
	}

	subscription := model.Subscription{
		UserID:    userID,
		Plan:      in.Plan,
		Status:    model.SubscriptionStatusPending,
		StartDate: now,
		EndDate:   end,
	}
	if err := tx.Create(&subscription).Error; err != nil {
		return nil, err
	}

	return &payment, nil
}

// planPrice resolves the subscription price from app settings, falling
// back to the built-in defaults
func (s *Service) planPrice(tx *gorm.DB, plan string) float64 {
	fallback := defaultPlanPrices[plan]

	key, ok := planPriceSettings[plan]
	if !ok {
		return fallback
	}

	var setting model.AppSetting
	if err := tx.Where("key = ?", key).First(&setting).Error; err != nil {
		return fallback
	}

	price, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil || price <= 0 {
		return fallback
	}
	return price
}
