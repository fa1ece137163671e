package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/utils/auth"
)

// RefreshPriceFeed updates the cached coin/USD display rates
func (m *CronManager) RefreshPriceFeed() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	jobName := "refresh_price_feed"

	rates, err := m.priceFeed.Refresh(ctx)
	if err != nil {
		m.logJobError(jobName, err)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Refreshed %d coin rates", len(rates)))
}

// ExpireLapsedSubscriptions cancels active subscriptions whose end date
// has passed. Access checks already reject lapsed rows by end date;
// this sweep keeps the stored status honest.
func (m *CronManager) ExpireLapsedSubscriptions() {
	jobName := "expire_subscriptions"

	result := m.db.Model(&model.Subscription{}).
		Where("status = ? AND end_date < ?", model.SubscriptionStatusActive, time.Now()).
		Update("status", model.SubscriptionStatusCancelled)

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to expire subscriptions: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cancelled %d lapsed subscriptions", result.RowsAffected))
}

// ExpireStalePayments fails payments that stayed pending for over 30
// days. Users can always resubmit a fresh checkout.
func (m *CronManager) ExpireStalePayments() {
	jobName := "expire_stale_payments"
	cutoff := time.Now().AddDate(0, 0, -30)

	result := m.db.Model(&model.Payment{}).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Update("status", model.PaymentStatusFailed)

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to expire stale payments: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Failed %d stale pending payments", result.RowsAffected))
}

// CleanupTokenBlacklist purges expired entries from the JWT blacklist
func (m *CronManager) CleanupTokenBlacklist() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_token_blacklist"

	blacklist := auth.NewBlacklistService(m.db)
	if err := blacklist.CleanupExpiredTokens(ctx); err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup blacklist: %w", err))
		return
	}

	m.logJobComplete(jobName, "Expired blacklist entries removed")
}
