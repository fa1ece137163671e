package cron

import (
	"log"
	"os"
	"time"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/services/pricefeed"
	"github.com/coinacademy/api/utils/cache"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled maintenance jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	priceFeed *pricefeed.Poller
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	// Price feed refresh is optional; without Redis the job still runs
	// but serves no cached readers
	var redisCache *cache.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		if rc, err := cache.NewRedisCache(redisURL); err == nil {
			redisCache = rc
		} else {
			log.Printf("[CRON] Redis unavailable, price feed cache disabled: %v", err)
		}
	}

	return &CronManager{
		cron:      c,
		db:        db,
		priceFeed: pricefeed.NewPoller(redisCache, os.Getenv("PRICE_FEED_URL")),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 10 minutes: refresh coin/USD display rates
	_, err := m.cron.AddFunc("0 */10 * * * *", func() {
		m.logJobStart("refresh_price_feed")
		m.RefreshPriceFeed()
	})
	if err != nil {
		return err
	}

	// Hourly: cancel subscriptions past their end date
	_, err = m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("expire_subscriptions")
		m.ExpireLapsedSubscriptions()
	})
	if err != nil {
		return err
	}

	// Daily at 03:00: fail payments stuck pending for over 30 days
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("expire_stale_payments")
		m.ExpireStalePayments()
	})
	if err != nil {
		return err
	}

	// Daily at 04:00: purge expired token blacklist entries
	_, err = m.cron.AddFunc("0 0 4 * * *", func() {
		m.logJobStart("cleanup_token_blacklist")
		m.CleanupTokenBlacklist()
	})
	if err != nil {
		return err
	}

	return nil
}

// logJobStart records the beginning of a cron job run
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
	}
	m.db.Create(&cronLog)
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": time.Now(),
			"message":      message,
		})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Error in job: %s - %v", jobName, err)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": time.Now(),
			"error_msg":    err.Error(),
		})
}
