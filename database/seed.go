package database

import (
	"fmt"
	"log"
	"os"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds runs all seed functions against the given database
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedPlanPrices(); err != nil {
		return fmt.Errorf("failed to seed plan prices: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user from ADMIN_EMAIL and
// ADMIN_PASSWORD
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "Administrator",
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}

	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("👤 Created admin user %s", adminEmail)
	return nil
}

// SeedPlanPrices writes the default subscription plan prices. Existing
// settings are left alone so admin overrides survive reseeding.
func (s *Seeder) SeedPlanPrices() error {
	defaults := []model.AppSetting{
		{Key: model.SettingPriceMonthly, Value: "29", Type: "float", Description: "Monthly subscription price (USD)"},
		{Key: model.SettingPriceQuarterly, Value: "79", Type: "float", Description: "Quarterly subscription price (USD)"},
		{Key: model.SettingPriceAnnual, Value: "249", Type: "float", Description: "Annual subscription price (USD)"},
	}

	for _, setting := range defaults {
		var existing model.AppSetting
		err := s.db.Where("key = ?", setting.Key).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return err
		}
		log.Printf("💰 Seeded %s = %s", setting.Key, setting.Value)
	}

	return nil
}

// SeedCourses creates a small starter catalog with free and paid
// courses so the storefront is browsable immediately
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	courses := []model.Course{
		{
			Title:       "Bitcoin Fundamentals",
			Slug:        "bitcoin-fundamentals",
			Description: "What Bitcoin is, how the network reaches consensus, and how to hold it safely.",
			Price:       0, // free starter course
			Published:   true,
			Lessons: []model.Lesson{
				{Title: "Why Bitcoin Exists", Position: 1, IsFree: true, DurationSec: 540},
				{Title: "Keys, Wallets and Custody", Position: 2, IsFree: true, DurationSec: 720},
				{Title: "How Transactions Settle", Position: 3, IsFree: false, DurationSec: 860},
			},
		},
		{
			Title:       "DeFi Deep Dive",
			Slug:        "defi-deep-dive",
			Description: "Lending markets, automated market makers and the risks underneath the yields.",
			Price:       149,
			Published:   true,
			Lessons: []model.Lesson{
				{Title: "The DeFi Landscape", Position: 1, IsFree: true, DurationSec: 600},
				{Title: "AMMs from First Principles", Position: 2, IsFree: false, DurationSec: 1080},
				{Title: "Lending and Liquidations", Position: 3, IsFree: false, DurationSec: 960},
				{Title: "Smart Contract Risk", Position: 4, IsFree: false, DurationSec: 840},
			},
		},
		{
			Title:       "Trading Psychology",
			Slug:        "trading-psychology",
			Description: "Position sizing, journaling and the discipline that keeps accounts alive.",
			Price:       99,
			Published:   false, // draft: admins publish when lessons are recorded
		},
	}

	for _, course := range courses {
		if err := s.db.Create(&course).Error; err != nil {
			return err
		}
		log.Printf("📚 Seeded course %s", course.Slug)
	}

	return nil
}
