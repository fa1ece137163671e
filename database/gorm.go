package database

import (
	"fmt"
	"log"
	"time"

	"github.com/coinacademy/api/config"
	"github.com/coinacademy/api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	// Open GORM connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Identity
		&model.User{},
		&model.JWTTokenBlacklist{},
		&model.PasswordResetToken{},

		// Catalog
		&model.Course{},
		&model.Lesson{},
		&model.LessonProgress{},

		// Entitlements
		&model.Enrollment{},
		&model.Subscription{},

		// Payments & invoicing
		&model.Payment{},
		&model.Invoice{},

		// Back office
		&model.AuditLog{},
		&model.AppSetting{},
		&model.CronJobLog{},
	)

	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in handlers/services
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// GetPublishedCourses retrieves all published courses, newest first
func (s *GORMStore) GetPublishedCourses() ([]model.Course, error) {
	var courses []model.Course
	result := s.db.Where("published = ?", true).Order("created_at DESC").Find(&courses)
	return courses, result.Error
}

// GetCourseBySlug retrieves a published course with its ordered lessons.
// Video URLs are deliberately not selected: the catalog listing must
// never expose playback locations for gated lessons.
func (s *GORMStore) GetCourseBySlug(slug string) (*model.Course, error) {
	var course model.Course
	err := s.db.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.
				Select("id, course_id, title, position, is_free, duration_sec, created_at, updated_at").
				Order("lessons.position ASC")
		}).
		Where("slug = ? AND published = ?", slug, true).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}
