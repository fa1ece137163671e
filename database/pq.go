package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/coinacademy/api/config"
	"github.com/coinacademy/api/model"
	_ "github.com/lib/pq"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GORM DB access
	GetDB() interface{} // Returns *gorm.DB for GORMStore, *sql.DB for PostgreSQLStore

	// Storefront catalog reads (implemented by both stores)
	GetPublishedCourses() ([]model.Course, error)
	GetCourseBySlug(slug string) (*model.Course, error)
}

// PostgreSQLStore is the raw database/sql implementation. It serves the
// read-only catalog surface; everything stateful goes through GORMStore.
type PostgreSQLStore struct {
	db *sql.DB
}

func Start() (*PostgreSQLStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	connStr := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Println("Unable to connect to PostgreSQL:", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to PostgreSQL Database.")

	return &PostgreSQLStore{db: db}, nil
}

// Init is a no-op for the raw store; schema migration is owned by GORMStore
func (s *PostgreSQLStore) Init() error {
	return nil
}

func (s *PostgreSQLStore) Close() error {
	log.Println("Closing PostgreSQL connection...")
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgreSQLStore) GetDB() interface{} {
	return s.db
}
