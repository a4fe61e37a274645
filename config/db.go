package config

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pressroom-cms/models"
)

// InitDB opens the postgres connection and migrates the schema.
func InitDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_USER", "pressroom"),
		getenv("DB_PASSWORD", "pressroom"),
		getenv("DB_NAME", "pressroom"),
		getenv("DB_SSLMODE", "disable"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	return db
}

// Migrate creates the schema for every model. Shared with the test setup.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Author{},
		&models.Draft{},
		&models.Published{},
		&models.DraftAuthor{},
		&models.PublishedAuthor{},
	)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
