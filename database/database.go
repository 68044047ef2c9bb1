package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/calicantus/studio-cms-backend/config"
)

var DB *gorm.DB

// Connect opens the Postgres connection and keeps the handle in DB for
// route wiring.
func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	DB = db
	return db
}

// HasColumn checks information_schema for a column's existence. Used once at
// startup to build the column capability descriptor for the classes
// repository; older deployments predate the is_recurring_preserved column.
func HasColumn(db *gorm.DB, table, column string) bool {
	var count int64
	err := db.Raw(`
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_name = ?
		AND column_name = ?
	`, table, column).Scan(&count).Error
	if err != nil {
		log.Printf("⚠️ Could not check for column %s.%s: %v", table, column, err)
		return false
	}
	return count > 0
}
