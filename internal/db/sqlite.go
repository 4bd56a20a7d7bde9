package db

import (
	"log"

	"github.com/glebarez/sqlite"
	"github.com/yutinghan/calendar-assistant/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the SQLite database and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(
		&models.User{},
		&models.UserToken{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		return nil, err
	}

	log.Printf("📦 Database ready at %s", dbPath)
	return database, nil
}
