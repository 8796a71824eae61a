package db

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"playlater/models"
)

var DB *gorm.DB

func InitDB() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=postgres dbname=playlater password=postgres sslmode=disable"
	}

	var openErr error
	DB, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if openErr != nil {
		log.Fatal("failed to connect to the database:", openErr)
	}

	migrateErr := DB.AutoMigrate(&models.User{}, &models.Game{}, &models.CollectionItem{}, &models.Playthrough{})
	if migrateErr != nil {
		log.Fatal("failed to migrate:", migrateErr)
	}

	log.Println("Database connected and migrated")
}
