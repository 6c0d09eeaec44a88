package main

import (
	"flag"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
)

func main() {
	password := flag.String("password", "testpassword123", "Password for every seeded user")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Init(logging.Config{})
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Environment == config.Production {
		log.Fatal().Msg("refusing to seed test users in production")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}

	testUsers := []models.User{
		{Email: "john.doe@example.com", Username: "johndoe", FirstName: "John", LastName: "Doe"},
		{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"},
		{Email: "bob.wilson@example.com", Username: "bobwilson", FirstName: "Bob", LastName: "Wilson"},
		{Email: "admin@example.com", Username: "admin", FirstName: "Admin", LastName: "User", IsStaff: true},
	}
	for i := range testUsers {
		testUsers[i].PasswordHash = string(hash)
	}

	// Existing emails or usernames are left untouched.
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&testUsers)
	if result.Error != nil {
		log.Fatal().Err(result.Error).Msg("failed to create test users")
	}

	var total int64
	db.Model(&models.User{}).Count(&total)
	log.Info().
		Int64("created", result.RowsAffected).
		Int64("total_users", total).
		Msg("test users seeded")
}
