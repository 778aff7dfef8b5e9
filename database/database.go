package database

import (
	"fmt"
	"log"

	config "github.com/jaujye/ocean-shopping-center-sub001/configs"
	"github.com/jaujye/ocean-shopping-center-sub001/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// SeedSystemUser ensures the reserved sender used for SYSTEM messages exists.
func SeedSystemUser() {
	systemEmail := config.ConfigOr("SYSTEM_USER_EMAIL", "system@ocean-shopping-center.local")

	var count int64
	err := DB.Model(&models.User{}).Where("role = ?", models.RoleSystem).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for system user: %v", err)
		return
	}

	if count > 0 {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(config.ConfigOr("SYSTEM_USER_PASSWORD", "disabled-login")), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash system user password: %v", err)
		return
	}

	systemUser := models.User{
		FullName: "Ocean Shopping Center",
		Email:    systemEmail,
		Password: string(hashedPassword),
		Role:     models.RoleSystem,
	}

	if err := DB.Create(&systemUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed system user: %v", err)
		return
	}

	log.Println("✅ System user seeded successfully")
}
