package bootstrap

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"liftly.app/liftly/internal/model"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.PostMedia{},
		&model.Like{},
		&model.Notification{},
		&model.WeightEntry{},
		&model.PersonalRecord{},
	)
}

func SeedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@liftly.app").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	password := "admin123"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Handle:       "admin",
		DisplayName:  "Administrator",
		Email:        "admin@liftly.app",
		PasswordHash: string(hashed),
		Role:         model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Admin user seeded (admin@liftly.app / admin123)")
	return nil
}

// SeedBotUser creates the coach account up front so mentions resolve even
// before the first summon.
func SeedBotUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("handle = ?", model.BotHandle).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	// Placeholder credential; the bot never logs in.
	hashed, err := bcrypt.GenerateFromPassword([]byte(model.BotHandle+"-system"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	bot := model.User{
		Handle:       model.BotHandle,
		DisplayName:  "Coach",
		Email:        "coach@liftly.app",
		PasswordHash: string(hashed),
		Role:         model.RoleBot,
	}
	if err := db.Create(&bot).Error; err != nil {
		return err
	}

	log.Println("Coach bot user seeded")
	return nil
}
