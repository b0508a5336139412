package database

import (
	"github.com/hrd-community/hrd-backend/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Membership{},
		&domain.Post{},
		&domain.ContactMessage{},
	)
}
