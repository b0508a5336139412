package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hrd-community/hrd-backend/internal/domain"

	"gorm.io/gorm"
)

type SeedReport struct {
	PromotedAdmin bool `json:"promoted_admin"`
	Noop          bool `json:"noop"`
}

// Seed promotes the configured bootstrap account to ADMIN if it exists and
// is not an admin already. Registration handles the case where the account
// does not exist yet, so a missing user is not an error here.
func Seed(db *gorm.DB, bootstrapAdminEmail string) (*SeedReport, error) {
	report := &SeedReport{}

	email := strings.TrimSpace(strings.ToLower(bootstrapAdminEmail))
	if email == "" {
		report.Noop = true
		return report, nil
	}

	var u domain.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			report.Noop = true
			return report, nil
		}
		return nil, fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	if u.Role == domain.RoleAdmin {
		report.Noop = true
		return report, nil
	}

	if err := db.Model(&u).Update("role", domain.RoleAdmin).Error; err != nil {
		return nil, fmt.Errorf("promote bootstrap admin: %w", err)
	}
	report.PromotedAdmin = true
	return report, nil
}
