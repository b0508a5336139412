package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

type User struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	Email        string      `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone        *string     `gorm:"uniqueIndex;size:32" json:"phone,omitempty"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	PasswordHash string      `gorm:"size:1024;not null" json:"-"`
	PhotoURL     string      `gorm:"size:2048" json:"photo_url,omitempty"`
	Role         string      `gorm:"size:16;not null;default:MEMBER" json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Membership   *Membership `json:"membership,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
