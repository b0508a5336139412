package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership is the issued membership card record. MemberID carries the
// human-readable card number (HRD-<year>-<5 digits>) and is globally unique;
// the unique index on UserID is the backstop against the two issuance paths
// racing on the same account.
type Membership struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	MemberID    string    `gorm:"uniqueIndex;size:32;not null" json:"member_id"`
	IssuedAt    time.Time `gorm:"not null" json:"issued_at"`
	Address     string    `gorm:"size:512" json:"address,omitempty"`
	DateOfBirth string    `gorm:"size:32" json:"date_of_birth,omitempty"`
	PhotoURL    string    `gorm:"size:2048" json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.IssuedAt.IsZero() {
		m.IssuedAt = time.Now().UTC()
	}
	return nil
}
