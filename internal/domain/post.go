package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PostTypeText  = "TEXT"
	PostTypeImage = "IMAGE"
	PostTypeVideo = "VIDEO"

	PostStatusPending  = "PENDING"
	PostStatusApproved = "APPROVED"
	PostStatusRejected = "REJECTED"
)

// StringList stores a []string as a JSON column so the same model works on
// postgres and the sqlite test database.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported StringList source type %T", src)
	}
}

func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

type Post struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	AuthorID   string     `gorm:"size:36;not null;index" json:"author_id"`
	Author     *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title      string     `gorm:"size:512;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Type       string     `gorm:"size:16;not null;default:TEXT" json:"type"`
	Status     string     `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	Categories StringList `gorm:"type:text" json:"categories"`
	Tags       StringList `gorm:"type:text" json:"tags"`
	Media      StringList `gorm:"type:text" json:"media"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Type == "" {
		p.Type = PostTypeText
	}
	if p.Status == "" {
		p.Status = PostStatusPending
	}
	return nil
}
