package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hrd-community/hrd-backend/internal/domain"
)

type ContactMessageRepository interface {
	Create(ctx context.Context, msg *domain.ContactMessage) error
	GetByID(ctx context.Context, id string) (*domain.ContactMessage, error)
	Update(ctx context.Context, msg *domain.ContactMessage) error
	List(ctx context.Context, status string, limit, offset int) ([]domain.ContactMessage, int64, error)
}

type contactMessageRepository struct {
	db *gorm.DB
}

func NewContactMessageRepository(db *gorm.DB) ContactMessageRepository {
	return &contactMessageRepository{db: db}
}

func (r *contactMessageRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *contactMessageRepository) GetByID(ctx context.Context, id string) (*domain.ContactMessage, error) {
	var msg domain.ContactMessage
	err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *contactMessageRepository) Update(ctx context.Context, msg *domain.ContactMessage) error {
	return r.db.WithContext(ctx).Save(msg).Error
}

func (r *contactMessageRepository) List(ctx context.Context, status string, limit, offset int) ([]domain.ContactMessage, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.ContactMessage{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var msgs []domain.ContactMessage
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}
