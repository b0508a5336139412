package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hrd-community/hrd-backend/internal/domain"
)

// PostFilter narrows post listings. Zero values mean "no constraint".
type PostFilter struct {
	Status   string
	AuthorID string
	Category string
	Tag      string
	Query    string
	Limit    int
	Offset   int
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter PostFilter) ([]domain.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Post{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]domain.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Post{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	// Categories and Tags are JSON text columns, so the filters match the
	// encoded form.
	if filter.Category != "" {
		q = q.Where("categories LIKE ?", "%\""+filter.Category+"\"%")
	}
	if filter.Tag != "" {
		q = q.Where("tags LIKE ?", "%\""+filter.Tag+"\"%")
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var posts []domain.Post
	err := q.Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
