package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hrd-community/hrd-backend/internal/domain"
)

// ErrDuplicate reports a unique-constraint violation on insert. Callers in
// the membership issuance path treat it as "someone else won the race".
var ErrDuplicate = errors.New("duplicate record")

type MembershipRepository interface {
	Create(ctx context.Context, m *domain.Membership) error
	GetByUserID(ctx context.Context, userID string) (*domain.Membership, error)
	GetByMemberID(ctx context.Context, memberID string) (*domain.Membership, error)
	MemberIDExists(ctx context.Context, memberID string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *membershipRepository) GetByUserID(ctx context.Context, userID string) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) GetByMemberID(ctx context.Context, memberID string) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.WithContext(ctx).First(&m, "member_id = ?", memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) MemberIDExists(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("member_id = ?", memberID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *membershipRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Membership{}).Count(&total).Error
	return total, err
}
