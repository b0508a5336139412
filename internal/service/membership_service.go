package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/notify"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/repository"
	"github.com/hrd-community/hrd-backend/internal/security"
)

const memberIDAttempts = 5

type MembershipApplyInput struct {
	Name          string
	Phone         string
	Email         string
	Address       string
	DateOfBirth   string
	PhotoURL      string
	VerifiedToken string
}

// MembershipService issues membership cards. Two paths funnel into it: an
// explicit application with a verified phone, and silent issuance on login
// for accounts that predate the card system.
type MembershipService struct {
	memberships repository.MembershipRepository
	users       repository.UserRepository
	otp         *OTPService
	group       singleflight.Group
	now         func() time.Time
	logger      *slog.Logger
}

func NewMembershipService(
	memberships repository.MembershipRepository,
	users repository.UserRepository,
	otp *OTPService,
	logger *slog.Logger,
) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		users:       users,
		otp:         otp,
		now:         time.Now,
		logger:      logger,
	}
}

// GenerateUniqueMemberID draws random five-digit suffixes until one is free,
// up to memberIDAttempts. After that it falls back to the last five digits of
// the current epoch milliseconds, which moves every millisecond and so cannot
// stay collided.
func (s *MembershipService) GenerateUniqueMemberID(ctx context.Context) (string, string, error) {
	year := s.now().UTC().Year()
	for i := 0; i < memberIDAttempts; i++ {
		candidate := fmt.Sprintf("HRD-%d-%05d", year, rand.IntN(100000))
		exists, err := s.memberships.MemberIDExists(ctx, candidate)
		if err != nil {
			return "", "", fmt.Errorf("check member id: %w", err)
		}
		if !exists {
			return candidate, "random", nil
		}
		observability.RecordMemberIDCollision(ctx)
	}
	fallback := fmt.Sprintf("HRD-%d-%05d", year, s.now().UnixMilli()%100000)
	return fallback, "fallback", nil
}

// EnsureForUser returns the user's membership, issuing one if absent. The
// path tag distinguishes issuance routes in metrics. Concurrent calls for the
// same user collapse into a single issuance, and the unique index on user_id
// catches anything that slips past across processes.
func (s *MembershipService) EnsureForUser(ctx context.Context, userID, path string) (*domain.Membership, error) {
	v, err, _ := s.group.Do("ensure:"+userID, func() (any, error) {
		return s.ensureForUser(ctx, userID, path, MembershipApplyInput{})
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Membership), nil
}

func (s *MembershipService) ensureForUser(ctx context.Context, userID, path string, details MembershipApplyInput) (*domain.Membership, error) {
	existing, err := s.memberships.GetByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup membership: %w", err)
	}

	memberID, source, err := s.GenerateUniqueMemberID(ctx)
	if err != nil {
		return nil, err
	}
	m := &domain.Membership{
		UserID:      userID,
		MemberID:    memberID,
		Address:     details.Address,
		DateOfBirth: details.DateOfBirth,
		PhotoURL:    details.PhotoURL,
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race to another process; the winner's record stands.
			return s.memberships.GetByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}
	observability.RecordMembershipIssued(ctx, path, source)
	s.logger.Info("membership issued",
		slog.String("user_id", userID),
		slog.String("member_id", memberID),
		slog.String("path", path),
	)
	return m, nil
}

// Apply handles the anonymous membership application. The verified-phone
// token proves ownership of the number; the account is looked up by phone or
// created on the spot with a placeholder email when none is supplied.
func (s *MembershipService) Apply(ctx context.Context, in MembershipApplyInput) (*domain.User, *domain.Membership, error) {
	phone, err := s.otp.CheckVerifiedToken(in.VerifiedToken)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Phone != "" && notify.NormalizePhone(in.Phone) != phone {
		return nil, nil, fmt.Errorf("%w: phone does not match verified number", ErrInvalidInput)
	}

	user, err := s.lookupOrCreateByPhone(ctx, phone, in)
	if err != nil {
		return nil, nil, err
	}

	v, err, _ := s.group.Do("ensure:"+user.ID, func() (any, error) {
		return s.ensureForUser(ctx, user.ID, "apply", in)
	})
	if err != nil {
		return nil, nil, err
	}
	return user, v.(*domain.Membership), nil
}

// LookupOrCreate is the legacy anonymous flow: find or create an account by
// phone, then find or create its card, with no phone-ownership proof beyond
// knowing the number. Kept for card reprints at in-person camps.
func (s *MembershipService) LookupOrCreate(ctx context.Context, in MembershipApplyInput) (*domain.User, *domain.Membership, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, nil, fmt.Errorf("%w: name and phone are required", ErrInvalidInput)
	}
	phone := notify.NormalizePhone(in.Phone)

	user, err := s.lookupOrCreateByPhone(ctx, phone, in)
	if err != nil {
		return nil, nil, err
	}
	v, err, _ := s.group.Do("ensure:"+user.ID, func() (any, error) {
		return s.ensureForUser(ctx, user.ID, "lookup", in)
	})
	if err != nil {
		return nil, nil, err
	}
	return user, v.(*domain.Membership), nil
}

func (s *MembershipService) GetForUser(ctx context.Context, userID string) (*domain.Membership, error) {
	m, err := s.memberships.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return m, err
}

func (s *MembershipService) lookupOrCreateByPhone(ctx context.Context, phone string, in MembershipApplyInput) (*domain.User, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by phone: %w", err)
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		email = strings.TrimPrefix(phone, "+") + "@placeholder.local"
	}
	// Applicants without an account get one with an unguessable password;
	// they can claim it later through the reset flow.
	randomSecret, err := security.NewRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("generate account secret: %w", err)
	}
	hash, err := security.HashPassword(randomSecret)
	if err != nil {
		return nil, fmt.Errorf("hash account secret: %w", err)
	}
	user = &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        &phone,
		PasswordHash: hash,
		PhotoURL:     in.PhotoURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Another application for the same phone may have just created it.
		if existing, lookupErr := s.users.GetByPhone(ctx, phone); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
