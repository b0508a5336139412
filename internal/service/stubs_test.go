package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	createErr error
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]*domain.User{}}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleMember
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone != nil && *u.Phone == phone {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type stubMembershipRepo struct {
	mu       sync.Mutex
	byUser   map[string]*domain.Membership
	byCardID map[string]*domain.Membership

	existsAlways bool
	createErr    error
	createCalls  int
}

func newStubMembershipRepo() *stubMembershipRepo {
	return &stubMembershipRepo{
		byUser:   map[string]*domain.Membership{},
		byCardID: map[string]*domain.Membership{},
	}
}

func (r *stubMembershipRepo) Create(_ context.Context, m *domain.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byUser[m.UserID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.byCardID[m.MemberID]; ok {
		return repository.ErrDuplicate
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	clone := *m
	r.byUser[m.UserID] = &clone
	r.byCardID[m.MemberID] = &clone
	return nil
}

func (r *stubMembershipRepo) GetByUserID(_ context.Context, userID string) (*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byUser[userID]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubMembershipRepo) GetByMemberID(_ context.Context, memberID string) (*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byCardID[memberID]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubMembershipRepo) MemberIDExists(_ context.Context, memberID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsAlways {
		return true, nil
	}
	_, ok := r.byCardID[memberID]
	return ok, nil
}

func (r *stubMembershipRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byUser)), nil
}

type stubSMSSender struct {
	mu    sync.Mutex
	sent  []string
	err   error
	calls int
}

func (s *stubSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to+": "+body)
	return nil
}

type stubEmailSender struct {
	mu       sync.Mutex
	lastTo   string
	lastBody string
	err      error
	calls    int
}

func (s *stubEmailSender) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.lastTo = to
	s.lastBody = htmlBody
	return nil
}
