package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hrd-community/hrd-backend/internal/config"
	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/security"
)

const testSecret = "auth-test-secret-0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Env:        "test",
		AuthSecret: testSecret,
		AppOrigin:  "https://hrd.example.org",
	}
}

type authFixture struct {
	svc         *AuthService
	users       *stubUserRepo
	memberships *stubMembershipRepo
	email       *stubEmailSender
	codec       *security.TokenCodec
	cfg         *config.Config
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := testConfig()
	users := newStubUserRepo()
	memberships := newStubMembershipRepo()
	email := &stubEmailSender{}
	codec := security.NewTokenCodec(cfg.AuthSecret)
	otp := NewOTPService(codec, nil, cfg, testLogger())
	membershipSvc := NewMembershipService(memberships, users, otp, testLogger())
	jwt := security.NewJWTManager(cfg.AuthSecret, "hrd-backend", "hrd-backend-api", time.Hour)
	svc := NewAuthService(users, membershipSvc, jwt, codec, email, cfg, testLogger())
	return &authFixture{svc: svc, users: users, memberships: memberships, email: email, codec: codec, cfg: cfg}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, token, err := f.svc.Register(ctx, RegisterInput{
		Name:     "Asha",
		Email:    "Asha@Example.org",
		Phone:    "9876543210",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected session token")
	}
	if user.Email != "asha@example.org" {
		t.Fatalf("expected lowercased email, got %s", user.Email)
	}
	if user.Phone == nil || *user.Phone != "+919876543210" {
		t.Fatalf("expected normalized phone, got %v", user.Phone)
	}
	if user.Role != domain.RoleMember {
		t.Fatalf("expected MEMBER role, got %s", user.Role)
	}

	logged, token, err := f.svc.Login(ctx, "asha@example.org", "secret1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" || logged.ID != user.ID {
		t.Fatal("unexpected login result")
	}
	if logged.Membership == nil {
		t.Fatal("expected membership issued on login")
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "bad-email", Password: "secret1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, _, err := f.svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing name, got %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Phone: "9876543210", Password: "secret1"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "B", Email: "a@b.co", Password: "secret1"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "B", Email: "b@b.co", Phone: "+919876543210", Password: "secret1"}); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
}

func TestRegisterBootstrapAdmin(t *testing.T) {
	f := newAuthFixture(t)
	f.cfg.BootstrapAdminEmail = "admin@example.org"

	user, _, err := f.svc.Register(context.Background(), RegisterInput{Name: "Admin", Email: "admin@example.org", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN role, got %s", user.Role)
	}
}

func TestLoginByPhone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Phone: "9876543210", Password: "secret1"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "9876543210", "secret1"); err != nil {
		t.Fatalf("Login by phone returned error: %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, _, err := f.svc.Login(ctx, "a@b.co", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "nobody@b.co", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty input, got %v", err)
	}
}

func TestForgotPasswordKnownAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	resetURL, err := f.svc.ForgotPassword(ctx, "a@b.co")
	if err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	if !strings.HasPrefix(resetURL, "https://hrd.example.org/reset-password?token=") {
		t.Fatalf("unexpected reset url: %s", resetURL)
	}
	if f.email.calls != 1 || f.email.lastTo != "a@b.co" {
		t.Fatalf("expected one reset email to a@b.co, got %d to %s", f.email.calls, f.email.lastTo)
	}
}

func TestForgotPasswordUnknownAccount(t *testing.T) {
	f := newAuthFixture(t)

	resetURL, err := f.svc.ForgotPassword(context.Background(), "ghost@b.co")
	if err != nil {
		t.Fatalf("expected no error for unknown account, got %v", err)
	}
	if resetURL != "" {
		t.Fatalf("expected empty reset url, got %s", resetURL)
	}
	if f.email.calls != 0 {
		t.Fatal("no email should be sent for unknown accounts")
	}
}

func TestForgotPasswordDisabledWithoutSecret(t *testing.T) {
	f := newAuthFixture(t)
	f.cfg.AuthSecret = ""
	if _, err := f.svc.ForgotPassword(context.Background(), "a@b.co"); !errors.Is(err, ErrResetDisabled) {
		t.Fatalf("expected ErrResetDisabled, got %v", err)
	}
}

func TestResetPasswordRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if _, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	resetURL, err := f.svc.ForgotPassword(ctx, "a@b.co")
	if err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	token := strings.TrimPrefix(resetURL, "https://hrd.example.org/reset-password?token=")

	if err := f.svc.ResetPassword(ctx, token, "newsecret"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "a@b.co", "newsecret"); err != nil {
		t.Fatalf("Login with new password returned error: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "a@b.co", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
}

func TestResetPasswordBadToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if err := f.svc.ResetPassword(ctx, "not-a-token", "newsecret"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}

	expired, err := f.codec.Sign(resetTokenPayload{Sub: "u1", Email: "a@b.co"}, -time.Minute)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, expired, "newsecret"); !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("expected ErrResetTokenExpired, got %v", err)
	}
}

func TestResetPasswordWeakPassword(t *testing.T) {
	f := newAuthFixture(t)
	if err := f.svc.ResetPassword(context.Background(), "whatever", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, _, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := f.svc.ChangePassword(ctx, user.ID, "wrong", "newsecret"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, user.ID, "secret1", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := f.svc.ChangePassword(ctx, user.ID, "secret1", "newsecret"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "a@b.co", "newsecret"); err != nil {
		t.Fatalf("Login with new password returned error: %v", err)
	}
}
