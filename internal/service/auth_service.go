package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hrd-community/hrd-backend/internal/config"
	"github.com/hrd-community/hrd-backend/internal/domain"
	"github.com/hrd-community/hrd-backend/internal/notify"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/repository"
	"github.com/hrd-community/hrd-backend/internal/security"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minPasswordLength = 6
	resetTokenTTL     = 15 * time.Minute
)

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type resetTokenPayload struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// AuthService implements registration, login, and the password lifecycle.
type AuthService struct {
	users       repository.UserRepository
	memberships *MembershipService
	jwt         *security.JWTManager
	tokens      *security.TokenCodec
	email       notify.EmailSender
	cfg         *config.Config
	logger      *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	memberships *MembershipService,
	jwt *security.JWTManager,
	tokens *security.TokenCodec,
	email notify.EmailSender,
	cfg *config.Config,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		memberships: memberships,
		jwt:         jwt,
		tokens:      tokens,
		email:       email,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return nil, "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}

	var phone *string
	if trimmed := strings.TrimSpace(in.Phone); trimmed != "" {
		normalized := notify.NormalizePhone(trimmed)
		if _, err := s.users.GetByPhone(ctx, normalized); err == nil {
			return nil, "", ErrPhoneTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("lookup phone: %w", err)
		}
		phone = &normalized
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         domain.RoleMember,
	}
	if email == s.cfg.BootstrapAdminEmail && s.cfg.BootstrapAdminEmail != "" {
		user.Role = domain.RoleAdmin
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Login accepts either an email address or a phone number as the identifier.
// Membership issuance is attempted after a successful login but never blocks
// it.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.users.GetByPhone(ctx, notify.NormalizePhone(identifier))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	if membership, ensureErr := s.memberships.EnsureForUser(ctx, user.ID, "login_ensure"); ensureErr != nil {
		s.logger.Warn("membership issuance on login failed",
			slog.String("user_id", user.ID),
			slog.String("error", ensureErr.Error()),
		)
	} else {
		user.Membership = membership
	}

	token, err := s.jwt.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// ForgotPassword mints a reset link for the account, if one exists. A missing
// account returns no error and no link, so responses cannot be used to probe
// for registered emails.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if s.cfg.AuthSecret == "" {
		return "", ErrResetDisabled
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.tokens.Sign(resetTokenPayload{Sub: user.ID, Email: user.Email}, resetTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	resetURL := s.cfg.AppOrigin + "/reset-password?token=" + url.QueryEscape(token)

	subject := "Reset your password"
	body := fmt.Sprintf(`<p>Namaste %s,</p>
<p>We received a request to reset your password. The link below is valid for 15 minutes.</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>`, user.Name, resetURL)

	if s.email == nil {
		observability.RecordNotifierDelivery(ctx, "email", "skipped")
		s.logger.Warn("no email sender configured, reset link not delivered",
			slog.String("user_id", user.ID),
		)
	} else if err := s.email.SendEmail(ctx, user.Email, subject, body); err != nil {
		observability.RecordNotifierDelivery(ctx, "email", "failure")
		s.logger.Warn("reset email delivery failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else {
		observability.RecordNotifierDelivery(ctx, "email", "success")
	}
	return resetURL, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.cfg.AuthSecret == "" {
		return ErrResetDisabled
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	var payload resetTokenPayload
	if err := s.tokens.Verify(token, &payload); err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return ErrResetTokenExpired
		}
		return ErrInvalidResetToken
	}

	user, err := s.users.GetByID(ctx, payload.Sub)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	// The token binds subject and email together; a mismatch means the
	// account changed since issuance.
	if user.Email != payload.Email {
		return ErrInvalidResetToken
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !security.VerifyPassword(oldPassword, user.PasswordHash) {
		return ErrWrongPassword
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
