package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrd-community/hrd-backend/internal/config"
	"github.com/hrd-community/hrd-backend/internal/notify"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/security"
)

const (
	otpStartTTL    = 5 * time.Minute
	otpVerifiedTTL = 10 * time.Minute
)

type otpStartPayload struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifiedPhonePayload is the claim set of a verified-phone token. Downstream
// flows (membership application) accept it as proof of phone ownership.
type VerifiedPhonePayload struct {
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
}

type OTPStartResult struct {
	Token string
	// DevCode carries the generated code back to the caller when no SMS
	// gateway is configured. Never set in production.
	DevCode string
}

type OTPVerifyResult struct {
	Token string
	Phone string
}

// OTPService runs the stateless two-step phone verification flow. All state
// lives in the signed start token, so no storage is involved.
type OTPService struct {
	tokens *security.TokenCodec
	sms    notify.SMSSender
	cfg    *config.Config
	logger *slog.Logger
}

func NewOTPService(tokens *security.TokenCodec, sms notify.SMSSender, cfg *config.Config, logger *slog.Logger) *OTPService {
	return &OTPService{tokens: tokens, sms: sms, cfg: cfg, logger: logger}
}

func (s *OTPService) Start(ctx context.Context, phone string) (*OTPStartResult, error) {
	if s.cfg.AuthSecret == "" {
		return nil, ErrOTPUnavailable
	}
	phone = notify.NormalizePhone(strings.TrimSpace(phone))
	if len(phone) < 10 {
		return nil, fmt.Errorf("%w: invalid phone number", ErrInvalidInput)
	}

	code, err := security.NewOTPCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	token, err := s.tokens.Sign(otpStartPayload{Phone: phone, Code: code}, otpStartTTL)
	if err != nil {
		return nil, fmt.Errorf("sign otp token: %w", err)
	}

	result := &OTPStartResult{Token: token}
	if s.cfg.SMSConfigured() && s.sms != nil {
		if err := s.sms.SendSMS(ctx, phone, "Your Hindu Raksha Dal verification code is "+code); err != nil {
			observability.RecordNotifierDelivery(ctx, "sms", "failure")
			return nil, fmt.Errorf("send otp sms: %w", err)
		}
		observability.RecordNotifierDelivery(ctx, "sms", "success")
	} else if !s.cfg.IsProduction() {
		result.DevCode = code
	} else {
		s.logger.Error("otp requested but no sms gateway configured")
		return nil, ErrOTPUnavailable
	}
	return result, nil
}

// Verify checks the submitted code against the start token and, on success,
// mints a verified-phone token.
func (s *OTPService) Verify(ctx context.Context, token, code string) (*OTPVerifyResult, error) {
	if s.cfg.AuthSecret == "" {
		return nil, ErrOTPUnavailable
	}

	var payload otpStartPayload
	if err := s.tokens.Verify(token, &payload); err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrOTPExpired
		}
		return nil, ErrOTPInvalid
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(payload.Code)) != 1 {
		return nil, ErrOTPInvalid
	}

	verified, err := s.tokens.Sign(VerifiedPhonePayload{Phone: payload.Phone, Verified: true}, otpVerifiedTTL)
	if err != nil {
		return nil, fmt.Errorf("sign verified token: %w", err)
	}
	return &OTPVerifyResult{Token: verified, Phone: payload.Phone}, nil
}

// CheckVerifiedToken validates a verified-phone token and returns the phone
// it vouches for.
func (s *OTPService) CheckVerifiedToken(token string) (string, error) {
	if s.cfg.AuthSecret == "" {
		return "", ErrOTPUnavailable
	}
	var payload VerifiedPhonePayload
	if err := s.tokens.Verify(token, &payload); err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return "", ErrOTPExpired
		}
		return "", ErrOTPInvalid
	}
	if !payload.Verified || payload.Phone == "" {
		return "", ErrOTPInvalid
	}
	return payload.Phone, nil
}
