package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrWrongPassword      = errors.New("current password is incorrect")

	// ErrResetDisabled is returned when no signing secret is configured, so
	// reset tokens cannot be minted or verified.
	ErrResetDisabled      = errors.New("password reset is not available")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrResetTokenExpired  = errors.New("reset token expired")

	ErrOTPUnavailable = errors.New("otp verification is not available")
	ErrOTPInvalid     = errors.New("invalid otp")
	ErrOTPExpired     = errors.New("otp expired")

	ErrPostNotFound    = errors.New("post not found")
	ErrForbidden       = errors.New("forbidden")
	ErrContactNotFound = errors.New("contact message not found")
)
