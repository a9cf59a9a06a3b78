package domain

import "errors"

// Lookup failures.
var (
	ErrPersonnelNotFound = errors.New("personnel not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrThreadNotFound    = errors.New("thread not found")
	ErrMediaNotFound     = errors.New("media not found")
)

// ErrConflict is returned by stores when a uniqueness constraint is violated.
var ErrConflict = errors.New("already exists")

// Verification flow.
var (
	ErrInvalidServiceNumber   = errors.New("service number not found")
	ErrFactorMismatch         = errors.New("identity factor does not match")
	ErrInvalidOTP             = errors.New("invalid otp")
	ErrOTPExpired             = errors.New("otp expired")
	ErrNoPendingOTP           = errors.New("no pending otp")
	ErrVerificationIncomplete = errors.New("verification step not completed")
)

// Credentials and sessions.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and include upper, lower, digit and symbol")
	ErrInvalidCredentials = errors.New("invalid service number or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionRevoked     = errors.New("session no longer active")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// Messaging.
var (
	ErrNotAuthorized            = errors.New("not authorized")
	ErrInvalidRecipient         = errors.New("recipient does not exist")
	ErrEmptyMessage             = errors.New("message needs content or media")
	ErrUnsupportedMedia         = errors.New("unsupported media type")
	ErrMediaTooLarge            = errors.New("media exceeds size limit")
	ErrInsufficientParticipants = errors.New("thread needs at least one participant")
	ErrThreadNameRequired       = errors.New("group thread name is required")
)

// ErrDependency marks a store or notifier that could not be reached.
var ErrDependency = errors.New("dependency unavailable")
