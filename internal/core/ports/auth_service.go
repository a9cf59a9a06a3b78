package ports

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// ChangePasswordInput is the authenticated password change request.
type ChangePasswordInput struct {
	PersonnelID     int64
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// ResetPasswordInput is submitted from a password reset link.
type ResetPasswordInput struct {
	UID             string
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// AuthService issues and checks credentials.
type AuthService interface {
	Login(ctx context.Context, serviceNumber, password string) (*domain.Credential, *domain.Personnel, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error)
	Logout(ctx context.Context, principal domain.Principal) error
	// Authenticate resolves an access token to its principal. Tokens whose
	// session has been replaced or revoked fail with domain.ErrSessionRevoked.
	Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error)
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
}
