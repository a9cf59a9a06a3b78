package ports

import "context"

// FactorInput is the second identifying fact supplied for a service number.
// Exactly one of the fields is expected to be set.
type FactorInput struct {
	OfficialName string
	PhoneNumber  string
	Email        string
}

// SetPasswordInput carries the final step of the verification flow.
type SetPasswordInput struct {
	ServiceNumber     string
	VerificationToken string
	Password          string
	ConfirmPassword   string
}

// VerificationService drives the identity verification flow.
type VerificationService interface {
	CheckServiceNumber(ctx context.Context, serviceNumber string) error
	ConfirmFactor(ctx context.Context, serviceNumber string, factor FactorInput) error
	// VerifyOTP returns a single-attempt token that SetPassword requires.
	VerifyOTP(ctx context.Context, serviceNumber, code string) (string, error)
	SetPassword(ctx context.Context, input SetPasswordInput) error
}
