package ports

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// SessionStore indexes the single live session of each identity by personnel id.
type SessionStore interface {
	// Replace makes s the only live session of s.PersonnelID. Any previous
	// session is invalidated by the same write.
	Replace(ctx context.Context, s *domain.Session) error
	// Current returns the live session id, or "" when there is none.
	Current(ctx context.Context, personnelID int64) (string, error)
	// Revoke removes the live session only if it is still sessionID.
	Revoke(ctx context.Context, personnelID int64, sessionID string) error
}

// VerificationStore tracks verification progress per service number.
type VerificationStore interface {
	// Get returns domain.VerificationStart when no attempt is recorded.
	Get(ctx context.Context, serviceNumber string) (domain.VerificationState, error)
	// Advance moves the attempt to state unless it is already at or beyond it,
	// and returns the resulting state.
	Advance(ctx context.Context, serviceNumber string, state domain.VerificationState) (domain.VerificationState, error)
	// Reset starts a new attempt at state, discarding a finished one.
	Reset(ctx context.Context, serviceNumber string, state domain.VerificationState) error
	// SaveToken records the digest of the token handed out on OTP success.
	SaveToken(ctx context.Context, serviceNumber, digest string) error
	// Token returns the recorded digest, or "" when none is live.
	Token(ctx context.Context, serviceNumber string) (string, error)
}
