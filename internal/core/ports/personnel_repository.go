package ports

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// ProfileUpdate carries the profile fields a holder may change. Nil fields are left untouched.
type ProfileUpdate struct {
	PhoneNumber      *string
	Rank             *string
	PreferredContact *domain.ContactChannel
}

// PersonnelRepository is the identity store. Callers are trusted: no
// authorization happens here. Lookups return domain.ErrPersonnelNotFound and
// Create returns domain.ErrConflict on a duplicate service number or email.
type PersonnelRepository interface {
	Create(ctx context.Context, p *domain.Personnel) error
	FindByID(ctx context.Context, id int64) (*domain.Personnel, error)
	// FindByIDs returns the records that exist; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []int64) ([]*domain.Personnel, error)
	FindByServiceNumber(ctx context.Context, serviceNumber string) (*domain.Personnel, error)
	FindByEmail(ctx context.Context, email string) (*domain.Personnel, error)
	FindByPhoneAndServiceNumber(ctx context.Context, phoneNumber, serviceNumber string) (*domain.Personnel, error)
	SetPassword(ctx context.Context, id int64, hash string) error
	// SetOTP replaces code and expiry together in a single write.
	SetOTP(ctx context.Context, id int64, otp domain.PendingOTP) error
	ClearOTP(ctx context.Context, id int64) error
	// ConsumeOTP clears the pending code only if it still equals code, and
	// reports whether this call was the one that cleared it.
	ConsumeOTP(ctx context.Context, id int64, code string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*domain.Personnel, error)
}
