package ports

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// RegisterPersonnelInput carries the identity facts captured at registration.
type RegisterPersonnelInput struct {
	FirstName        string
	MiddleName       string
	Surname          string
	ServiceNumber    string
	Email            string
	PhoneNumber      string
	Rank             string
	Role             string
	PreferredContact domain.ContactChannel
}

// PersonnelService manages directory records outside the verification flow.
type PersonnelService interface {
	Register(ctx context.Context, input RegisterPersonnelInput) (*domain.Personnel, error)
	Get(ctx context.Context, id int64) (*domain.Personnel, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*domain.Personnel, error)
}
