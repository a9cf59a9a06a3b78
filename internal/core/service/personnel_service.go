package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// PersonnelService registers directory records and serves profiles.
type PersonnelService struct {
	repo ports.PersonnelRepository
	ids  ports.IDGenerator
	now  func() time.Time
	log  zerolog.Logger
}

func NewPersonnelService(repo ports.PersonnelRepository, ids ports.IDGenerator, log zerolog.Logger) *PersonnelService {
	return &PersonnelService{repo: repo, ids: ids, now: time.Now, log: log}
}

// Register creates a record with no password. The holder completes the
// verification flow to set one.
func (s *PersonnelService) Register(ctx context.Context, in ports.RegisterPersonnelInput) (*domain.Personnel, error) {
	surname := strings.TrimSpace(in.Surname)
	serviceNumber := strings.TrimSpace(in.ServiceNumber)
	phone := strings.TrimSpace(in.PhoneNumber)
	email := strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.FirstName) == "" || surname == "" || serviceNumber == "" || phone == "" {
		return nil, domain.ErrInvalidInput
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.ErrInvalidInput
		}
	}

	role := in.Role
	if role == "" {
		role = domain.RolePersonnel
	}
	if role != domain.RolePersonnel && role != domain.RoleAdmin {
		return nil, domain.ErrInvalidInput
	}

	contact := in.PreferredContact
	if contact == "" {
		contact = domain.ChannelSMS
		if email != "" {
			contact = domain.ChannelEmail
		}
	}
	if err := checkContact(contact, email, phone); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &domain.Personnel{
		ID:               s.ids.NextID(),
		OfficialName:     domain.DeriveOfficialName(in.FirstName, in.MiddleName, surname),
		ServiceNumber:    serviceNumber,
		Email:            email,
		PhoneNumber:      phone,
		Rank:             strings.TrimSpace(in.Rank),
		Role:             role,
		PreferredContact: contact,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Int64("personnel_id", p.ID).Str("service_number", p.ServiceNumber).Msg("personnel registered")
	return p, nil
}

func (s *PersonnelService) Get(ctx context.Context, id int64) (*domain.Personnel, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile changes contact details. The identity fields are fixed.
func (s *PersonnelService) UpdateProfile(ctx context.Context, id int64, upd ports.ProfileUpdate) (*domain.Personnel, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	phone := current.PhoneNumber
	if upd.PhoneNumber != nil {
		trimmed := strings.TrimSpace(*upd.PhoneNumber)
		if trimmed == "" {
			return nil, domain.ErrInvalidInput
		}
		upd.PhoneNumber = &trimmed
		phone = trimmed
	}
	if upd.Rank != nil {
		trimmed := strings.TrimSpace(*upd.Rank)
		upd.Rank = &trimmed
	}
	contact := current.PreferredContact
	if upd.PreferredContact != nil {
		contact = *upd.PreferredContact
	}
	if err := checkContact(contact, current.Email, phone); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

// checkContact rejects a preferred channel the record has no address for.
func checkContact(ch domain.ContactChannel, email, phone string) error {
	switch ch {
	case domain.ChannelEmail:
		if email == "" {
			return domain.ErrInvalidInput
		}
	case domain.ChannelSMS:
		if phone == "" {
			return domain.ErrInvalidInput
		}
	default:
		return domain.ErrInvalidInput
	}
	return nil
}
