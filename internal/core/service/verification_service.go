package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// VerificationService walks a new holder from service number to first password:
// service number, one identifying factor, OTP round trip, password.
type VerificationService struct {
	personnel ports.PersonnelRepository
	progress  ports.VerificationStore
	otp       *OTPEngine
	hasher    ports.PasswordHasher
	log       zerolog.Logger
}

func NewVerificationService(
	personnel ports.PersonnelRepository,
	progress ports.VerificationStore,
	otp *OTPEngine,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) *VerificationService {
	return &VerificationService{
		personnel: personnel,
		progress:  progress,
		otp:       otp,
		hasher:    hasher,
		log:       log,
	}
}

// CheckServiceNumber opens (or reopens) a verification attempt.
func (s *VerificationService) CheckServiceNumber(ctx context.Context, serviceNumber string) error {
	serviceNumber = strings.TrimSpace(serviceNumber)
	if serviceNumber == "" {
		return domain.ErrInvalidServiceNumber
	}

	if _, err := s.lookup(ctx, serviceNumber); err != nil {
		return err
	}

	state, err := s.progress.Get(ctx, serviceNumber)
	if err != nil {
		return fmt.Errorf("check service number: %w", err)
	}
	if state.Terminal() {
		err = s.progress.Reset(ctx, serviceNumber, domain.VerificationServiceNumberConfirmed)
	} else {
		_, err = s.progress.Advance(ctx, serviceNumber, domain.VerificationServiceNumberConfirmed)
	}
	if err != nil {
		return fmt.Errorf("check service number: %w", err)
	}
	return nil
}

// ConfirmFactor matches one identifying fact against the record. Phone and
// email factors also issue an OTP over that channel.
func (s *VerificationService) ConfirmFactor(ctx context.Context, serviceNumber string, factor ports.FactorInput) error {
	serviceNumber = strings.TrimSpace(serviceNumber)
	kind, value, err := factorOf(factor)
	if err != nil {
		return err
	}

	p, err := s.lookup(ctx, serviceNumber)
	if err != nil {
		return err
	}
	if err := s.requireInProgress(ctx, serviceNumber, domain.VerificationServiceNumberConfirmed); err != nil {
		return err
	}

	ok, err := s.matchFactor(ctx, p, kind, value)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Info().Str("service_number", serviceNumber).Str("factor", string(kind)).Msg("factor mismatch")
		return domain.ErrFactorMismatch
	}

	if _, err := s.progress.Advance(ctx, serviceNumber, domain.VerificationFactorConfirmed); err != nil {
		return fmt.Errorf("confirm factor: %w", err)
	}

	ch, issues := kind.Channel()
	if !issues {
		return nil
	}
	if err := s.otp.Issue(ctx, p, ch); err != nil {
		return err
	}
	if _, err := s.progress.Advance(ctx, serviceNumber, domain.VerificationOTPIssued); err != nil {
		return fmt.Errorf("confirm factor: %w", err)
	}
	return nil
}

// VerifyOTP checks the submitted code and returns the token SetPassword
// requires. A wrong code leaves the attempt where it was so the holder can
// retry without a new code.
func (s *VerificationService) VerifyOTP(ctx context.Context, serviceNumber, code string) (string, error) {
	serviceNumber = strings.TrimSpace(serviceNumber)
	code = strings.TrimSpace(code)
	if code == "" {
		return "", domain.ErrInvalidOTP
	}

	p, err := s.lookup(ctx, serviceNumber)
	if err != nil {
		return "", err
	}
	if err := s.requireInProgress(ctx, serviceNumber, domain.VerificationOTPIssued); err != nil {
		return "", err
	}

	pending := p.OTP
	ok, err := s.otp.Verify(ctx, p, code)
	if err != nil {
		return "", err
	}
	if !ok {
		if pending != nil && pending.Expired(s.otp.now()) {
			return "", domain.ErrOTPExpired
		}
		return "", domain.ErrInvalidOTP
	}

	token, err := newVerificationToken()
	if err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	if err := s.progress.SaveToken(ctx, serviceNumber, tokenDigest(token)); err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	if _, err := s.progress.Advance(ctx, serviceNumber, domain.VerificationOTPVerified); err != nil {
		return "", fmt.Errorf("verify otp: %w", err)
	}
	return token, nil
}

// SetPassword finishes the attempt. It is accepted exactly once per verified
// OTP and only with the token VerifyOTP returned.
func (s *VerificationService) SetPassword(ctx context.Context, in ports.SetPasswordInput) error {
	if err := domain.ValidateNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return err
	}

	serviceNumber := strings.TrimSpace(in.ServiceNumber)
	p, err := s.personnel.FindByServiceNumber(ctx, serviceNumber)
	if err != nil {
		return err
	}

	state, err := s.progress.Get(ctx, serviceNumber)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if state != domain.VerificationOTPVerified {
		return domain.ErrVerificationIncomplete
	}
	digest, err := s.progress.Token(ctx, serviceNumber)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if digest == "" || !constantEqual(digest, tokenDigest(strings.TrimSpace(in.VerificationToken))) {
		s.log.Warn().Str("service_number", serviceNumber).Msg("set password with wrong verification token")
		return domain.ErrVerificationIncomplete
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("set password: hash: %w", err)
	}
	if err := s.personnel.SetPassword(ctx, p.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if err := s.personnel.ClearOTP(ctx, p.ID); err != nil {
		s.log.Warn().Err(err).Int64("personnel_id", p.ID).Msg("failed to clear otp after password set")
	}
	if _, err := s.progress.Advance(ctx, serviceNumber, domain.VerificationPasswordSet); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	s.log.Info().Int64("personnel_id", p.ID).Msg("password set through verification")
	return nil
}

func (s *VerificationService) lookup(ctx context.Context, serviceNumber string) (*domain.Personnel, error) {
	if serviceNumber == "" {
		return nil, domain.ErrInvalidServiceNumber
	}
	p, err := s.personnel.FindByServiceNumber(ctx, serviceNumber)
	if err != nil {
		if errors.Is(err, domain.ErrPersonnelNotFound) {
			return nil, domain.ErrInvalidServiceNumber
		}
		return nil, err
	}
	return p, nil
}

// requireInProgress fails unless the attempt reached min and has not finished.
func (s *VerificationService) requireInProgress(ctx context.Context, serviceNumber string, min domain.VerificationState) error {
	state, err := s.progress.Get(ctx, serviceNumber)
	if err != nil {
		return fmt.Errorf("verification progress: %w", err)
	}
	if !state.Reached(min) || state.Terminal() {
		return domain.ErrVerificationIncomplete
	}
	return nil
}

func (s *VerificationService) matchFactor(ctx context.Context, p *domain.Personnel, kind domain.FactorKind, value string) (bool, error) {
	switch kind {
	case domain.FactorOfficialName:
		return constantEqual(p.OfficialName, value), nil
	case domain.FactorEmail:
		return p.Email != "" && constantEqual(p.Email, value), nil
	case domain.FactorPhoneNumber:
		_, err := s.personnel.FindByPhoneAndServiceNumber(ctx, value, p.ServiceNumber)
		if errors.Is(err, domain.ErrPersonnelNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func factorOf(f ports.FactorInput) (domain.FactorKind, string, error) {
	var (
		kind  domain.FactorKind
		value string
		set   int
	)
	if v := strings.TrimSpace(f.OfficialName); v != "" {
		kind, value = domain.FactorOfficialName, v
		set++
	}
	if v := strings.TrimSpace(f.PhoneNumber); v != "" {
		kind, value = domain.FactorPhoneNumber, v
		set++
	}
	if v := strings.TrimSpace(f.Email); v != "" {
		kind, value = domain.FactorEmail, v
		set++
	}
	if set != 1 {
		return "", "", domain.ErrInvalidInput
	}
	return kind, value, nil
}

// newVerificationToken returns 32 random bytes, URL-safe encoded. Only its
// digest is stored.
func newVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func constantEqual(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
