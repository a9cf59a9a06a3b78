package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// AuthConfig holds token lifetimes and the reset link base.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	FrontendURL     string
}

// AuthService implements login, single-session enforcement and password management.
type AuthService struct {
	personnel  ports.PersonnelRepository
	sessions   ports.SessionStore
	hasher     ports.PasswordHasher
	ids        ports.IDGenerator
	dispatcher ports.NotificationDispatcher
	cfg        AuthConfig
	tokens     tokenSigner
	now        func() time.Time
	dummyHash  string
	log        zerolog.Logger
}

func NewAuthService(
	personnel ports.PersonnelRepository,
	sessions ports.SessionStore,
	hasher ports.PasswordHasher,
	ids ports.IDGenerator,
	dispatcher ports.NotificationDispatcher,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 24 * time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	s := &AuthService{
		personnel:  personnel,
		sessions:   sessions,
		hasher:     hasher,
		ids:        ids,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
		log:        log,
	}
	s.tokens = tokenSigner{secret: []byte(cfg.JWTSecret), now: func() time.Time { return s.now() }}

	// Unknown service numbers still pay for one hash comparison.
	if h, err := hasher.Hash("unused-login-placeholder"); err == nil {
		s.dummyHash = h
	}
	return s
}

// Login checks the service number and password, replaces any live session of
// the holder and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, serviceNumber, password string) (*domain.Credential, *domain.Personnel, error) {
	serviceNumber = strings.TrimSpace(serviceNumber)
	if serviceNumber == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	p, err := s.personnel.FindByServiceNumber(ctx, serviceNumber)
	if err != nil {
		if errors.Is(err, domain.ErrPersonnelNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !p.HasPassword() {
		s.hasher.Verify(password, s.dummyHash)
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, p.PasswordHash) {
		return nil, nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:          s.ids.NewSessionID(),
		PersonnelID: p.ID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.sessions.Replace(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("login: store session: %w", err)
	}

	cred, err := s.issuePair(p.ID, session.ID, p.Role)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info().Int64("personnel_id", p.ID).Str("session_id", session.ID).Msg("login")
	return cred, p, nil
}

// Refresh exchanges a refresh token of the live session for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	claims, id, err := s.tokens.parse(refreshToken, kindRefresh, s.tokens.secret)
	if err != nil {
		return nil, err
	}
	if err := s.requireLive(ctx, id, claims.SessionID); err != nil {
		return nil, err
	}
	return s.issuePair(id, claims.SessionID, claims.Role)
}

// Logout revokes the caller's session if it is still the live one.
func (s *AuthService) Logout(ctx context.Context, principal domain.Principal) error {
	if err := s.sessions.Revoke(ctx, principal.PersonnelID, principal.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Int64("personnel_id", principal.PersonnelID).Str("session_id", principal.SessionID).Msg("logout")
	return nil
}

// Authenticate resolves an access token into a principal.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error) {
	claims, id, err := s.tokens.parse(accessToken, kindAccess, s.tokens.secret)
	if err != nil {
		return nil, err
	}
	if err := s.requireLive(ctx, id, claims.SessionID); err != nil {
		return nil, err
	}
	return &domain.Principal{PersonnelID: id, SessionID: claims.SessionID, Role: claims.Role}, nil
}

// ChangePassword requires the current password. The live session is kept.
func (s *AuthService) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	p, err := s.personnel.FindByID(ctx, in.PersonnelID)
	if err != nil {
		return err
	}
	if !p.HasPassword() || !s.hasher.Verify(in.OldPassword, p.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if err := domain.ValidateNewPassword(in.NewPassword, in.ConfirmPassword); err != nil {
		return err
	}
	return s.storePassword(ctx, p.ID, in.NewPassword)
}

// RequestPasswordReset mails a single-use reset link to the holder of email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrInvalidInput
	}

	p, err := s.personnel.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, _, err := s.tokens.sign(kindReset, p.ID, "", "", s.cfg.ResetTokenTTL, s.resetKey(p))
	if err != nil {
		return err
	}
	link := ResetLink(s.cfg.FrontendURL, p.ID, token)

	s.dispatcher.Dispatch(ports.Notification{
		PersonnelID: p.ID,
		Channel:     domain.ChannelEmail,
		Address:     p.Email,
		Subject:     "Password reset",
		Body:        fmt.Sprintf("Use the link below to reset your password:\n\n%s\n\nThe link expires in %s.", link, s.cfg.ResetTokenTTL),
	})

	s.log.Info().Int64("personnel_id", p.ID).Msg("password reset requested")
	return nil
}

// ResetPassword applies a new password from a reset link and ends the live session.
func (s *AuthService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	if err := domain.ValidateNewPassword(in.NewPassword, in.ConfirmPassword); err != nil {
		return err
	}

	id, err := strconv.ParseInt(in.UID, 36, 64)
	if err != nil {
		return domain.ErrInvalidResetToken
	}
	p, err := s.personnel.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPersonnelNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}

	_, subject, err := s.tokens.parse(in.Token, kindReset, s.resetKey(p))
	if err != nil || subject != p.ID {
		return domain.ErrInvalidResetToken
	}

	if err := s.storePassword(ctx, p.ID, in.NewPassword); err != nil {
		return err
	}

	current, err := s.sessions.Current(ctx, p.ID)
	if err != nil {
		s.log.Warn().Err(err).Int64("personnel_id", p.ID).Msg("failed to load session after password reset")
		return nil
	}
	if current != "" {
		if err := s.sessions.Revoke(ctx, p.ID, current); err != nil {
			s.log.Warn().Err(err).Int64("personnel_id", p.ID).Msg("failed to revoke session after password reset")
		}
	}

	s.log.Info().Int64("personnel_id", p.ID).Msg("password reset")
	return nil
}

// ResetLink builds FRONTEND_URL/reset-password/<uid>/<token>/ with uid the
// base-36 personnel id.
func ResetLink(frontendURL string, personnelID int64, token string) string {
	return fmt.Sprintf("%s/reset-password/%s/%s/",
		strings.TrimRight(frontendURL, "/"), strconv.FormatInt(personnelID, 36), token)
}

func (s *AuthService) issuePair(personnelID int64, sessionID, role string) (*domain.Credential, error) {
	access, expiresAt, err := s.tokens.sign(kindAccess, personnelID, sessionID, role, s.cfg.AccessTokenTTL, s.tokens.secret)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.sign(kindRefresh, personnelID, sessionID, role, s.cfg.RefreshTokenTTL, s.tokens.secret)
	if err != nil {
		return nil, err
	}
	return &domain.Credential{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) requireLive(ctx context.Context, personnelID int64, sessionID string) error {
	current, err := s.sessions.Current(ctx, personnelID)
	if err != nil {
		return fmt.Errorf("session lookup: %w", err)
	}
	if current == "" || current != sessionID {
		return domain.ErrSessionRevoked
	}
	return nil
}

func (s *AuthService) storePassword(ctx context.Context, personnelID int64, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.personnel.SetPassword(ctx, personnelID, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}

func (s *AuthService) resetKey(p *domain.Personnel) []byte {
	return []byte(s.cfg.JWTSecret + ":" + p.PasswordHash)
}
