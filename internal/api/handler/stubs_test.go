package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/api/middleware"
	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asUser(c echo.Context, id int64) echo.Context {
	c.Set(middleware.KeyPrincipal, &domain.Principal{PersonnelID: id, SessionID: "s-test", Role: domain.RolePersonnel})
	return c
}

type stubVerificationService struct {
	checkFn  func(ctx context.Context, serviceNumber string) error
	factorFn func(ctx context.Context, serviceNumber string, f ports.FactorInput) error
	otpFn    func(ctx context.Context, serviceNumber, code string) (string, error)
	setFn    func(ctx context.Context, in ports.SetPasswordInput) error
}

func (s *stubVerificationService) CheckServiceNumber(ctx context.Context, serviceNumber string) error {
	return s.checkFn(ctx, serviceNumber)
}

func (s *stubVerificationService) ConfirmFactor(ctx context.Context, serviceNumber string, f ports.FactorInput) error {
	return s.factorFn(ctx, serviceNumber, f)
}

func (s *stubVerificationService) VerifyOTP(ctx context.Context, serviceNumber, code string) (string, error) {
	return s.otpFn(ctx, serviceNumber, code)
}

func (s *stubVerificationService) SetPassword(ctx context.Context, in ports.SetPasswordInput) error {
	return s.setFn(ctx, in)
}

type stubAuthService struct {
	loginFn   func(ctx context.Context, serviceNumber, password string) (*domain.Credential, *domain.Personnel, error)
	refreshFn func(ctx context.Context, token string) (*domain.Credential, error)
	logoutFn  func(ctx context.Context, p domain.Principal) error
	changeFn  func(ctx context.Context, in ports.ChangePasswordInput) error
	requestFn func(ctx context.Context, email string) error
	resetFn   func(ctx context.Context, in ports.ResetPasswordInput) error
}

func (s *stubAuthService) Login(ctx context.Context, serviceNumber, password string) (*domain.Credential, *domain.Personnel, error) {
	return s.loginFn(ctx, serviceNumber, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*domain.Credential, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, p domain.Principal) error {
	return s.logoutFn(ctx, p)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrInvalidToken
}

func (s *stubAuthService) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) error {
	return s.changeFn(ctx, in)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	return s.resetFn(ctx, in)
}

type stubPersonnelService struct {
	registerFn func(ctx context.Context, in ports.RegisterPersonnelInput) (*domain.Personnel, error)
	getFn      func(ctx context.Context, id int64) (*domain.Personnel, error)
	updateFn   func(ctx context.Context, id int64, upd ports.ProfileUpdate) (*domain.Personnel, error)
}

func (s *stubPersonnelService) Register(ctx context.Context, in ports.RegisterPersonnelInput) (*domain.Personnel, error) {
	return s.registerFn(ctx, in)
}

func (s *stubPersonnelService) Get(ctx context.Context, id int64) (*domain.Personnel, error) {
	return s.getFn(ctx, id)
}

func (s *stubPersonnelService) UpdateProfile(ctx context.Context, id int64, upd ports.ProfileUpdate) (*domain.Personnel, error) {
	return s.updateFn(ctx, id, upd)
}

// stubMessageService records the last send and answers every id-based
// operation through opErr.
type stubMessageService struct {
	lastSend ports.SendMessageInput
	sendErr  error
	opErr    error
	shared   domain.SharedKind
}

func (s *stubMessageService) Send(_ context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	s.lastSend = in
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	mt := domain.MediaText
	if in.Media != nil {
		mt = domain.ClassifyContentType(in.Media.ContentType)
	}
	return &domain.Message{ID: 500, SenderID: in.SenderID, RecipientID: in.RecipientID, Content: in.Content, MediaType: mt}, nil
}

func (s *stubMessageService) Inbox(context.Context, int64) ([]*domain.Message, error) {
	return []*domain.Message{}, nil
}

func (s *stubMessageService) MarkRead(context.Context, int64, int64) error { return s.opErr }

func (s *stubMessageService) Delete(context.Context, int64, int64) error { return s.opErr }

func (s *stubMessageService) Forward(_ context.Context, originalID, byUserID, to int64) (*domain.Message, error) {
	if s.opErr != nil {
		return nil, s.opErr
	}
	return &domain.Message{ID: originalID + 1, SenderID: byUserID, RecipientID: to, MediaType: domain.MediaText}, nil
}

func (s *stubMessageService) React(_ context.Context, messageID, userID int64, reactionType string) (*domain.Reaction, error) {
	if s.opErr != nil {
		return nil, s.opErr
	}
	return &domain.Reaction{ID: 1, MessageID: messageID, UserID: userID, ReactionType: reactionType}, nil
}

func (s *stubMessageService) Reactions(context.Context, int64, int64) ([]*domain.Reaction, error) {
	return nil, s.opErr
}

func (s *stubMessageService) Star(context.Context, int64, int64) error { return s.opErr }

func (s *stubMessageService) Unstar(context.Context, int64, int64) error { return s.opErr }

func (s *stubMessageService) Shared(_ context.Context, _, _ int64, kind domain.SharedKind) ([]*domain.Message, error) {
	s.shared = kind
	return []*domain.Message{}, nil
}

type stubThreadService struct {
	lastCreate ports.CreateThreadInput
	err        error
}

func (s *stubThreadService) Create(_ context.Context, in ports.CreateThreadInput) (*domain.Thread, error) {
	s.lastCreate = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Thread{ID: 9, Name: in.Name, Participants: append([]int64{in.CreatorID}, in.ParticipantIDs...), CreatedBy: in.CreatorID}, nil
}

func (s *stubThreadService) ListMine(context.Context, int64) ([]*domain.Thread, error) {
	return []*domain.Thread{}, s.err
}

func (s *stubThreadService) AddParticipant(_ context.Context, threadID, by, target int64) (*domain.Thread, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Thread{ID: threadID, Participants: []int64{by, target}}, nil
}

func (s *stubThreadService) RemoveParticipant(_ context.Context, threadID, by, _ int64) (*domain.Thread, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Thread{ID: threadID, Participants: []int64{by}}, nil
}

func (s *stubThreadService) Messages(context.Context, int64, int64) ([]*domain.Message, error) {
	return []*domain.Message{}, s.err
}

func (s *stubThreadService) Send(_ context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Message{ID: 77, SenderID: in.SenderID, ThreadID: in.ThreadID, Content: in.Content, MediaType: domain.MediaText}, nil
}

type stubBlobStore struct {
	blobs map[string]string
	infos map[string]*ports.BlobInfo
}

func (s *stubBlobStore) Save(context.Context, string, string, []byte) (string, error) {
	return "", nil
}

func (s *stubBlobStore) Open(_ context.Context, id string) (io.ReadCloser, *ports.BlobInfo, error) {
	data, ok := s.blobs[id]
	if !ok {
		return nil, nil, domain.ErrMediaNotFound
	}
	return io.NopCloser(strings.NewReader(data)), s.infos[id], nil
}
