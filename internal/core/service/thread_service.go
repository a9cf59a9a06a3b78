package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// ThreadService implements threads. Only current participants may read,
// post to or change a thread.
type ThreadService struct {
	threads   ports.ThreadRepository
	messages  ports.MessageRepository
	personnel ports.PersonnelRepository
	composer  *composer
	log       zerolog.Logger
}

func NewThreadService(
	threads ports.ThreadRepository,
	messages ports.MessageRepository,
	personnel ports.PersonnelRepository,
	blobs ports.BlobStore,
	ids ports.IDGenerator,
	policy MediaPolicy,
	log zerolog.Logger,
) *ThreadService {
	return &ThreadService{
		threads:   threads,
		messages:  messages,
		personnel: personnel,
		composer:  &composer{blobs: blobs, ids: ids, policy: policy.withDefaults(), now: time.Now},
		log:       log,
	}
}

// Create opens a thread with the given participants plus the creator. Unknown
// ids are dropped; the creator and at least one other member must remain.
func (s *ThreadService) Create(ctx context.Context, in ports.CreateThreadInput) (*domain.Thread, error) {
	name := strings.TrimSpace(in.Name)
	if in.Group && name == "" {
		return nil, domain.ErrThreadNameRequired
	}

	requested := domain.UniqueParticipants(in.ParticipantIDs)
	found, err := s.personnel.FindByIDs(ctx, requested)
	if err != nil {
		return nil, fmt.Errorf("resolve participants: %w", err)
	}
	if len(found) == 0 {
		return nil, domain.ErrInsufficientParticipants
	}

	ids := make([]int64, 0, len(found)+1)
	ids = append(ids, in.CreatorID)
	for _, p := range found {
		ids = append(ids, p.ID)
	}
	members := domain.UniqueParticipants(ids)
	if len(members) < 2 {
		return nil, domain.ErrInsufficientParticipants
	}

	t := &domain.Thread{
		ID:           s.composer.ids.NextID(),
		Name:         name,
		Participants: members,
		CreatedBy:    in.CreatorID,
		CreatedAt:    s.composer.now().UTC(),
	}
	if err := s.threads.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	s.log.Info().Int64("thread_id", t.ID).Int("participants", len(t.Participants)).Msg("thread created")
	return t, nil
}

func (s *ThreadService) ListMine(ctx context.Context, userID int64) ([]*domain.Thread, error) {
	return s.threads.ListForParticipant(ctx, userID)
}

// AddParticipant lets a current participant add another person.
func (s *ThreadService) AddParticipant(ctx context.Context, threadID, byUserID, targetUserID int64) (*domain.Thread, error) {
	t, err := s.participantThread(ctx, threadID, byUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.personnel.FindByID(ctx, targetUserID); err != nil {
		return nil, err
	}
	if t.HasParticipant(targetUserID) {
		return t, nil
	}

	ok, err := s.threads.AddParticipant(ctx, threadID, byUserID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}
	if !ok {
		return nil, domain.ErrNotAuthorized
	}

	s.log.Info().Int64("thread_id", threadID).Int64("by", byUserID).Int64("added", targetUserID).Msg("participant added")
	return s.threads.FindByID(ctx, threadID)
}

// RemoveParticipant lets a current participant remove a member, themselves
// included, as long as someone remains.
func (s *ThreadService) RemoveParticipant(ctx context.Context, threadID, byUserID, targetUserID int64) (*domain.Thread, error) {
	t, err := s.participantThread(ctx, threadID, byUserID)
	if err != nil {
		return nil, err
	}
	if !t.HasParticipant(targetUserID) {
		return t, nil
	}
	if len(t.Participants) <= 1 {
		return nil, domain.ErrInsufficientParticipants
	}

	ok, err := s.threads.RemoveParticipant(ctx, threadID, byUserID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("remove participant: %w", err)
	}
	if !ok {
		// Lost a race with another membership change; report what changed.
		current, err := s.threads.FindByID(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if !current.HasParticipant(byUserID) {
			return nil, domain.ErrNotAuthorized
		}
		if !current.HasParticipant(targetUserID) {
			return current, nil
		}
		return nil, domain.ErrInsufficientParticipants
	}

	s.log.Info().Int64("thread_id", threadID).Int64("by", byUserID).Int64("removed", targetUserID).Msg("participant removed")
	return s.threads.FindByID(ctx, threadID)
}

// Messages returns the thread's messages newest first.
func (s *ThreadService) Messages(ctx context.Context, threadID, byUserID int64) ([]*domain.Message, error) {
	if _, err := s.participantThread(ctx, threadID, byUserID); err != nil {
		return nil, err
	}
	return s.messages.ListByThread(ctx, threadID)
}

// Send posts a message to a thread the sender participates in.
func (s *ThreadService) Send(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	if _, err := s.participantThread(ctx, in.ThreadID, in.SenderID); err != nil {
		return nil, err
	}
	in.RecipientID = 0

	m, err := s.composer.compose(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("send thread message: %w", err)
	}

	s.log.Info().Int64("message_id", m.ID).Int64("thread_id", m.ThreadID).Msg("thread message sent")
	return m, nil
}

func (s *ThreadService) participantThread(ctx context.Context, threadID, userID int64) (*domain.Thread, error) {
	t, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(t, userID); err != nil {
		return nil, err
	}
	return t, nil
}
