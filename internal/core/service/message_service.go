package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

const maxReactionLength = 20

// MessageService implements direct messages, reactions, stars and forwarding.
type MessageService struct {
	messages  ports.MessageRepository
	reactions ports.ReactionRepository
	personnel ports.PersonnelRepository
	guard     accessGuard
	composer  *composer
	log       zerolog.Logger
}

func NewMessageService(
	messages ports.MessageRepository,
	reactions ports.ReactionRepository,
	personnel ports.PersonnelRepository,
	threads ports.ThreadRepository,
	blobs ports.BlobStore,
	ids ports.IDGenerator,
	policy MediaPolicy,
	log zerolog.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		reactions: reactions,
		personnel: personnel,
		guard:     accessGuard{threads: threads},
		composer:  &composer{blobs: blobs, ids: ids, policy: policy.withDefaults(), now: time.Now},
		log:       log,
	}
}

// Send delivers a direct message. Thread messages go through ThreadService.
func (s *MessageService) Send(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	if in.ThreadID != 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := s.requireRecipientExists(ctx, in.RecipientID); err != nil {
		return nil, err
	}

	m, err := s.composer.compose(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.log.Info().
		Int64("message_id", m.ID).
		Int64("sender_id", m.SenderID).
		Int64("recipient_id", m.RecipientID).
		Str("media_type", string(m.MediaType)).
		Msg("message sent")
	return m, nil
}

// Inbox returns messages addressed to userID, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID int64) ([]*domain.Message, error) {
	return s.messages.ListForRecipient(ctx, userID)
}

// MarkRead is allowed only for the recipient. Marking twice is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, messageID, byUserID int64) error {
	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := requireRecipient(m, byUserID); err != nil {
		return err
	}
	if m.IsRead {
		return nil
	}
	return s.messages.MarkRead(ctx, messageID)
}

// Delete is allowed only for the sender and drops the message's reactions too.
func (s *MessageService) Delete(ctx context.Context, messageID, byUserID int64) error {
	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := requireSender(m, byUserID); err != nil {
		return err
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return err
	}
	if err := s.reactions.DeleteByMessage(ctx, messageID); err != nil {
		s.log.Warn().Err(err).Int64("message_id", messageID).Msg("failed to delete reactions of deleted message")
	}
	s.log.Info().Int64("message_id", messageID).Int64("by", byUserID).Msg("message deleted")
	return nil
}

// Forward sends a copy of a visible message to another recipient. The copy
// gets its own id, sender and timestamp.
func (s *MessageService) Forward(ctx context.Context, originalID, byUserID, newRecipientID int64) (*domain.Message, error) {
	orig, err := s.messages.FindByID(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.requireViewer(ctx, orig, byUserID); err != nil {
		return nil, err
	}
	if err := s.requireRecipientExists(ctx, newRecipientID); err != nil {
		return nil, err
	}

	fwd := &domain.Message{
		ID:          s.composer.ids.NextID(),
		SenderID:    byUserID,
		RecipientID: newRecipientID,
		Content:     orig.Content,
		MediaType:   orig.MediaType,
		MediaURL:    orig.MediaURL,
		Timestamp:   s.composer.now().UTC(),
	}
	if err := s.messages.Create(ctx, fwd); err != nil {
		return nil, fmt.Errorf("forward message: %w", err)
	}

	s.log.Info().Int64("original_id", originalID).Int64("message_id", fwd.ID).Msg("message forwarded")
	return fwd, nil
}

// React sets the caller's single reaction on a message, replacing any earlier one.
func (s *MessageService) React(ctx context.Context, messageID, userID int64, reactionType string) (*domain.Reaction, error) {
	reactionType = strings.TrimSpace(reactionType)
	if reactionType == "" || utf8.RuneCountInString(reactionType) > maxReactionLength {
		return nil, domain.ErrInvalidInput
	}

	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.requireViewer(ctx, m, userID); err != nil {
		return nil, err
	}

	return s.reactions.Upsert(ctx, &domain.Reaction{
		ID:           s.composer.ids.NextID(),
		MessageID:    messageID,
		UserID:       userID,
		ReactionType: reactionType,
		Timestamp:    s.composer.now().UTC(),
	})
}

func (s *MessageService) Reactions(ctx context.Context, messageID, byUserID int64) ([]*domain.Reaction, error) {
	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.requireViewer(ctx, m, byUserID); err != nil {
		return nil, err
	}
	return s.reactions.ListByMessage(ctx, messageID)
}

func (s *MessageService) Star(ctx context.Context, messageID, userID int64) error {
	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.guard.requireViewer(ctx, m, userID); err != nil {
		return err
	}
	return s.messages.AddStar(ctx, messageID, userID)
}

func (s *MessageService) Unstar(ctx context.Context, messageID, userID int64) error {
	m, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.guard.requireViewer(ctx, m, userID); err != nil {
		return err
	}
	return s.messages.RemoveStar(ctx, messageID, userID)
}

// Shared lists attachments of one kind exchanged with a contact.
func (s *MessageService) Shared(ctx context.Context, userID, contactID int64, kind domain.SharedKind) ([]*domain.Message, error) {
	if contactID == 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.messages.ListShared(ctx, userID, contactID, kind.MediaTypes())
}

func (s *MessageService) requireRecipientExists(ctx context.Context, recipientID int64) error {
	if recipientID == 0 {
		return domain.ErrInvalidRecipient
	}
	if _, err := s.personnel.FindByID(ctx, recipientID); err != nil {
		if errors.Is(err, domain.ErrPersonnelNotFound) {
			return domain.ErrInvalidRecipient
		}
		return err
	}
	return nil
}
