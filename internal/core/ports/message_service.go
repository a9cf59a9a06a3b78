package ports

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// MediaUpload is an attachment received from a client.
type MediaUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// SendMessageInput carries a new direct or thread message.
type SendMessageInput struct {
	SenderID    int64
	RecipientID int64
	ThreadID    int64
	Content     string
	LinkURL     string
	Media       *MediaUpload
}

// MessageService implements direct messaging with its access rules.
type MessageService interface {
	Send(ctx context.Context, input SendMessageInput) (*domain.Message, error)
	Inbox(ctx context.Context, userID int64) ([]*domain.Message, error)
	MarkRead(ctx context.Context, messageID, byUserID int64) error
	Delete(ctx context.Context, messageID, byUserID int64) error
	Forward(ctx context.Context, originalID, byUserID, newRecipientID int64) (*domain.Message, error)
	React(ctx context.Context, messageID, userID int64, reactionType string) (*domain.Reaction, error)
	Reactions(ctx context.Context, messageID, byUserID int64) ([]*domain.Reaction, error)
	Star(ctx context.Context, messageID, userID int64) error
	Unstar(ctx context.Context, messageID, userID int64) error
	Shared(ctx context.Context, userID, contactID int64, kind domain.SharedKind) ([]*domain.Message, error)
}

// CreateThreadInput carries a new thread. Group threads require a name.
type CreateThreadInput struct {
	CreatorID      int64
	ParticipantIDs []int64
	Name           string
	Group          bool
}

// ThreadService implements threads and their participant rules.
type ThreadService interface {
	Create(ctx context.Context, input CreateThreadInput) (*domain.Thread, error)
	ListMine(ctx context.Context, userID int64) ([]*domain.Thread, error)
	AddParticipant(ctx context.Context, threadID, byUserID, targetUserID int64) (*domain.Thread, error)
	RemoveParticipant(ctx context.Context, threadID, byUserID, targetUserID int64) (*domain.Thread, error)
	Messages(ctx context.Context, threadID, byUserID int64) ([]*domain.Message, error)
	Send(ctx context.Context, input SendMessageInput) (*domain.Message, error)
}
