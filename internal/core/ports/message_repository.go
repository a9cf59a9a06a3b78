package ports

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// MessageRepository persists messages. List methods return newest first.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	FindByID(ctx context.Context, id int64) (*domain.Message, error)
	Delete(ctx context.Context, id int64) error
	MarkRead(ctx context.Context, id int64) error
	ListForRecipient(ctx context.Context, recipientID int64) ([]*domain.Message, error)
	ListByThread(ctx context.Context, threadID int64) ([]*domain.Message, error)
	// ListShared returns direct messages exchanged in either direction between
	// userID and contactID whose media type is one of types.
	ListShared(ctx context.Context, userID, contactID int64, types []domain.MediaType) ([]*domain.Message, error)
	// AddStar and RemoveStar are idempotent set operations on starred_by.
	AddStar(ctx context.Context, id, userID int64) error
	RemoveStar(ctx context.Context, id, userID int64) error
}

// ReactionRepository keeps at most one reaction per (message, user).
type ReactionRepository interface {
	// Upsert replaces the caller's existing reaction on the message or inserts a new one.
	Upsert(ctx context.Context, r *domain.Reaction) (*domain.Reaction, error)
	ListByMessage(ctx context.Context, messageID int64) ([]*domain.Reaction, error)
	DeleteByMessage(ctx context.Context, messageID int64) error
}
