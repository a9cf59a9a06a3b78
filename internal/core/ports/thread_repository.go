package ports

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// ThreadRepository persists threads and their participant sets.
type ThreadRepository interface {
	Create(ctx context.Context, t *domain.Thread) error
	FindByID(ctx context.Context, id int64) (*domain.Thread, error)
	ListForParticipant(ctx context.Context, userID int64) ([]*domain.Thread, error)
	// AddParticipant adds targetID only while actorID is still a participant.
	// It reports false when the membership condition no longer held.
	AddParticipant(ctx context.Context, threadID, actorID, targetID int64) (bool, error)
	// RemoveParticipant removes targetID only while actorID is a participant
	// and the thread would keep at least one member.
	RemoveParticipant(ctx context.Context, threadID, actorID, targetID int64) (bool, error)
}
