package service

import (
	"context"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// Ownership checks shared by the messaging services. Identity comes only from
// the authenticated principal, never from request bodies.

func requireSender(m *domain.Message, userID int64) error {
	if m.SenderID != userID {
		return domain.ErrNotAuthorized
	}
	return nil
}

func requireRecipient(m *domain.Message, userID int64) error {
	if m.ThreadID != 0 || m.RecipientID != userID {
		return domain.ErrNotAuthorized
	}
	return nil
}

func requireParticipant(t *domain.Thread, userID int64) error {
	if !t.HasParticipant(userID) {
		return domain.ErrNotAuthorized
	}
	return nil
}

// accessGuard answers whether a user may see a message.
type accessGuard struct {
	threads ports.ThreadRepository
}

// requireViewer admits the two ends of a direct message and the current
// participants of a thread message.
func (g accessGuard) requireViewer(ctx context.Context, m *domain.Message, userID int64) error {
	if m.ThreadID == 0 {
		if m.SenderID == userID || m.RecipientID == userID {
			return nil
		}
		return domain.ErrNotAuthorized
	}
	t, err := g.threads.FindByID(ctx, m.ThreadID)
	if err != nil {
		return err
	}
	return requireParticipant(t, userID)
}
