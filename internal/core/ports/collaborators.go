package ports

import (
	"context"
	"io"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// Notifier delivers a message over one transport.
type Notifier interface {
	SendEmail(ctx context.Context, address, subject, body string) error
	SendSMS(ctx context.Context, number, body string) error
}

// Notification is a single outbound message queued for delivery.
type Notification struct {
	PersonnelID int64
	Channel     domain.ContactChannel
	Address     string
	Subject     string
	Body        string
}

// NotificationDispatcher hands notifications to background delivery.
// Delivery is best effort: failures are logged and never reported back.
type NotificationDispatcher interface {
	Dispatch(n Notification)
}

// PasswordHasher is the secure one-way hashing primitive.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BlobInfo describes a stored media object.
type BlobInfo struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
}

// BlobStore keeps media attachments and returns a URL that serves them.
type BlobStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *BlobInfo, error)
}

// IDGenerator produces entity and session identifiers.
type IDGenerator interface {
	NextID() int64
	NewSessionID() string
}
