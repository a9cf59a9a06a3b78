package service

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

const DefaultMediaMaxBytes int64 = 10 << 20

// DefaultMediaTypes is the upload allow-list used when none is configured.
var DefaultMediaTypes = []string{
	"image/jpeg", "image/png", "image/gif", "image/webp",
	"video/mp4", "video/quicktime", "video/webm",
	"audio/mpeg", "audio/ogg", "audio/wav", "audio/webm",
	"application/pdf", "text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// MediaPolicy bounds what may be attached to a message.
type MediaPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
}

func (p MediaPolicy) withDefaults() MediaPolicy {
	if p.MaxBytes <= 0 {
		p.MaxBytes = DefaultMediaMaxBytes
	}
	if len(p.AllowedTypes) == 0 {
		p.AllowedTypes = DefaultMediaTypes
	}
	return p
}

// check validates an upload before anything is stored and returns its
// normalized MIME type.
func (p MediaPolicy) check(u *ports.MediaUpload) (string, error) {
	ct, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil {
		return "", domain.ErrUnsupportedMedia
	}
	if !slices.Contains(p.AllowedTypes, ct) {
		return "", domain.ErrUnsupportedMedia
	}
	size := max(u.Size, int64(len(u.Data)))
	if size > p.MaxBytes {
		return "", domain.ErrMediaTooLarge
	}
	return ct, nil
}

// composer turns a send request into a Message, storing any attachment first.
// Validation failures leave nothing behind.
type composer struct {
	blobs  ports.BlobStore
	ids    ports.IDGenerator
	policy MediaPolicy
	now    func() time.Time
}

func (c *composer) compose(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	content := strings.TrimSpace(in.Content)
	link := strings.TrimSpace(in.LinkURL)
	if content == "" && link == "" && in.Media == nil {
		return nil, domain.ErrEmptyMessage
	}
	if link != "" && in.Media != nil {
		return nil, domain.ErrInvalidInput
	}

	m := &domain.Message{
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		ThreadID:    in.ThreadID,
		Content:     content,
	}

	switch {
	case in.Media != nil:
		ct, err := c.policy.check(in.Media)
		if err != nil {
			return nil, err
		}
		mediaURL, err := c.blobs.Save(ctx, in.Media.FileName, ct, in.Media.Data)
		if err != nil {
			return nil, fmt.Errorf("store media: %w", err)
		}
		m.MediaType = domain.ClassifyContentType(ct)
		m.MediaURL = mediaURL
	case link != "":
		if !validLink(link) {
			return nil, domain.ErrInvalidInput
		}
		m.MediaType = domain.MediaLink
		m.MediaURL = link
	default:
		m.MediaType = domain.MediaText
	}

	m.ID = c.ids.NextID()
	m.Timestamp = c.now().UTC()
	return m, nil
}

func validLink(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
