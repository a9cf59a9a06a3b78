package domain

import (
	"slices"
	"strings"
	"time"
)

// MediaType classifies the attachment carried by a message.
type MediaType string

const (
	MediaText     MediaType = "text"
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaFile     MediaType = "file"
	MediaLink     MediaType = "link"
	MediaDocument MediaType = "document"
)

// ClassifyContentType maps a declared MIME type onto a MediaType by prefix.
func ClassifyContentType(contentType string) MediaType {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaImage
	case strings.HasPrefix(ct, "video/"):
		return MediaVideo
	case strings.HasPrefix(ct, "audio/"):
		return MediaAudio
	default:
		return MediaFile
	}
}

// Message is a direct message (RecipientID set) or a thread message (ThreadID set).
// SenderID and Timestamp never change after creation.
type Message struct {
	ID          int64     `json:"id,string" bson:"_id"`
	SenderID    int64     `json:"sender_id,string" bson:"sender_id"`
	RecipientID int64     `json:"recipient_id,string,omitempty" bson:"recipient_id,omitempty"`
	ThreadID    int64     `json:"thread_id,string,omitempty" bson:"thread_id,omitempty"`
	Content     string    `json:"content,omitempty" bson:"content,omitempty"`
	MediaType   MediaType `json:"media_type,omitempty" bson:"media_type,omitempty"`
	MediaURL    string    `json:"media_url,omitempty" bson:"media_url,omitempty"`
	IsRead      bool      `json:"is_read" bson:"is_read"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	StarredBy   []int64   `json:"-" bson:"starred_by"`
}

// HasBody reports whether the message carries text or an attachment.
func (m *Message) HasBody() bool {
	return strings.TrimSpace(m.Content) != "" || (m.MediaType != "" && m.MediaURL != "")
}

// IsStarredBy reports whether userID has starred the message.
func (m *Message) IsStarredBy(userID int64) bool {
	return slices.Contains(m.StarredBy, userID)
}

// Reaction is the single reaction a user holds on a message.
type Reaction struct {
	ID           int64     `json:"id,string" bson:"_id"`
	MessageID    int64     `json:"message_id,string" bson:"message_id"`
	UserID       int64     `json:"user_id,string" bson:"user_id"`
	ReactionType string    `json:"reaction_type" bson:"reaction_type"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

// SharedKind selects which attachments are listed between two contacts.
type SharedKind string

const (
	SharedMedia SharedKind = "media"
	SharedLinks SharedKind = "links"
	SharedDocs  SharedKind = "docs"
)

// MediaTypes returns the media types that belong to the kind.
func (k SharedKind) MediaTypes() []MediaType {
	switch k {
	case SharedLinks:
		return []MediaType{MediaLink}
	case SharedDocs:
		return []MediaType{MediaDocument, MediaFile}
	default:
		return []MediaType{MediaImage, MediaVideo, MediaAudio}
	}
}
