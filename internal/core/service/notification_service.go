package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// DeliveryDedup suppresses a notification that was already delivered recently.
type DeliveryDedup interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// NotificationService delivers one queued notification over its channel.
// The dispatcher workers call it; nothing waits on the outcome.
type NotificationService struct {
	notifier ports.Notifier
	dedup    DeliveryDedup
	log      zerolog.Logger
}

func NewNotificationService(notifier ports.Notifier, dedup DeliveryDedup, log zerolog.Logger) *NotificationService {
	return &NotificationService{notifier: notifier, dedup: dedup, log: log}
}

// Deliver sends n once. A failing dedup store never blocks delivery.
func (s *NotificationService) Deliver(ctx context.Context, n ports.Notification) error {
	if n.Address == "" {
		return fmt.Errorf("deliver %s: %w", n.Channel, domain.ErrInvalidInput)
	}

	key := DeliveryKey(n)
	if s.dedup != nil {
		dup, err := s.dedup.IsDuplicate(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Int64("personnel_id", n.PersonnelID).Msg("delivery dedup check failed, sending anyway")
		} else if dup {
			s.log.Debug().Int64("personnel_id", n.PersonnelID).Str("channel", string(n.Channel)).Msg("duplicate notification skipped")
			return nil
		}
	}

	var err error
	switch n.Channel {
	case domain.ChannelSMS:
		err = s.notifier.SendSMS(ctx, n.Address, n.Body)
	case domain.ChannelEmail:
		err = s.notifier.SendEmail(ctx, n.Address, n.Subject, n.Body)
	default:
		return fmt.Errorf("deliver: unknown channel %q: %w", n.Channel, domain.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("deliver %s: %w", n.Channel, err)
	}

	if s.dedup != nil {
		if err := s.dedup.Mark(ctx, key); err != nil {
			s.log.Warn().Err(err).Int64("personnel_id", n.PersonnelID).Msg("failed to set delivery dedup key")
		}
	}

	s.log.Info().Int64("personnel_id", n.PersonnelID).Str("channel", string(n.Channel)).Msg("notification delivered")
	return nil
}

// DeliveryKey identifies a notification by channel, address and content.
func DeliveryKey(n ports.Notification) string {
	sum := sha256.Sum256([]byte(string(n.Channel) + "\x00" + n.Address + "\x00" + n.Subject + "\x00" + n.Body))
	return hex.EncodeToString(sum[:16])
}
