package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubNotifier struct {
	err    error
	emails []string
	sms    []string
}

func (n *stubNotifier) SendEmail(_ context.Context, address, _, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.emails = append(n.emails, address)
	return nil
}

func (n *stubNotifier) SendSMS(_ context.Context, number, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.sms = append(n.sms, number)
	return nil
}

type stubDedup struct {
	dupResult bool
	dupErr    error
	markErr   error
	marked    []string
}

func (d *stubDedup) IsDuplicate(_ context.Context, _ string) (bool, error) {
	return d.dupResult, d.dupErr
}

func (d *stubDedup) Mark(_ context.Context, key string) error {
	if d.markErr != nil {
		return d.markErr
	}
	d.marked = append(d.marked, key)
	return nil
}

var smsNotice = ports.Notification{PersonnelID: 1, Channel: domain.ChannelSMS, Address: "08012345678", Body: "Your verification code is 123456."}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNotificationService_Deliver_RoutesByChannel(t *testing.T) {
	notifier := &stubNotifier{}
	dedup := &stubDedup{}
	svc := NewNotificationService(notifier, dedup, zerolog.Nop())

	if err := svc.Deliver(context.Background(), smsNotice); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	email := ports.Notification{PersonnelID: 1, Channel: domain.ChannelEmail, Address: "p1@example.org", Subject: "s", Body: "b"}
	if err := svc.Deliver(context.Background(), email); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(notifier.sms) != 1 || len(notifier.emails) != 1 {
		t.Errorf("expected one sms and one email, got sms=%v email=%v", notifier.sms, notifier.emails)
	}
	if len(dedup.marked) != 2 {
		t.Errorf("expected both deliveries marked, got %v", dedup.marked)
	}
}

func TestNotificationService_Deliver_DuplicateSkipped(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewNotificationService(notifier, &stubDedup{dupResult: true}, zerolog.Nop())

	if err := svc.Deliver(context.Background(), smsNotice); err != nil {
		t.Fatalf("expected no error for duplicate, got: %v", err)
	}
	if len(notifier.sms) != 0 {
		t.Errorf("expected no send for duplicate notification")
	}
}

func TestNotificationService_Deliver_DedupErrorSendsAnyway(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewNotificationService(notifier, &stubDedup{dupErr: errors.New("redis down")}, zerolog.Nop())

	if err := svc.Deliver(context.Background(), smsNotice); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.sms) != 1 {
		t.Errorf("expected delivery despite dedup failure")
	}
}

func TestNotificationService_Deliver_TransportError(t *testing.T) {
	dedup := &stubDedup{}
	svc := NewNotificationService(&stubNotifier{err: errors.New("gateway 502")}, dedup, zerolog.Nop())

	if err := svc.Deliver(context.Background(), smsNotice); err == nil {
		t.Fatal("expected transport error")
	}
	if len(dedup.marked) != 0 {
		t.Errorf("failed deliveries must not be marked")
	}
}

func TestNotificationService_Deliver_Invalid(t *testing.T) {
	svc := NewNotificationService(&stubNotifier{}, nil, zerolog.Nop())

	if err := svc.Deliver(context.Background(), ports.Notification{Channel: domain.ChannelEmail}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("missing address: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Deliver(context.Background(), ports.Notification{Channel: "pigeon", Address: "x"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown channel: expected ErrInvalidInput, got %v", err)
	}
}

func TestDeliveryKey_StableAndDistinct(t *testing.T) {
	a := DeliveryKey(smsNotice)
	if a != DeliveryKey(smsNotice) {
		t.Fatal("key must be deterministic")
	}
	other := smsNotice
	other.Body = "Your verification code is 654321."
	if a == DeliveryKey(other) {
		t.Fatal("different bodies must give different keys")
	}
}
