package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

func newThreadFixture() (*ThreadService, *stubThreadRepo, *stubMessageRepo) {
	people := newStubPersonnelRepo(seedPersonnel(1, "SN/1"), seedPersonnel(2, "SN/2"), seedPersonnel(3, "SN/3"), seedPersonnel(4, "SN/4"))
	threads := newStubThreadRepo()
	messages := newStubMessageRepo()
	svc := NewThreadService(threads, messages, people, newStubBlobStore(), &stubIDs{}, MediaPolicy{}, zerolog.Nop())
	return svc, threads, messages
}

func TestThreadService_Create(t *testing.T) {
	svc, _, _ := newThreadFixture()
	ctx := context.Background()

	th, err := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{2, 3, 2, 99}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(th.Participants) != 3 || !th.HasParticipant(1) || th.HasParticipant(99) {
		t.Fatalf("unexpected participants: %v", th.Participants)
	}
}

func TestThreadService_Create_Validation(t *testing.T) {
	svc, _, _ := newThreadFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{98, 99}}); !errors.Is(err, domain.ErrInsufficientParticipants) {
		t.Fatalf("expected ErrInsufficientParticipants, got %v", err)
	}
	if _, err := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{1}}); !errors.Is(err, domain.ErrInsufficientParticipants) {
		t.Fatalf("creator only: expected ErrInsufficientParticipants, got %v", err)
	}
	if _, err := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{1, 99}}); !errors.Is(err, domain.ErrInsufficientParticipants) {
		t.Fatalf("creator plus unknown: expected ErrInsufficientParticipants, got %v", err)
	}
	if _, err := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{2}, Group: true}); !errors.Is(err, domain.ErrThreadNameRequired) {
		t.Fatalf("expected ErrThreadNameRequired, got %v", err)
	}
	th, err := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{2}, Group: true, Name: "Ops"})
	if err != nil || th.Name != "Ops" {
		t.Fatalf("named group: %v %+v", err, th)
	}
}

func TestThreadService_ParticipantRules(t *testing.T) {
	svc, _, _ := newThreadFixture()
	ctx := context.Background()
	th, _ := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{2}})

	if _, err := svc.AddParticipant(ctx, th.ID, 3, 4); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("outsider add: expected ErrNotAuthorized, got %v", err)
	}
	updated, err := svc.AddParticipant(ctx, th.ID, 2, 3)
	if err != nil || !updated.HasParticipant(3) {
		t.Fatalf("member add: %v %+v", err, updated)
	}

	if _, err := svc.RemoveParticipant(ctx, th.ID, 4, 3); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("outsider remove: expected ErrNotAuthorized, got %v", err)
	}
	updated, err = svc.RemoveParticipant(ctx, th.ID, 1, 3)
	if err != nil || updated.HasParticipant(3) {
		t.Fatalf("member remove: %v %+v", err, updated)
	}
}

func TestThreadService_CannotEmpty(t *testing.T) {
	svc, threads, _ := newThreadFixture()
	ctx := context.Background()
	th, _ := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{2}})

	if _, err := svc.RemoveParticipant(ctx, th.ID, 2, 2); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := svc.RemoveParticipant(ctx, th.ID, 1, 1); !errors.Is(err, domain.ErrInsufficientParticipants) {
		t.Fatalf("expected ErrInsufficientParticipants, got %v", err)
	}
	if got := threads.byID[th.ID].Participants; len(got) != 1 {
		t.Fatalf("last member must remain, got %v", got)
	}
}

func TestThreadService_MessagesParticipantOnly(t *testing.T) {
	svc, _, _ := newThreadFixture()
	ctx := context.Background()
	th, _ := svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{2}})

	if _, err := svc.Send(ctx, ports.SendMessageInput{SenderID: 3, ThreadID: th.ID, Content: "hi"}); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("outsider send: expected ErrNotAuthorized, got %v", err)
	}
	m, err := svc.Send(ctx, ports.SendMessageInput{SenderID: 2, ThreadID: th.ID, Content: "hi"})
	if err != nil {
		t.Fatalf("member send: %v", err)
	}
	if m.ThreadID != th.ID || m.RecipientID != 0 {
		t.Fatalf("unexpected thread message: %+v", m)
	}

	if _, err := svc.Messages(ctx, th.ID, 3); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("outsider read: expected ErrNotAuthorized, got %v", err)
	}
	list, err := svc.Messages(ctx, th.ID, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("member read: %v %+v", err, list)
	}
	if _, err := svc.Messages(ctx, 424242, 1); !errors.Is(err, domain.ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
}

func TestThreadService_ListMine(t *testing.T) {
	svc, _, _ := newThreadFixture()
	ctx := context.Background()
	_, _ = svc.Create(ctx, ports.CreateThreadInput{CreatorID: 1, ParticipantIDs: []int64{2}})
	_, _ = svc.Create(ctx, ports.CreateThreadInput{CreatorID: 3, ParticipantIDs: []int64{4}})

	mine, _ := svc.ListMine(ctx, 2)
	if len(mine) != 1 {
		t.Fatalf("expected one thread for user 2, got %d", len(mine))
	}
}
