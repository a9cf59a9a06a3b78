package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

type messageFixture struct {
	people    *stubPersonnelRepo
	messages  *stubMessageRepo
	reactions *stubReactionRepo
	threads   *stubThreadRepo
	blobs     *stubBlobStore
	clock     *clock
	svc       *MessageService
}

func newMessageFixture() *messageFixture {
	f := &messageFixture{
		people:    newStubPersonnelRepo(seedPersonnel(1, "SN/1"), seedPersonnel(2, "SN/2"), seedPersonnel(3, "SN/3")),
		messages:  newStubMessageRepo(),
		reactions: newStubReactionRepo(),
		threads:   newStubThreadRepo(),
		blobs:     newStubBlobStore(),
		clock:     &clock{t: fixedNow},
	}
	f.svc = NewMessageService(f.messages, f.reactions, f.people, f.threads, f.blobs, &stubIDs{},
		MediaPolicy{MaxBytes: 1024, AllowedTypes: []string{"image/png", "application/pdf"}}, zerolog.Nop())
	f.svc.composer.now = f.clock.now
	return f
}

func (f *messageFixture) send(t *testing.T, from, to int64, content string) *domain.Message {
	t.Helper()
	f.clock.advance(time.Second)
	m, err := f.svc.Send(context.Background(), ports.SendMessageInput{SenderID: from, RecipientID: to, Content: content})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	return m
}

func TestMessageService_SendText(t *testing.T) {
	f := newMessageFixture()
	m := f.send(t, 1, 2, "  hello  ")

	if m.Content != "hello" || m.MediaType != domain.MediaText || m.IsRead {
		t.Fatalf("unexpected message: %+v", m)
	}
	if _, ok := f.messages.byID[m.ID]; !ok {
		t.Fatal("message not stored")
	}
}

func TestMessageService_Send_Validation(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   ports.SendMessageInput
		want error
	}{
		{"missing recipient", ports.SendMessageInput{SenderID: 1, Content: "hi"}, domain.ErrInvalidRecipient},
		{"unknown recipient", ports.SendMessageInput{SenderID: 1, RecipientID: 99, Content: "hi"}, domain.ErrInvalidRecipient},
		{"empty", ports.SendMessageInput{SenderID: 1, RecipientID: 2, Content: "   "}, domain.ErrEmptyMessage},
		{"bad link", ports.SendMessageInput{SenderID: 1, RecipientID: 2, LinkURL: "not a url"}, domain.ErrInvalidInput},
		{"unsupported media", ports.SendMessageInput{SenderID: 1, RecipientID: 2, Media: &ports.MediaUpload{FileName: "a.exe", ContentType: "application/x-msdownload", Data: []byte("x")}}, domain.ErrUnsupportedMedia},
		{"too large", ports.SendMessageInput{SenderID: 1, RecipientID: 2, Media: &ports.MediaUpload{FileName: "a.png", ContentType: "image/png", Data: bytes.Repeat([]byte("x"), 2048)}}, domain.ErrMediaTooLarge},
	}

	for _, tc := range cases {
		if _, err := f.svc.Send(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if len(f.messages.byID) != 0 {
		t.Fatalf("no message may be created on failure, got %d", len(f.messages.byID))
	}
	if len(f.blobs.saved) != 0 {
		t.Fatalf("rejected media must not be stored, got %d", len(f.blobs.saved))
	}
}

func TestMessageService_SendImage(t *testing.T) {
	f := newMessageFixture()
	m, err := f.svc.Send(context.Background(), ports.SendMessageInput{
		SenderID:    1,
		RecipientID: 2,
		Media:       &ports.MediaUpload{FileName: "pic.png", ContentType: "image/png", Size: 4, Data: []byte("\x89PNG")},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.MediaType != domain.MediaImage || m.MediaURL == "" {
		t.Fatalf("expected image with url, got %+v", m)
	}
}

func TestMessageService_SendLink(t *testing.T) {
	f := newMessageFixture()
	m, err := f.svc.Send(context.Background(), ports.SendMessageInput{SenderID: 1, RecipientID: 2, LinkURL: "https://example.org/doc"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.MediaType != domain.MediaLink || m.MediaURL != "https://example.org/doc" {
		t.Fatalf("unexpected link message: %+v", m)
	}
}

func TestMessageService_InboxNewestFirst(t *testing.T) {
	f := newMessageFixture()
	first := f.send(t, 1, 2, "one")
	second := f.send(t, 3, 2, "two")
	f.send(t, 2, 1, "not mine")

	inbox, err := f.svc.Inbox(context.Background(), 2)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 2 || inbox[0].ID != second.ID || inbox[1].ID != first.ID {
		t.Fatalf("unexpected inbox order: %+v", inbox)
	}
}

func TestMessageService_MarkRead_OnlyRecipient(t *testing.T) {
	f := newMessageFixture()
	m := f.send(t, 1, 2, "hi")
	ctx := context.Background()

	if err := f.svc.MarkRead(ctx, m.ID, 1); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("sender marking read: expected ErrNotAuthorized, got %v", err)
	}
	if err := f.svc.MarkRead(ctx, m.ID, 2); err != nil {
		t.Fatalf("recipient mark read: %v", err)
	}
	if !f.messages.byID[m.ID].IsRead {
		t.Fatal("message should be read")
	}
	if err := f.svc.MarkRead(ctx, m.ID, 2); err != nil {
		t.Fatalf("second mark read must be a no-op, got %v", err)
	}
	if err := f.svc.MarkRead(ctx, 424242, 2); !errors.Is(err, domain.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestMessageService_Delete_OnlySender(t *testing.T) {
	f := newMessageFixture()
	m := f.send(t, 1, 2, "hi")
	ctx := context.Background()
	_, _ = f.svc.React(ctx, m.ID, 2, "like")

	if err := f.svc.Delete(ctx, m.ID, 2); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("recipient delete: expected ErrNotAuthorized, got %v", err)
	}
	if _, ok := f.messages.byID[m.ID]; !ok {
		t.Fatal("message must survive a rejected delete")
	}
	if err := f.svc.Delete(ctx, m.ID, 1); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if _, ok := f.messages.byID[m.ID]; ok {
		t.Fatal("message should be gone")
	}
	if len(f.reactions.byKey) != 0 {
		t.Fatal("reactions should go with the message")
	}
}

func TestMessageService_ForwardRoundTrip(t *testing.T) {
	f := newMessageFixture()
	orig := f.send(t, 1, 2, "orders attached")
	ctx := context.Background()

	fwd, err := f.svc.Forward(ctx, orig.ID, 2, 3)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if fwd.ID == orig.ID || fwd.SenderID != 2 || fwd.RecipientID != 3 {
		t.Fatalf("unexpected forward envelope: %+v", fwd)
	}
	if fwd.Content != orig.Content || fwd.MediaType != orig.MediaType || fwd.MediaURL != orig.MediaURL {
		t.Fatalf("forward must copy the body: %+v vs %+v", fwd, orig)
	}
	if !fwd.Timestamp.After(orig.Timestamp) && !fwd.Timestamp.Equal(orig.Timestamp) {
		t.Fatalf("forward timestamp went backwards")
	}

	if _, err := f.svc.Forward(ctx, orig.ID, 3, 1); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("outsider forward: expected ErrNotAuthorized, got %v", err)
	}
	if _, err := f.svc.Forward(ctx, orig.ID, 2, 99); !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("unknown target: expected ErrInvalidRecipient, got %v", err)
	}
}

func TestMessageService_ReactUpserts(t *testing.T) {
	f := newMessageFixture()
	m := f.send(t, 1, 2, "hi")
	ctx := context.Background()

	if _, err := f.svc.React(ctx, m.ID, 2, "like"); err != nil {
		t.Fatalf("react: %v", err)
	}
	r, err := f.svc.React(ctx, m.ID, 2, "love")
	if err != nil {
		t.Fatalf("react again: %v", err)
	}
	if r.ReactionType != "love" {
		t.Fatalf("expected love, got %q", r.ReactionType)
	}

	list, _ := f.svc.Reactions(ctx, m.ID, 1)
	if len(list) != 1 || list[0].ReactionType != "love" {
		t.Fatalf("expected a single replaced reaction, got %+v", list)
	}

	if _, err := f.svc.React(ctx, m.ID, 3, "like"); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("outsider react: expected ErrNotAuthorized, got %v", err)
	}
	if _, err := f.svc.React(ctx, m.ID, 2, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty reaction: expected ErrInvalidInput, got %v", err)
	}
}

func TestMessageService_StarUnstar(t *testing.T) {
	f := newMessageFixture()
	m := f.send(t, 1, 2, "hi")
	ctx := context.Background()

	_ = f.svc.Star(ctx, m.ID, 2)
	_ = f.svc.Star(ctx, m.ID, 2)
	if got := f.messages.byID[m.ID].StarredBy; len(got) != 1 || got[0] != 2 {
		t.Fatalf("star should be idempotent, got %v", got)
	}
	_ = f.svc.Unstar(ctx, m.ID, 2)
	if f.messages.byID[m.ID].IsStarredBy(2) {
		t.Fatal("unstar did not remove the star")
	}
}

func TestMessageService_Shared(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	f.send(t, 1, 2, "plain")
	_, _ = f.svc.Send(ctx, ports.SendMessageInput{SenderID: 2, RecipientID: 1, LinkURL: "https://example.org"})
	_, _ = f.svc.Send(ctx, ports.SendMessageInput{SenderID: 1, RecipientID: 2, Media: &ports.MediaUpload{ContentType: "image/png", Data: []byte("x")}})
	_, _ = f.svc.Send(ctx, ports.SendMessageInput{SenderID: 1, RecipientID: 3, Media: &ports.MediaUpload{ContentType: "image/png", Data: []byte("y")}})

	media, _ := f.svc.Shared(ctx, 1, 2, domain.SharedMedia)
	if len(media) != 1 || media[0].MediaType != domain.MediaImage {
		t.Fatalf("expected one image between 1 and 2, got %+v", media)
	}
	links, _ := f.svc.Shared(ctx, 1, 2, domain.SharedLinks)
	if len(links) != 1 || links[0].MediaType != domain.MediaLink {
		t.Fatalf("expected one link, got %+v", links)
	}
	docs, _ := f.svc.Shared(ctx, 1, 2, domain.SharedDocs)
	if len(docs) != 0 {
		t.Fatalf("expected no docs, got %+v", docs)
	}
}
