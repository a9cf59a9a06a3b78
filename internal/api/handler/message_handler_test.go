package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

func TestMessageHandler_Send_JSON(t *testing.T) {
	stub := &stubMessageService{}
	c, rec := newJSONContext(http.MethodPost, "/v1/messages", `{"recipient_id":"2","content":"hello"}`)
	asUser(c, 1)

	if err := NewMessageHandler(stub).Send(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.lastSend.SenderID != 1 || stub.lastSend.RecipientID != 2 || stub.lastSend.Content != "hello" || stub.lastSend.Media != nil {
		t.Fatalf("unexpected send input %+v", stub.lastSend)
	}
}

func TestMessageHandler_Send_NumericRecipient(t *testing.T) {
	stub := &stubMessageService{}
	c, _ := newJSONContext(http.MethodPost, "/v1/messages", `{"recipient_id":2,"content":"hello"}`)
	asUser(c, 1)

	if err := NewMessageHandler(stub).Send(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastSend.RecipientID != 2 {
		t.Fatalf("numeric id not accepted: %+v", stub.lastSend)
	}
}

func TestMessageHandler_Send_MissingRecipient(t *testing.T) {
	stub := &stubMessageService{}
	c, _ := newJSONContext(http.MethodPost, "/v1/messages", `{"content":"hello"}`)
	asUser(c, 1)

	if err := NewMessageHandler(stub).Send(c); !errors.Is(err, domain.ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
}

func TestMessageHandler_Send_Multipart(t *testing.T) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("recipient_id", "2")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="media_file"; filename="pic.png"`)
	h.Set("Content-Type", "image/png")
	part, _ := w.CreatePart(h)
	_, _ = part.Write([]byte("\x89PNG\r\n"))
	_ = w.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := asUser(e.NewContext(req, rec), 1)

	stub := &stubMessageService{}
	if err := NewMessageHandler(stub).Send(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	m := stub.lastSend.Media
	if stub.lastSend.RecipientID != 2 || m == nil {
		t.Fatalf("expected media upload, got %+v", stub.lastSend)
	}
	if m.FileName != "pic.png" || m.ContentType != "image/png" || len(m.Data) != 6 {
		t.Fatalf("unexpected upload %+v", m)
	}
}

func TestMessageHandler_HidesForeignMessages(t *testing.T) {
	stub := &stubMessageService{opErr: domain.ErrNotAuthorized}
	h := NewMessageHandler(stub)

	ops := map[string]func(echo.Context) error{
		"read":   h.MarkRead,
		"delete": h.Delete,
		"star":   h.Star,
		"unstar": h.Unstar,
	}
	for name, op := range ops {
		c, _ := newJSONContext(http.MethodPost, "/v1/messages/"+name, `{"message_id":"10"}`)
		asUser(c, 3)
		if err := op(c); !errors.Is(err, domain.ErrMessageNotFound) {
			t.Fatalf("%s: expected ErrMessageNotFound, got %v", name, err)
		}
	}
}

func TestMessageHandler_MarkRead_RequiresID(t *testing.T) {
	c, _ := newJSONContext(http.MethodPost, "/v1/messages/read", `{}`)
	asUser(c, 2)

	var he *echo.HTTPError
	if err := NewMessageHandler(&stubMessageService{}).MarkRead(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestMessageHandler_Forward(t *testing.T) {
	c, rec := newJSONContext(http.MethodPost, "/v1/messages/forward", `{"original_message_id":"10","recipient_id":"3"}`)
	asUser(c, 2)

	if err := NewMessageHandler(&stubMessageService{}).Forward(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMessageHandler_Shared_Kind(t *testing.T) {
	stub := &stubMessageService{}
	h := NewMessageHandler(stub)

	c, _ := newJSONContext(http.MethodGet, "/v1/messages/shared/2?kind=links", "")
	asUser(c, 1)
	c.SetParamNames("contact_id")
	c.SetParamValues("2")
	if err := h.Shared(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.shared != domain.SharedLinks {
		t.Fatalf("expected links, got %q", stub.shared)
	}

	c, _ = newJSONContext(http.MethodGet, "/v1/messages/shared/2?kind=stickers", "")
	asUser(c, 1)
	c.SetParamNames("contact_id")
	c.SetParamValues("2")
	var he *echo.HTTPError
	if err := h.Shared(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %v", err)
	}
}

func TestFlexID_Unmarshal(t *testing.T) {
	cases := map[string]int64{`"42"`: 42, `42`: 42, `null`: 0, `""`: 0}
	for raw, want := range cases {
		var id flexID
		if err := id.UnmarshalJSON([]byte(raw)); err != nil || int64(id) != want {
			t.Fatalf("%s: got %d, %v", raw, id, err)
		}
	}
	var id flexID
	if err := id.UnmarshalJSON([]byte(`"abc"`)); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}
