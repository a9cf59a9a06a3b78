package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/api/metrics"
	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// MessageHandler serves direct messages, reactions and stars.
type MessageHandler struct {
	service ports.MessageService
}

func NewMessageHandler(service ports.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send handles POST /v1/messages as JSON or multipart with a media_file part.
//
// @Summary      Send a direct message
// @Tags         messages
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        body        body      sendMessageRequest  false  "Message (JSON)"
// @Param        media_file  formData  file                false  "Attachment (multipart)"
// @Success      201         {object}  domain.Message
// @Failure      400         {object}  errorResponse
// @Router       /v1/messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.RecipientID == 0 {
		return domain.ErrInvalidRecipient
	}
	upload, err := readUpload(c)
	if err != nil {
		return err
	}

	m, err := h.service.Send(c.Request().Context(), ports.SendMessageInput{
		SenderID:    principal.PersonnelID,
		RecipientID: int64(req.RecipientID),
		Content:     req.Content,
		LinkURL:     req.LinkURL,
		Media:       upload,
	})
	if err != nil {
		return err
	}
	metrics.MessagesSentTotal.WithLabelValues(string(m.MediaType)).Inc()
	return c.JSON(http.StatusCreated, m)
}

// Inbox handles GET /v1/messages.
//
// @Summary      List received messages, newest first
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Message
// @Router       /v1/messages [get]
func (h *MessageHandler) Inbox(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	list, err := h.service.Inbox(c.Request().Context(), principal.PersonnelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// MarkRead handles POST /v1/messages/read.
//
// @Summary      Mark a received message as read
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      messageIDRequest  true  "Message id"
// @Success      200   {object}  statusResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/messages/read [post]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	return h.onMessage(c, h.service.MarkRead)
}

// Delete handles POST /v1/messages/delete.
//
// @Summary      Delete a sent message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      messageIDRequest  true  "Message id"
// @Success      200   {object}  statusResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/messages/delete [post]
func (h *MessageHandler) Delete(c echo.Context) error {
	return h.onMessage(c, h.service.Delete)
}

// Star handles POST /v1/messages/star.
//
// @Summary      Star a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      messageIDRequest  true  "Message id"
// @Success      200   {object}  statusResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/messages/star [post]
func (h *MessageHandler) Star(c echo.Context) error {
	return h.onMessage(c, h.service.Star)
}

// Unstar handles POST /v1/messages/unstar.
//
// @Summary      Remove a star
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      messageIDRequest  true  "Message id"
// @Success      200   {object}  statusResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/messages/unstar [post]
func (h *MessageHandler) Unstar(c echo.Context) error {
	return h.onMessage(c, h.service.Unstar)
}

// Forward handles POST /v1/messages/forward.
//
// @Summary      Forward a message to another member
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      forwardRequest  true  "Original message and new recipient"
// @Success      200   {object}  domain.Message
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/messages/forward [post]
func (h *MessageHandler) Forward(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req forwardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.service.Forward(c.Request().Context(), int64(req.OriginalMessageID), principal.PersonnelID, int64(req.RecipientID))
	if err != nil {
		return hideForeign(err)
	}
	metrics.MessagesSentTotal.WithLabelValues(string(m.MediaType)).Inc()
	return c.JSON(http.StatusOK, m)
}

// React handles POST /v1/messages/react.
//
// @Summary      React to a message, replacing any earlier reaction
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reactRequest  true  "Message id and reaction"
// @Success      200   {object}  domain.Reaction
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/messages/react [post]
func (h *MessageHandler) React(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req reactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	r, err := h.service.React(c.Request().Context(), int64(req.MessageID), principal.PersonnelID, req.ReactionType)
	if err != nil {
		return hideForeign(err)
	}
	return c.JSON(http.StatusOK, r)
}

// Reactions handles GET /v1/messages/:id/reactions.
//
// @Summary      List reactions on a message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string  true  "Message id"
// @Success      200  {array}  domain.Reaction
// @Failure      404  {object}  errorResponse
// @Router       /v1/messages/{id}/reactions [get]
func (h *MessageHandler) Reactions(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.service.Reactions(c.Request().Context(), id, principal.PersonnelID)
	if err != nil {
		return hideForeign(err)
	}
	return c.JSON(http.StatusOK, list)
}

// Shared handles GET /v1/messages/shared/:contact_id.
//
// @Summary      List media, links or documents exchanged with a contact
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        contact_id  path     string  true   "Contact personnel id"
// @Param        kind        query    string  false  "media, links or docs"  Enums(media, links, docs)
// @Success      200         {array}  domain.Message
// @Failure      400         {object}  errorResponse
// @Router       /v1/messages/shared/{contact_id} [get]
func (h *MessageHandler) Shared(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	contactID, err := pathID(c, "contact_id")
	if err != nil {
		return err
	}

	kind := domain.SharedKind(c.QueryParam("kind"))
	switch kind {
	case "":
		kind = domain.SharedMedia
	case domain.SharedMedia, domain.SharedLinks, domain.SharedDocs:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be one of: media links docs")
	}

	list, err := h.service.Shared(c.Request().Context(), principal.PersonnelID, contactID, kind)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *MessageHandler) onMessage(c echo.Context, op func(ctx context.Context, messageID, userID int64) error) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req messageIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := op(c.Request().Context(), int64(req.MessageID), principal.PersonnelID); err != nil {
		return hideForeign(err)
	}
	return success(c)
}

// hideForeign reports a message the caller has no relationship with as absent.
func hideForeign(err error) error {
	if errors.Is(err, domain.ErrNotAuthorized) {
		return domain.ErrMessageNotFound
	}
	return err
}
