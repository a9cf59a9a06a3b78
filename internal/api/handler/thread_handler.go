package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/api/metrics"
	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// ThreadHandler serves threads, group threads and their participants.
type ThreadHandler struct {
	service ports.ThreadService
}

func NewThreadHandler(service ports.ThreadService) *ThreadHandler {
	return &ThreadHandler{service: service}
}

// Create handles POST /v1/threads.
//
// @Summary      Create a thread
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createThreadRequest  true  "Participants and optional name"
// @Success      200   {object}  threadResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/threads [post]
func (h *ThreadHandler) Create(c echo.Context) error {
	var req createThreadRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return h.create(c, req.ParticipantIDs, req.Name, false)
}

// CreateGroup handles POST /v1/threads/group.
//
// @Summary      Create a named group thread
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createGroupRequest  true  "Participants and group name"
// @Success      200   {object}  threadResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/threads/group [post]
func (h *ThreadHandler) CreateGroup(c echo.Context) error {
	var req createGroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	return h.create(c, req.ParticipantIDs, req.Name, true)
}

func (h *ThreadHandler) create(c echo.Context, ids []flexID, name string, group bool) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	th, err := h.service.Create(c.Request().Context(), ports.CreateThreadInput{
		CreatorID:      principal.PersonnelID,
		ParticipantIDs: toIDs(ids),
		Name:           name,
		Group:          group,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toThreadResponse(th))
}

// ListMine handles GET /v1/threads.
//
// @Summary      List my threads
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  threadResponse
// @Router       /v1/threads [get]
func (h *ThreadHandler) ListMine(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	list, err := h.service.ListMine(c.Request().Context(), principal.PersonnelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toThreadResponses(list))
}

// Messages handles GET /v1/threads/:id/messages.
//
// @Summary      List thread messages, newest first
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Thread id"
// @Success      200  {array}   domain.Message
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/threads/{id}/messages [get]
func (h *ThreadHandler) Messages(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.service.Messages(c.Request().Context(), id, principal.PersonnelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Send handles POST /v1/threads/:id/messages as JSON or multipart.
//
// @Summary      Send a message into a thread
// @Tags         threads
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string                true   "Thread id"
// @Param        body        body      threadMessageRequest  false  "Message (JSON)"
// @Param        media_file  formData  file                  false  "Attachment (multipart)"
// @Success      201         {object}  domain.Message
// @Failure      400         {object}  errorResponse
// @Failure      403         {object}  errorResponse
// @Router       /v1/threads/{id}/messages [post]
func (h *ThreadHandler) Send(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req threadMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	upload, err := readUpload(c)
	if err != nil {
		return err
	}

	m, err := h.service.Send(c.Request().Context(), ports.SendMessageInput{
		SenderID: principal.PersonnelID,
		ThreadID: id,
		Content:  req.Content,
		LinkURL:  req.LinkURL,
		Media:    upload,
	})
	if err != nil {
		return err
	}
	metrics.MessagesSentTotal.WithLabelValues(string(m.MediaType)).Inc()
	return c.JSON(http.StatusCreated, m)
}

// AddParticipant handles POST /v1/threads/:id/participants.
//
// @Summary      Add a participant
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Thread id"
// @Param        body  body      participantRequest  true  "Participant id"
// @Success      200   {object}  threadResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/threads/{id}/participants [post]
func (h *ThreadHandler) AddParticipant(c echo.Context) error {
	return h.changeParticipants(c, h.service.AddParticipant)
}

// RemoveParticipant handles POST /v1/threads/:id/participants/remove.
//
// @Summary      Remove a participant
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Thread id"
// @Param        body  body      participantRequest  true  "Participant id"
// @Success      200   {object}  threadResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/threads/{id}/participants/remove [post]
func (h *ThreadHandler) RemoveParticipant(c echo.Context) error {
	return h.changeParticipants(c, h.service.RemoveParticipant)
}

func (h *ThreadHandler) changeParticipants(c echo.Context, op func(ctx context.Context, threadID, byUserID, targetUserID int64) (*domain.Thread, error)) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req participantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	th, err := op(c.Request().Context(), id, principal.PersonnelID, int64(req.ParticipantID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toThreadResponse(th))
}
