package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// PersonnelHandler serves directory records and the caller's profile.
type PersonnelHandler struct {
	service ports.PersonnelService
}

func NewPersonnelHandler(service ports.PersonnelService) *PersonnelHandler {
	return &PersonnelHandler{service: service}
}

// Register handles POST /v1/personnel. Admin only.
//
// @Summary      Register a personnel record
// @Tags         personnel
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerPersonnelRequest  true  "Identity facts"
// @Success      201   {object}  domain.Personnel
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/personnel [post]
func (h *PersonnelHandler) Register(c echo.Context) error {
	var req registerPersonnelRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.service.Register(c.Request().Context(), ports.RegisterPersonnelInput{
		FirstName:        req.FirstName,
		MiddleName:       req.MiddleName,
		Surname:          req.Surname,
		ServiceNumber:    req.ServiceNumber,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		Rank:             req.Rank,
		Role:             req.Role,
		PreferredContact: domain.ContactChannel(req.PreferredContact),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Me handles GET /v1/personnel/me.
//
// @Summary      Get my profile
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Personnel
// @Failure      401  {object}  errorResponse
// @Router       /v1/personnel/me [get]
func (h *PersonnelHandler) Me(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), principal.PersonnelID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateMe handles PUT /v1/personnel/me.
//
// @Summary      Update my profile
// @Tags         personnel
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.Personnel
// @Failure      400   {object}  errorResponse
// @Router       /v1/personnel/me [put]
func (h *PersonnelHandler) UpdateMe(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	upd := ports.ProfileUpdate{PhoneNumber: req.PhoneNumber, Rank: req.Rank}
	if req.PreferredContact != nil {
		ch := domain.ContactChannel(strings.ToLower(*req.PreferredContact))
		upd.PreferredContact = &ch
	}

	p, err := h.service.UpdateProfile(c.Request().Context(), principal.PersonnelID, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Get handles GET /v1/personnel/:id and returns public fields only.
//
// @Summary      Get a member's public profile
// @Tags         personnel
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Personnel id"
// @Success      200  {object}  publicPersonnelResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/personnel/{id} [get]
func (h *PersonnelHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPublicPersonnel(p))
}
