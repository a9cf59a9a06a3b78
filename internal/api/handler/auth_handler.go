package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/api/metrics"
	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a verified member and starts their single live session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Service number and password"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cred, p, err := h.authService.Login(c.Request().Context(), req.ServiceNumber, req.Password)
	switch {
	case err == nil:
		metrics.LoginsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return err
	default:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Access:    cred.AccessToken,
		Refresh:   cred.RefreshToken,
		ExpiresAt: cred.ExpiresAt,
		Personnel: p,
	})
}

// Refresh exchanges a refresh token for a new token pair on the live session.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  domain.Credential
// @Failure      401   {object}  errorResponse
// @Router       /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cred, err := h.authService.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cred)
}

// Logout revokes the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), *principal); err != nil {
		return err
	}
	return success(c)
}

// ChangePassword replaces the caller's password after checking the old one.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err = h.authService.ChangePassword(c.Request().Context(), ports.ChangePasswordInput{
		PersonnelID:     principal.PersonnelID,
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return success(c)
}

// RequestPasswordReset mails a reset link to a registered address.
//
// @Summary      Request a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetRequest  true  "Registered email"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email)
	if errors.Is(err, domain.ErrPersonnelNotFound) {
		return fmt.Errorf("password reset: %w", domain.ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	return success(c)
}

// ResetPassword sets a new password from a reset link.
//
// @Summary      Reset password via link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        uid    path      string                true  "Base36 personnel id"
// @Param        token  path      string                true  "Reset token"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  statusResponse
// @Failure      400    {object}  errorResponse
// @Router       /v1/auth/password-reset/{uid}/{token} [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := h.authService.ResetPassword(c.Request().Context(), ports.ResetPasswordInput{
		UID:             c.Param("uid"),
		Token:           c.Param("token"),
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return success(c)
}
