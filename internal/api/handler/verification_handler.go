package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/api/metrics"
	"github.com/personnel-directory/messaging-api/internal/core/domain"
	"github.com/personnel-directory/messaging-api/internal/core/ports"
)

// VerificationHandler exposes the identity verification flow.
type VerificationHandler struct {
	service ports.VerificationService
}

func NewVerificationHandler(service ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// CheckServiceNumber handles POST /v1/verification/service-number.
//
// @Summary      Start verification with a service number
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      serviceNumberRequest  true  "Service number"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/verification/service-number [post]
func (h *VerificationHandler) CheckServiceNumber(c echo.Context) error {
	var req serviceNumberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.CheckServiceNumber(c.Request().Context(), req.ServiceNumber); err != nil {
		return err
	}
	return success(c)
}

// ConfirmOfficialName handles POST /v1/verification/official-name.
//
// @Summary      Confirm the official name for a service number
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      officialNameRequest  true  "Service number and official name"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/verification/official-name [post]
func (h *VerificationHandler) ConfirmOfficialName(c echo.Context) error {
	var req officialNameRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := h.service.ConfirmFactor(c.Request().Context(), req.ServiceNumber, ports.FactorInput{OfficialName: req.OfficialName})
	if err != nil {
		return err
	}
	return success(c)
}

// ConfirmPhone handles POST /v1/verification/phone. A match issues an OTP by SMS.
//
// @Summary      Confirm the phone number and receive an SMS code
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      phoneFactorRequest  true  "Service number and phone number"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/verification/phone [post]
func (h *VerificationHandler) ConfirmPhone(c echo.Context) error {
	var req phoneFactorRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := h.service.ConfirmFactor(c.Request().Context(), req.ServiceNumber, ports.FactorInput{PhoneNumber: req.PhoneNumber})
	if err != nil {
		return err
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(domain.ChannelSMS)).Inc()
	return success(c)
}

// ConfirmEmail handles POST /v1/verification/email. A match issues an OTP by email.
//
// @Summary      Confirm the email address and receive an email code
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      emailFactorRequest  true  "Service number and email"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/verification/email [post]
func (h *VerificationHandler) ConfirmEmail(c echo.Context) error {
	var req emailFactorRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := h.service.ConfirmFactor(c.Request().Context(), req.ServiceNumber, ports.FactorInput{Email: req.Email})
	if err != nil {
		return err
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(domain.ChannelEmail)).Inc()
	return success(c)
}

// VerifyOTP handles POST /v1/verification/otp.
//
// @Summary      Verify the one-time code
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Service number and code"
// @Success      200   {object}  verifyOTPResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/verification/otp [post]
func (h *VerificationHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token, err := h.service.VerifyOTP(c.Request().Context(), req.ServiceNumber, req.OTP)
	metrics.OTPVerificationsTotal.WithLabelValues(otpResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyOTPResponse{Status: "success", VerificationToken: token})
}

// SetPassword handles POST /v1/verification/password.
//
// @Summary      Set the password after a verified code
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body      setPasswordRequest  true  "Service number, verification token and new password"
// @Success      200   {object}  statusResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/verification/password [post]
func (h *VerificationHandler) SetPassword(c echo.Context) error {
	var req setPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	err := h.service.SetPassword(c.Request().Context(), ports.SetPasswordInput{
		ServiceNumber:     req.ServiceNumber,
		VerificationToken: req.VerificationToken,
		Password:          req.Password,
		ConfirmPassword:   req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return success(c)
}

func otpResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrOTPExpired):
		return "expired"
	case errors.Is(err, domain.ErrInvalidOTP), errors.Is(err, domain.ErrNoPendingOTP):
		return "invalid"
	default:
		return "error"
	}
}
