package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// domainErrors is checked in order; the first errors.Is match wins.
var domainErrors = []errorMapping{
	{domain.ErrPersonnelNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrMessageNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrThreadNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrMediaNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidServiceNumber, http.StatusBadRequest, "invalid_service_number"},
	{domain.ErrFactorMismatch, http.StatusBadRequest, "factor_mismatch"},
	{domain.ErrInvalidOTP, http.StatusBadRequest, "invalid_otp"},
	{domain.ErrOTPExpired, http.StatusBadRequest, "otp_expired"},
	{domain.ErrNoPendingOTP, http.StatusBadRequest, "no_pending_otp"},
	{domain.ErrVerificationIncomplete, http.StatusBadRequest, "verification_incomplete"},
	{domain.ErrPasswordMismatch, http.StatusBadRequest, "invalid_input"},
	{domain.ErrWeakPassword, http.StatusBadRequest, "invalid_input"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{domain.ErrInvalidResetToken, http.StatusBadRequest, "invalid_reset_token"},
	{domain.ErrInvalidRecipient, http.StatusBadRequest, "invalid_recipient"},
	{domain.ErrEmptyMessage, http.StatusBadRequest, "empty_message"},
	{domain.ErrUnsupportedMedia, http.StatusBadRequest, "unsupported_media"},
	{domain.ErrMediaTooLarge, http.StatusBadRequest, "media_too_large"},
	{domain.ErrInsufficientParticipants, http.StatusBadRequest, "invalid_input"},
	{domain.ErrThreadNameRequired, http.StatusBadRequest, "invalid_input"},
	{domain.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{domain.ErrSessionRevoked, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrDependency, http.StatusServiceUnavailable, "dependency_unavailable"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and a stable error code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error", "code", "request_id"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := resolveError(err, log, c)
		resp.RequestID = requestID(c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: httpCode(he.Code)}
	}

	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			if m.status == http.StatusServiceUnavailable {
				log.Warn().Err(err).Str("path", c.Path()).Str("request_id", requestID(c)).Msg("dependency unavailable")
			}
			return m.status, errorResponse{Error: m.target.Error(), Code: m.code}
		}
	}

	// Unexpected error: log the real cause, return only the correlation id.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", requestID(c)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "not_authorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "media_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "dependency_unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "error"
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
