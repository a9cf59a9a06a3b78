package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/api/middleware"
	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

// principalFrom returns the caller injected by the Auth middleware. A missing
// principal means the route was registered without Auth.
func principalFrom(c echo.Context) (*domain.Principal, error) {
	p, ok := c.Get(middleware.KeyPrincipal).(*domain.Principal)
	if !ok || p == nil || p.PersonnelID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := parseID(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a numeric id")
	}
	return id, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}

// statusResponse is the body of operations that only report success.
type statusResponse struct {
	Status string `json:"status" example:"success"`
}

func success(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: "success"})
}
