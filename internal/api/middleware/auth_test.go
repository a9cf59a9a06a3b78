package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/personnel-directory/messaging-api/internal/core/domain"
)

type stubAuthenticator struct {
	principals map[string]*domain.Principal
	err        error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return p, nil
}

func runAuth(t *testing.T, auth Authenticator, header string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, Auth(auth)(next)(c)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	stub := &stubAuthenticator{principals: map[string]*domain.Principal{
		"good": {PersonnelID: 7, SessionID: "s-1", Role: domain.RoleAdmin},
	}}

	called := false
	rec, err := runAuth(t, stub, "Bearer good", func(c echo.Context) error {
		called = true
		p, ok := c.Get(KeyPrincipal).(*domain.Principal)
		if !ok || p.PersonnelID != 7 || p.SessionID != "s-1" || p.Role != domain.RoleAdmin {
			t.Fatalf("principal not set: %+v", c.Get(KeyPrincipal))
		}
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RejectsHeaders(t *testing.T) {
	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer"} {
		_, err := runAuth(t, &stubAuthenticator{}, header, func(c echo.Context) error {
			t.Fatalf("should not reach next for %q", header)
			return nil
		})
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %v", header, err)
		}
	}
}

func TestAuthMiddleware_PropagatesSessionErrors(t *testing.T) {
	stub := &stubAuthenticator{err: domain.ErrSessionRevoked}
	_, err := runAuth(t, stub, "Bearer stale", func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err != domain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}

	_, err = runAuth(t, &stubAuthenticator{}, "Bearer not-a-token", func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
