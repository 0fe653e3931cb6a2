package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	subject string
	err     error
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: s.subject},
		CustomClaims:     &CustomClaims{Email: "owner@example.com", Name: "Owner"},
	}, nil
}

type stubWorkspaceProvider struct {
	ids map[string]int32
	err error
}

func (s *stubWorkspaceProvider) WorkspaceIDByAuth0ID(auth0ID string) (int32, error) {
	if s.err != nil {
		return 0, s.err
	}
	id, ok := s.ids[auth0ID]
	if !ok {
		return 0, domain.ErrWorkspaceNotFound
	}
	return id, nil
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec, c, called
}

func TestAuthenticate(t *testing.T) {
	provider := &stubWorkspaceProvider{ids: map[string]int32{"auth0|owner": 7}}

	t.Run("injects workspace", func(t *testing.T) {
		m := NewAuthMiddlewareWithValidator(&stubValidator{subject: "auth0|owner"}, provider)
		rec, c, called := runAuth(t, m.Authenticate(), "Bearer token")

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int32(7), GetWorkspaceID(c))
		assert.Equal(t, "auth0|owner", GetAuth0ID(c))
		assert.Equal(t, "owner@example.com", GetCustomClaims(c).Email)
	})

	t.Run("missing header", func(t *testing.T) {
		m := NewAuthMiddlewareWithValidator(&stubValidator{subject: "auth0|owner"}, provider)
		rec, _, called := runAuth(t, m.Authenticate(), "")

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var problem problemDetails
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		assert.Equal(t, errorTypeUnauthorized, problem.Type)
		assert.Equal(t, "missing authorization header", problem.Detail)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		m := NewAuthMiddlewareWithValidator(&stubValidator{subject: "auth0|owner"}, provider)
		rec, _, called := runAuth(t, m.Authenticate(), "Basic abc")

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		m := NewAuthMiddlewareWithValidator(&stubValidator{err: errors.New("expired")}, provider)
		rec, _, called := runAuth(t, m.Authenticate(), "Bearer token")

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		m := NewAuthMiddlewareWithValidator(&stubValidator{subject: "auth0|stranger"}, provider)
		rec, _, called := runAuth(t, m.Authenticate(), "Bearer token")

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lookup failure", func(t *testing.T) {
		m := NewAuthMiddlewareWithValidator(&stubValidator{subject: "auth0|owner"}, &stubWorkspaceProvider{err: errors.New("db down")})
		rec, _, called := runAuth(t, m.Authenticate(), "Bearer token")

		assert.False(t, called)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAuthenticateToken(t *testing.T) {
	m := NewAuthMiddlewareWithValidator(&stubValidator{subject: "auth0|new"}, &stubWorkspaceProvider{})
	rec, c, called := runAuth(t, m.AuthenticateToken(), "bearer token")

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "auth0|new", GetAuth0ID(c))
	assert.Equal(t, int32(0), GetWorkspaceID(c))
}

func TestContextGetters(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Equal(t, "", GetAuth0ID(c))
	assert.Nil(t, GetClaims(c))
	assert.Nil(t, GetCustomClaims(c))
	assert.Equal(t, int32(0), GetWorkspaceID(c))

	claims := &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|test"}}
	ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
	c.SetRequest(c.Request().WithContext(ctx))

	require.NotNil(t, GetClaims(c))
	assert.Equal(t, "auth0|test", GetClaims(c).RegisteredClaims.Subject)
	assert.Nil(t, GetCustomClaims(c))
}
