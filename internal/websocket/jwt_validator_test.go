package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	claims interface{}
	err    error
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	return s.claims, s.err
}

type stubLookup struct {
	ids map[string]int32
}

func (s *stubLookup) WorkspaceIDByAuth0ID(auth0ID string) (int32, error) {
	id, ok := s.ids[auth0ID]
	if !ok {
		return 0, errors.New("no rows")
	}
	return id, nil
}

func claimsFor(subject string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: subject}}
}

func TestTokenAuthenticator_Authenticate(t *testing.T) {
	lookup := &stubLookup{ids: map[string]int32{"auth0|owner": 7}}

	t.Run("valid token resolves workspace", func(t *testing.T) {
		auth := NewTokenAuthenticator(&stubValidator{claims: claimsFor("auth0|owner")}, lookup)
		id, err := auth.Authenticate(context.Background(), "token")
		assert.NoError(t, err)
		assert.Equal(t, int32(7), id)
	})

	t.Run("empty token", func(t *testing.T) {
		auth := NewTokenAuthenticator(&stubValidator{claims: claimsFor("auth0|owner")}, lookup)
		_, err := auth.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("validator rejects token", func(t *testing.T) {
		auth := NewTokenAuthenticator(&stubValidator{err: errors.New("expired")}, lookup)
		_, err := auth.Authenticate(context.Background(), "token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected claims type", func(t *testing.T) {
		auth := NewTokenAuthenticator(&stubValidator{claims: "not claims"}, lookup)
		_, err := auth.Authenticate(context.Background(), "token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty subject", func(t *testing.T) {
		auth := NewTokenAuthenticator(&stubValidator{claims: claimsFor("")}, lookup)
		_, err := auth.Authenticate(context.Background(), "token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject without workspace", func(t *testing.T) {
		auth := NewTokenAuthenticator(&stubValidator{claims: claimsFor("auth0|stranger")}, lookup)
		_, err := auth.Authenticate(context.Background(), "token")
		assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	})
}
