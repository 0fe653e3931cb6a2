package websocket

import (
	"context"
	"errors"

	"github.com/auth0/go-jwt-middleware/v2/validator"
)

var (
	// ErrInvalidToken is returned when the access token does not validate
	ErrInvalidToken = errors.New("invalid token")
	// ErrWorkspaceNotFound is returned when the token subject owns no workspace
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// TokenValidator validates a raw access token. *validator.Validator satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// WorkspaceLookup resolves the workspace owned by an Auth0 subject
type WorkspaceLookup interface {
	WorkspaceIDByAuth0ID(auth0ID string) (int32, error)
}

// TokenAuthenticator maps the ?token= query parameter of a live connection to a workspace.
// Browsers cannot set headers on a websocket handshake, so the token travels in the URL.
type TokenAuthenticator struct {
	validator TokenValidator
	lookup    WorkspaceLookup
}

// NewTokenAuthenticator creates a TokenAuthenticator
func NewTokenAuthenticator(v TokenValidator, lookup WorkspaceLookup) *TokenAuthenticator {
	return &TokenAuthenticator{validator: v, lookup: lookup}
}

// Authenticate returns the caller's workspace ID
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (int32, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}

	claims, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}
	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok || validated.RegisteredClaims.Subject == "" {
		return 0, ErrInvalidToken
	}

	workspaceID, err := a.lookup.WorkspaceIDByAuth0ID(validated.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrWorkspaceNotFound
	}
	return workspaceID, nil
}
