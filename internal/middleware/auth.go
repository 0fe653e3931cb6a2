package middleware

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// Auth0IDKey is the context key for the Auth0 subject
	Auth0IDKey contextKey = "auth0_id"
	// WorkspaceIDKey is the context key for the caller's workspace ID
	WorkspaceIDKey contextKey = "workspace_id"
)

// TokenValidator validates a raw bearer token. *validator.Validator satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// WorkspaceProvider resolves the workspace owned by an Auth0 identity
type WorkspaceProvider interface {
	WorkspaceIDByAuth0ID(auth0ID string) (int32, error)
}

// AuthMiddleware validates Auth0 access tokens and scopes requests to a workspace
type AuthMiddleware struct {
	validator         TokenValidator
	workspaceProvider WorkspaceProvider
}

// NewAuth0Validator builds an RS256 validator backed by the tenant's cached JWKS.
// The REST middleware and the live channel share one instance.
func NewAuth0Validator(auth0Domain, audience string) (*validator.Validator, error) {
	issuerURL, err := url.Parse("https://" + auth0Domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	return validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(auth0Domain, audience string, workspaceProvider WorkspaceProvider) (*AuthMiddleware, error) {
	jwtValidator, err := NewAuth0Validator(auth0Domain, audience)
	if err != nil {
		return nil, err
	}
	return NewAuthMiddlewareWithValidator(jwtValidator, workspaceProvider), nil
}

// NewAuthMiddlewareWithValidator builds the middleware around an existing validator
func NewAuthMiddlewareWithValidator(tokenValidator TokenValidator, workspaceProvider WorkspaceProvider) *AuthMiddleware {
	return &AuthMiddleware{
		validator:         tokenValidator,
		workspaceProvider: workspaceProvider,
	}
}

// AuthenticateToken validates the bearer token only. Used by the login callback, which runs
// before the workspace exists.
func (m *AuthMiddleware) AuthenticateToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := m.validate(c)
			if err != nil {
				return unauthorizedError(c, err.Error())
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Authenticate validates the bearer token and injects the caller's workspace ID.
// Every tenant-scoped route sits behind it.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := m.validate(c)
			if err != nil {
				return unauthorizedError(c, err.Error())
			}

			auth0ID, _ := ctx.Value(Auth0IDKey).(string)
			workspaceID, err := m.workspaceProvider.WorkspaceIDByAuth0ID(auth0ID)
			if err != nil {
				if errors.Is(err, domain.ErrWorkspaceNotFound) {
					return unauthorizedError(c, "workspace not found, complete login first")
				}
				log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Workspace lookup failed")
				return internalError(c)
			}

			ctx = context.WithValue(ctx, WorkspaceIDKey, workspaceID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func (m *AuthMiddleware) validate(c echo.Context) (context.Context, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("invalid authorization header format")
	}

	claims, err := m.validator.ValidateToken(c.Request().Context(), parts[1])
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return nil, errors.New("invalid token")
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok || validatedClaims.RegisteredClaims.Subject == "" {
		return nil, errors.New("invalid claims")
	}

	ctx := context.WithValue(c.Request().Context(), ClaimsKey, validatedClaims)
	ctx = context.WithValue(ctx, Auth0IDKey, validatedClaims.RegisteredClaims.Subject)
	return ctx, nil
}

// GetAuth0ID extracts the Auth0 subject from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}

// GetWorkspaceID extracts the workspace ID from the context; 0 when absent
func GetWorkspaceID(c echo.Context) int32 {
	if id, ok := c.Request().Context().Value(WorkspaceIDKey).(int32); ok {
		return id
	}
	return 0
}
