package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/margem-saas/margem-backend/internal/middleware"
	"github.com/margem-saas/margem-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// AuthHandler binds Auth0 sessions to workspaces
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthCallbackResponse represents the response from the auth callback
type AuthCallbackResponse struct {
	User           UserResponse      `json:"user"`
	Workspace      WorkspaceResponse `json:"workspace"`
	IsNewWorkspace bool              `json:"isNewWorkspace"`
}

// UserResponse is the identity carried by the access token
type UserResponse struct {
	Auth0ID    string  `json:"auth0Id"`
	Email      string  `json:"email"`
	Name       *string `json:"name"`
	PictureURL *string `json:"pictureUrl"`
}

func userFromClaims(c echo.Context) UserResponse {
	user := UserResponse{Auth0ID: middleware.GetAuth0ID(c)}
	if claims := middleware.GetCustomClaims(c); claims != nil {
		user.Email = claims.Email
		if claims.Name != "" {
			name := claims.Name
			user.Name = &name
		}
		if claims.Picture != "" {
			picture := claims.Picture
			user.PictureURL = &picture
		}
	}
	return user
}

// Callback handles POST /api/v1/auth/callback. It runs behind token-only authentication because
// the workspace may not exist yet; the first login creates it.
func (h *AuthHandler) Callback(c echo.Context) error {
	user := userFromClaims(c)
	if user.Auth0ID == "" {
		log.Error().Msg("No Auth0 ID in context - middleware may not be configured")
		return NewUnauthorizedError(c, "Authentication required")
	}
	if user.Email == "" {
		log.Error().Str("auth0_id", user.Auth0ID).Msg("No email in JWT claims")
		return NewValidationError(c, "Email is required for authentication", []ValidationError{
			{Field: "email", Message: "Email claim is missing from token"},
		})
	}

	result, err := h.authService.AuthenticateUser(user.Auth0ID, user.Email, user.Name)
	if err != nil {
		return respondError(c, err, "authenticate user")
	}

	return c.JSON(http.StatusOK, AuthCallbackResponse{
		User:           user,
		Workspace:      toWorkspaceResponse(result.Workspace, ""),
		IsNewWorkspace: result.IsNewWorkspace,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	user := userFromClaims(c)
	if user.Auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	workspace, err := h.authService.GetWorkspaceByID(workspaceID)
	if err != nil {
		return respondError(c, err, "get workspace")
	}

	return c.JSON(http.StatusOK, AuthCallbackResponse{
		User:      user,
		Workspace: toWorkspaceResponse(workspace, ""),
	})
}

// LogoutResponse represents the response from logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// Logout handles POST /api/v1/auth/logout. Auth0 ends the session; this only records the event.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}
	log.Info().Str("auth0_id", auth0ID).Msg("User logged out")
	return c.JSON(http.StatusOK, LogoutResponse{Message: "Logged out successfully"})
}
