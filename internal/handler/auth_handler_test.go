package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallback_NewWorkspace(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/callback", "", 0)
	setupAuthContext(c, "auth0|newowner", "new@example.com", "Oficina do Zé", 0)

	require.NoError(t, f.auth.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthCallbackResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.IsNewWorkspace)
	assert.Equal(t, "Oficina do Zé", resp.Workspace.Name)
	assert.Equal(t, "6.00", resp.Workspace.TaxRatePercent)
	assert.Equal(t, "new@example.com", resp.User.Email)
	require.NotNil(t, resp.User.Name)
	assert.Equal(t, "Oficina do Zé", *resp.User.Name)
}

func TestCallback_ExistingWorkspace(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/callback", "", 0)
	setupAuthContext(c, "auth0|owner", "owner@example.com", "", 0)

	require.NoError(t, f.auth.Callback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthCallbackResponse
	decodeBody(t, rec, &resp)
	assert.False(t, resp.IsNewWorkspace)
	assert.Equal(t, testWorkspaceID, resp.Workspace.ID)
	assert.Nil(t, resp.User.Name)
}

func TestCallback_MissingEmail(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/callback", "", 0)
	setupAuthContext(c, "auth0|newowner", "", "", 0)

	require.NoError(t, f.auth.Callback(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallback_NoClaims(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/callback", "", 0)

	require.NoError(t, f.auth.Callback(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallback_RepositoryFailure(t *testing.T) {
	f := newAPIFixture(false)
	f.workspaces.GetByAuth0Fn = func(string) (*domain.Workspace, error) {
		return nil, errors.New("connection reset")
	}
	c, rec := newContext(http.MethodPost, "/api/v1/auth/callback", "", 0)
	setupAuthContext(c, "auth0|owner", "owner@example.com", "", 0)

	require.NoError(t, f.auth.Callback(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMe(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodGet, "/api/v1/auth/me", "", 0)
	setupAuthContext(c, "auth0|owner", "owner@example.com", "Owner", testWorkspaceID)

	require.NoError(t, f.auth.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthCallbackResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Margem Ltda", resp.Workspace.Name)
	assert.Equal(t, "auth0|owner", resp.User.Auth0ID)
}

func TestMe_WithoutWorkspace(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodGet, "/api/v1/auth/me", "", 0)
	setupAuthContext(c, "auth0|owner", "owner@example.com", "Owner", 0)

	require.NoError(t, f.auth.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/logout", "", 0)
	setupAuthContext(c, "auth0|owner", "owner@example.com", "", 0)

	require.NoError(t, f.auth.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
