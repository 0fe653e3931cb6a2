package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/margem-saas/margem-backend/internal/domain"
	"github.com/margem-saas/margem-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLogoService() (*LogoService, *testutil.MockObjectStore, *testutil.MockWorkspaceRepository) {
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	workspaceRepo.AddWorkspace(&domain.Workspace{ID: testWorkspaceID, Auth0ID: "auth0|owner", Name: "Margem Ltda"})
	store := testutil.NewMockObjectStore()
	return NewLogoService(store, NewWorkspaceService(workspaceRepo)), store, workspaceRepo
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			// left half transparent
			alpha := uint8(255)
			if x < width/2 {
				alpha = 0
			}
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: alpha})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLogoService_ValidateLogo(t *testing.T) {
	svc, _, _ := setupLogoService()

	assert.NoError(t, svc.ValidateLogo(testPNG(t, 128, 64), "logo.PNG"))
	assert.ErrorIs(t, svc.ValidateLogo(testPNG(t, 128, 64), "logo.gif"), ErrLogoInvalidFormat)
	assert.ErrorIs(t, svc.ValidateLogo(testPNG(t, 40, 64), "logo.png"), ErrLogoTooSmall)
	assert.ErrorIs(t, svc.ValidateLogo([]byte("not an image"), "logo.jpg"), ErrLogoInvalidData)
	assert.ErrorIs(t, svc.ValidateLogo(make([]byte, MaxLogoSize+1), "logo.jpg"), ErrLogoTooLarge)
}

func TestLogoService_UploadNormalizesToJPEG(t *testing.T) {
	svc, store, _ := setupLogoService()

	ws, err := svc.UploadLogo(context.Background(), testWorkspaceID, testPNG(t, 800, 200), "logo.png")
	require.NoError(t, err)
	require.NotNil(t, ws.LogoPath)
	assert.True(t, strings.HasPrefix(*ws.LogoPath, "1/logo/"))
	assert.True(t, strings.HasSuffix(*ws.LogoPath, ".jpg"))
	assert.Equal(t, "image/jpeg", store.ContentTypes[*ws.LogoPath])

	img, err := jpeg.Decode(bytes.NewReader(store.Objects[*ws.LogoPath]))
	require.NoError(t, err)
	assert.Equal(t, LogoWidth, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	// transparent pixels were flattened onto white
	r, g, b, _ := img.At(10, 50).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestLogoService_UploadReplacesPreviousLogo(t *testing.T) {
	svc, store, _ := setupLogoService()
	ctx := context.Background()

	first, err := svc.UploadLogo(ctx, testWorkspaceID, testPNG(t, 400, 100), "logo.png")
	require.NoError(t, err)
	firstPath := *first.LogoPath

	second, err := svc.UploadLogo(ctx, testWorkspaceID, testPNG(t, 400, 100), "logo.png")
	require.NoError(t, err)

	assert.NotEqual(t, firstPath, *second.LogoPath)
	assert.Equal(t, []string{*second.LogoPath}, store.Paths())
}

func TestLogoService_UploadFailureKeepsWorkspace(t *testing.T) {
	svc, store, workspaceRepo := setupLogoService()
	store.UploadErr = errors.New("bucket unavailable")

	_, err := svc.UploadLogo(context.Background(), testWorkspaceID, testPNG(t, 400, 100), "logo.png")
	assert.Error(t, err)
	assert.Nil(t, workspaceRepo.Workspaces[testWorkspaceID].LogoPath)

	_, err = svc.UploadLogo(context.Background(), 42, testPNG(t, 400, 100), "logo.png")
	assert.Error(t, err)
}

func TestLogoService_DeleteLogo(t *testing.T) {
	svc, store, _ := setupLogoService()
	ctx := context.Background()

	ws, err := svc.DeleteLogo(ctx, testWorkspaceID)
	require.NoError(t, err)
	assert.Nil(t, ws.LogoPath)

	_, err = svc.UploadLogo(ctx, testWorkspaceID, testPNG(t, 400, 100), "logo.png")
	require.NoError(t, err)

	// a failing delete is only logged
	store.DeleteErr = errors.New("transient")
	ws, err = svc.DeleteLogo(ctx, testWorkspaceID)
	require.NoError(t, err)
	assert.Nil(t, ws.LogoPath)
}

func TestLogoService_LogoURL(t *testing.T) {
	svc, _, _ := setupLogoService()
	ctx := context.Background()

	url, err := svc.LogoURL(ctx, &domain.Workspace{ID: testWorkspaceID})
	require.NoError(t, err)
	assert.Empty(t, url)

	path := "1/logo/abc.jpg"
	url, err = svc.LogoURL(ctx, &domain.Workspace{ID: testWorkspaceID, LogoPath: &path})
	require.NoError(t, err)
	assert.Equal(t, "https://storage.test/1/logo/abc.jpg?expires=15m0s", url)
}

func TestLogoService_Disabled(t *testing.T) {
	svc := NewLogoService(nil, nil)

	assert.False(t, svc.IsEnabled())
	_, err := svc.UploadLogo(context.Background(), testWorkspaceID, nil, "logo.png")
	assert.ErrorIs(t, err, ErrLogoStoreNotEnabled)
	_, err = svc.DeleteLogo(context.Background(), testWorkspaceID)
	assert.ErrorIs(t, err, ErrLogoStoreNotEnabled)
}
