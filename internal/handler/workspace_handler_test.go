package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logoUploadContext(t *testing.T, filename string, data []byte) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, rec := newContext(http.MethodPost, "/api/v1/workspace/logo", "", testWorkspaceID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workspace/logo", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	c.SetRequest(req.WithContext(c.Request().Context()))
	return c, rec
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGetWorkspace(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodGet, "/api/v1/workspace", "", testWorkspaceID)

	require.NoError(t, f.workspace.GetWorkspace(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WorkspaceResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Margem Ltda", resp.Name)
	assert.Equal(t, "10.00", resp.TaxRatePercent)
	assert.False(t, resp.HasLogo)
}

func TestUpdateWorkspace(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := newContext(http.MethodPut, "/api/v1/workspace", `{"taxRatePercent":"15,5"}`, testWorkspaceID)

	require.NoError(t, f.workspace.UpdateWorkspace(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp WorkspaceResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "15.50", resp.TaxRatePercent)
	assert.Equal(t, "Margem Ltda", resp.Name)
}

func TestUpdateWorkspace_InvalidTaxRate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not a number", `{"taxRatePercent":"dez"}`},
		{"above 100", `{"taxRatePercent":"120"}`},
		{"negative", `{"taxRatePercent":"-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(false)
			c, rec := newContext(http.MethodPut, "/api/v1/workspace", tt.body, testWorkspaceID)

			require.NoError(t, f.workspace.UpdateWorkspace(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, "taxRatePercent", problem.Errors[0].Field)
		})
	}
}

func TestUploadLogo_StorageDisabled(t *testing.T) {
	f := newAPIFixture(false)
	c, rec := logoUploadContext(t, "logo.png", pngBytes(t, 128, 64))

	require.NoError(t, f.workspace.UploadLogo(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadLogo_Success(t *testing.T) {
	f := newAPIFixture(true)
	c, rec := logoUploadContext(t, "logo.png", pngBytes(t, 800, 200))

	require.NoError(t, f.workspace.UploadLogo(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp WorkspaceResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.HasLogo)
	assert.NotEmpty(t, resp.LogoURL)
	assert.Len(t, f.store.Paths(), 1)

	del, delRec := newContext(http.MethodDelete, "/api/v1/workspace/logo", "", testWorkspaceID)
	require.NoError(t, f.workspace.DeleteLogo(del))
	assert.Equal(t, http.StatusNoContent, delRec.Code)
	assert.Empty(t, f.store.Paths())
}

func TestUploadLogo_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     func(t *testing.T) []byte
	}{
		{"wrong extension", "logo.gif", func(t *testing.T) []byte { return pngBytes(t, 128, 64) }},
		{"too small", "logo.png", func(t *testing.T) []byte { return pngBytes(t, 20, 20) }},
		{"not an image", "logo.png", func(t *testing.T) []byte { return []byte("not an image") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(true)
			c, rec := logoUploadContext(t, tt.filename, tt.data(t))

			require.NoError(t, f.workspace.UploadLogo(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			problem := decodeProblem(t, rec)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, "file", problem.Errors[0].Field)
			assert.Empty(t, f.store.Paths())
		})
	}
}

func TestUploadLogo_MissingFile(t *testing.T) {
	f := newAPIFixture(true)
	c, rec := newContext(http.MethodPost, "/api/v1/workspace/logo", `{}`, testWorkspaceID)

	require.NoError(t, f.workspace.UploadLogo(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
