package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePNG(t *testing.T, width, height int) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
}

func TestThumbnailDownscalesLongEdge(t *testing.T) {
	srv := servePNG(t, 800, 400)
	defer srv.Close()

	svc := NewHTTPImageService(0, 0)
	data, err := svc.Thumbnail(context.Background(), srv.URL, 200)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestThumbnailDoesNotUpscale(t *testing.T) {
	srv := servePNG(t, 64, 48)
	defer srv.Close()

	svc := NewHTTPImageService(0, 0)
	data, err := svc.Thumbnail(context.Background(), srv.URL, 320)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestThumbnailRejectsNonImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	svc := NewHTTPImageService(0, 0)
	_, err := svc.Thumbnail(context.Background(), srv.URL, 200)
	assert.Error(t, err)
}

func TestThumbnailRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	svc := NewHTTPImageService(0, 0)
	_, err := svc.Thumbnail(context.Background(), srv.URL, 200)
	assert.Error(t, err)
}
