package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageService produces display thumbnails for the image-override picker
type ImageService interface {
	Thumbnail(ctx context.Context, imageURL string, maxEdge int) ([]byte, error)
}

// HTTPImageService fetches, decodes and downscales remote product images
type HTTPImageService struct {
	HTTPClient   *http.Client
	MaxBodyBytes int64
}

// NewHTTPImageService creates a new image service
func NewHTTPImageService(timeout time.Duration, maxBodyBytes int64) *HTTPImageService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 << 20
	}
	return &HTTPImageService{
		HTTPClient:   &http.Client{Timeout: timeout},
		MaxBodyBytes: maxBodyBytes,
	}
}

// Thumbnail fetches the image and scales it down so its longest edge is at most
// maxEdge pixels. Output is always PNG. Images already small enough are only
// re-encoded, not upscaled.
func (s *HTTPImageService) Thumbnail(ctx context.Context, imageURL string, maxEdge int) ([]byte, error) {
	if maxEdge <= 0 {
		maxEdge = 320
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch: unexpected status %d", resp.StatusCode)
	}

	src, _, err := image.Decode(io.LimitReader(resp.Body, s.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxEdge || h > maxEdge {
		scale := float64(maxEdge) / float64(w)
		if h > w {
			scale = float64(maxEdge) / float64(h)
		}
		dw := int(float64(w) * scale)
		dh := int(float64(h) * scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("thumbnail encode failed: %w", err)
	}

	return buf.Bytes(), nil
}
