// Package artwork downloads and resizes item artwork for the
// notification renderer.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10 MB
	fetchTimeout = 10 * time.Second
	userAgent    = "chime/1.0"

	// IconSize is the square edge length of rendered artwork.
	IconSize = 144
)

// Fetcher downloads artwork over HTTP and scales it to IconSize.
type Fetcher struct {
	log    *zap.Logger
	client *http.Client
}

// NewFetcher creates a fetcher with a bounded request timeout so a
// stalled server never blocks the notification loop.
func NewFetcher(log *zap.Logger) *Fetcher {
	return &Fetcher{
		log:    log,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch downloads url, decodes it and returns the thumbnail image.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	data, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return resize.Thumbnail(IconSize, IconSize, img, resize.Lanczos3), nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("url is not an image: %s", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	f.log.Debug("artwork fetched", zap.Int("bytes", len(data)), zap.String("url", url))
	return data, nil
}
