// Package artwork downloads cover images and normalizes them into the
// square JPEGs the catalog links to.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"

	"github.com/dcschmid/check-and-download-cover/internal/shared"
)

const (
	// coverSize is the edge length of a normalized cover image.
	coverSize = 300

	// downloadTimeout bounds a single image download.
	downloadTimeout = 10 * time.Second

	// maxImageBytes caps how much of a response body is read. Bodies
	// that reach the cap are rejected instead of buffered further.
	maxImageBytes = 8 * 1024 * 1024

	// browserUserAgent is sent with every download. Some image hosts
	// refuse requests that do not look like a browser.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
)

// Fetcher downloads cover images and writes normalized copies to disk.
type Fetcher struct {
	client *http.Client
	logger *log.Logger
}

// NewFetcher returns a Fetcher ready for use.
func NewFetcher(logger *log.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{},
		logger: logger,
	}
}

// Materialize downloads imageURL, normalizes it to a square JPEG and
// writes it to dest, creating missing directories on the way.
func (f *Fetcher) Materialize(ctx context.Context, imageURL, dest string) error {
	data, err := f.download(ctx, imageURL)
	if err != nil {
		return err
	}

	normalized, err := normalize(data)
	if err != nil {
		return fmt.Errorf("%w: normalizing %s: %v", shared.ErrDownloadFailed, imageURL, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating cover directory: %w", err)
	}
	if err := os.WriteFile(dest, normalized, 0o644); err != nil {
		return fmt.Errorf("writing cover: %w", err)
	}

	f.logger.Debug("cover written", "path", dest, "bytes", len(normalized))
	return nil
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", shared.ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", shared.ErrDownloadFailed, imageURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", shared.ErrDownloadFailed, err)
	}
	if len(data) == maxImageBytes {
		return nil, fmt.Errorf("%w: %s is over %d bytes", shared.ErrImageTooLarge, imageURL, maxImageBytes)
	}

	return data, nil
}

// normalize decodes data and re-encodes it as a coverSize square JPEG.
// The aspect ratio is not preserved. Transparent source pixels land on
// a white background.
func normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, coverSize, coverSize))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
