package assetcache

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"wikifeed/internal/transport"
)

const (
	DefaultMaxDimension = 800
	DefaultDensity      = 1.0

	rateLimitAttempts = 3
	jpegQuality       = 80
)

// Loader fetches, downsamples and caches binary assets on demand.
// It never surfaces an error into the feed pipeline: any fetch or
// decode failure yields an absent result, and an asset-less item is
// still a valid item.
type Loader struct {
	cache        *Cache
	fetcher      transport.Fetcher
	maxDimension int

	// sleep is swappable so tests don't wait out real backoff delays
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewLoader creates a loader over the given cache and transport.
// maxDimension bounds the longest decoded edge, pre-scaled by the
// display density; non-positive values fall back to the defaults.
func NewLoader(cache *Cache, fetcher transport.Fetcher, maxDimension int, density float64) *Loader {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if density <= 0 {
		density = DefaultDensity
	}
	return &Loader{
		cache:        cache,
		fetcher:      fetcher,
		maxDimension: int(float64(maxDimension) * density),
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Cache returns the underlying cost-weighted cache
func (l *Loader) Cache() *Cache {
	return l.cache
}

// FetchAndCache returns the asset for key, fetching and populating the
// cache on a miss. Rate-limited fetches are retried in place with
// bounded exponential backoff (2^n seconds); this narrow component-
// local retry stays separate from the general retry executor because
// the payload must also be downsampled before caching.
func (l *Loader) FetchAndCache(ctx context.Context, key, url string) ([]byte, bool) {
	if data, ok := l.cache.Get(key); ok {
		return data, true
	}
	if url == "" {
		return nil, false
	}

	var body []byte
	var status int
	var err error

	for attempt := 1; attempt <= rateLimitAttempts; attempt++ {
		body, status, err = l.fetcher.FetchBytes(ctx, url)
		if err != nil {
			log.Printf("Asset fetch failed for %s: %v", url, err)
			return nil, false
		}
		if status != http.StatusTooManyRequests {
			break
		}
		if attempt == rateLimitAttempts {
			log.Printf("Asset fetch rate limited after %d attempts: %s", attempt, url)
			return nil, false
		}
		wait := time.Duration(1<<attempt) * time.Second
		log.Printf("Asset fetch rate limited, backing off %v: %s", wait, url)
		if !l.sleep(ctx, wait) {
			return nil, false
		}
	}

	if status < 200 || status >= 300 {
		log.Printf("Asset fetch returned status %d: %s", status, url)
		return nil, false
	}

	data, cost, err := l.downsample(body)
	if err != nil {
		log.Printf("Asset decode failed for %s: %v", url, err)
		return nil, false
	}

	l.cache.Put(key, data, cost)
	return data, true
}

// downsample decodes, scales the image down to the bounded maximum
// dimension (never up) and re-encodes as JPEG. The returned cost is
// the decoded pixel estimate (w*h*4), which tracks the memory the
// asset actually holds once displayed.
func (l *Loader) downsample(raw []byte) ([]byte, int64, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > l.maxDimension || height > l.maxDimension {
		scale := float64(l.maxDimension) / float64(width)
		if height > width {
			scale = float64(l.maxDimension) / float64(height)
		}
		newWidth := int(float64(width) * scale)
		newHeight := int(float64(height) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		width = newWidth
		height = newHeight
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, err
	}

	cost := int64(width) * int64(height) * 4
	return buf.Bytes(), cost, nil
}
