// Package media mirrors ad creatives into a local content-addressable cache.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vigiads/vigia/internal/logger"
	"github.com/vigiads/vigia/internal/models"
)

const (
	// downloads smaller than these are tracking pixels or truncated
	// responses, never real creatives
	minImageBytes = 10_000
	minVideoBytes = 50_000

	imageTimeout = 45 * time.Second
	videoTimeout = 120 * time.Second

	refererURL = "https://www.facebook.com/"

	// paced so media fetches do not look like a burst to the CDN
	downloadsPerSecond = 2
)

// ErrTooSmall means the fetched file was below the minimum size for its
// media type and was discarded.
var ErrTooSmall = errors.New("downloaded media below minimum size")

// ErrAlreadyFailed means this media already failed once in the current
// process; it is not retried within a run.
var ErrAlreadyFailed = errors.New("media download already failed this run")

// Credentials carry the browser's session into plain HTTP fetches, so the
// CDN serves the same bytes it served the page.
type Credentials struct {
	CookieHeader string
	UserAgent    string
}

// Cache downloads creatives into a directory keyed by ad identity and
// source URL. A creative already on disk is never fetched again.
type Cache struct {
	dir     string
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger

	mu     sync.Mutex
	failed map[string]struct{}
}

// NewCache creates the cache directory if needed.
func NewCache(dir string, log *logger.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Cache{
		dir:     dir,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(downloadsPerSecond), 1),
		log:     log.Component("media"),
		failed:  make(map[string]struct{}),
	}, nil
}

// Key derives the cache key for one creative. The same ad re-rendered with
// a different CDN token yields a different key; the same identity and URL
// always yield the same one.
func Key(identity, rawURL string) string {
	sum := sha256.Sum256([]byte(identity + "|" + rawURL))
	return hex.EncodeToString(sum[:])[:16]
}

// Store fetches one creative and describes the cached copy. The asset's
// LocalPath has the form /media/ad_<key>.<ext>. A cache hit returns
// immediately without touching the network.
func (c *Cache) Store(ctx context.Context, identity, rawURL string, kind models.MediaType, creds Credentials) (*models.MediaAsset, error) {
	key := Key(identity, rawURL)

	if existing, size := c.lookup(key, minBytesFor(kind)); existing != "" {
		return c.asset(key, rawURL, existing, kind, size), nil
	}

	c.mu.Lock()
	_, failed := c.failed[key]
	c.mu.Unlock()
	if failed {
		return nil, ErrAlreadyFailed
	}

	filename, size, err := c.download(ctx, key, rawURL, kind, creds)
	if err != nil {
		c.mu.Lock()
		c.failed[key] = struct{}{}
		c.mu.Unlock()
		return nil, err
	}

	return c.asset(key, rawURL, filename, kind, size), nil
}

func (c *Cache) asset(key, rawURL, filename string, kind models.MediaType, size int64) *models.MediaAsset {
	return &models.MediaAsset{
		CacheKey:  key,
		OriginURL: rawURL,
		LocalPath: "/media/" + filename,
		Kind:      string(kind),
		SizeBytes: size,
	}
}

// lookup finds a cached file for the key regardless of extension. A file
// below the minimum size is a leftover from an interrupted earlier process
// and is evicted so this run refetches it.
func (c *Cache) lookup(key string, minBytes int) (string, int64) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "ad_"+key+".*"))
	if err != nil || len(matches) == 0 {
		return "", 0
	}

	info, err := os.Stat(matches[0])
	if err != nil || info.Size() < int64(minBytes) {
		os.Remove(matches[0])
		return "", 0
	}
	return filepath.Base(matches[0]), info.Size()
}

func minBytesFor(kind models.MediaType) int {
	if kind == models.MediaTypeVideo {
		return minVideoBytes
	}
	return minImageBytes
}

func (c *Cache) download(ctx context.Context, key, rawURL string, kind models.MediaType, creds Credentials) (string, int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", 0, err
	}

	timeout := imageTimeout
	if kind == models.MediaTypeVideo {
		timeout = videoTimeout
	}
	minBytes := minBytesFor(kind)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build media request: %w", err)
	}
	if creds.CookieHeader != "" {
		req.Header.Set("Cookie", creds.CookieHeader)
	}
	if creds.UserAgent != "" {
		req.Header.Set("User-Agent", creds.UserAgent)
	}
	req.Header.Set("Referer", refererURL)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("fetch media: status %d", resp.StatusCode)
	}

	filename := "ad_" + key + extensionFor(rawURL, resp.Header.Get("Content-Type"), kind)
	final := filepath.Join(c.dir, filename)

	// write to a temp file first so a partial download never becomes
	// visible under the final name
	tmp, err := os.CreateTemp(c.dir, "dl_*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("write media: %w", err)
	}

	if written < int64(minBytes) {
		c.log.Debug().Str("url", rawURL).Int64("bytes", written).Msg("discarding undersized media")
		return "", 0, fmt.Errorf("%w: %d bytes", ErrTooSmall, written)
	}

	if err := os.Rename(tmpName, final); err != nil {
		return "", 0, fmt.Errorf("finalize media file: %w", err)
	}

	c.log.Debug().Str("file", filename).Int64("bytes", written).Msg("media cached")
	return filename, written, nil
}

// extensionFor picks a file extension from the URL path, then the response
// content type, then a default for the media kind.
func extensionFor(rawURL, contentType string, kind models.MediaType) string {
	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp4", ".webm":
			return ext
		}
	}

	switch {
	case strings.Contains(contentType, "image/png"):
		return ".png"
	case strings.Contains(contentType, "image/gif"):
		return ".gif"
	case strings.Contains(contentType, "image/webp"):
		return ".webp"
	case strings.Contains(contentType, "image/"):
		return ".jpg"
	case strings.Contains(contentType, "video/webm"):
		return ".webm"
	case strings.Contains(contentType, "video/"):
		return ".mp4"
	}

	if kind == models.MediaTypeVideo {
		return ".mp4"
	}
	return ".jpg"
}
