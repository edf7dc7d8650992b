package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vigiads/vigia/internal/logger"
	"github.com/vigiads/vigia/internal/models"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(t.TempDir(), logger.Nop())
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	return c
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("123456789", "https://scontent.example.com/img.jpg")
	b := Key("123456789", "https://scontent.example.com/img.jpg")
	if a != b {
		t.Errorf("Key() not deterministic: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("Key() length = %d, want 16", len(a))
	}

	c := Key("123456789", "https://scontent.example.com/img.jpg?token=other")
	if a == c {
		t.Error("different URLs produced the same key")
	}
	d := Key("987654321", "https://scontent.example.com/img.jpg")
	if a == d {
		t.Error("different identities produced the same key")
	}
}

func TestStore_DownloadsAndCaches(t *testing.T) {
	body := strings.Repeat("x", minImageBytes+1)
	var hits int
	var gotCookie, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		gotCookie = r.Header.Get("Cookie")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := newTestCache(t)
	creds := Credentials{CookieHeader: "c_user=1; xs=abc", UserAgent: "test-agent"}

	got, err := c.Store(context.Background(), "ad1", srv.URL+"/img.jpg", models.MediaTypeImage, creds)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	wantKey := Key("ad1", srv.URL+"/img.jpg")
	if want := "/media/ad_" + wantKey + ".jpg"; got.LocalPath != want {
		t.Errorf("Store() path = %q, want %q", got.LocalPath, want)
	}
	if got.CacheKey != wantKey {
		t.Errorf("Store() cache key = %q, want %q", got.CacheKey, wantKey)
	}
	if got.SizeBytes != int64(len(body)) {
		t.Errorf("Store() size = %d, want %d", got.SizeBytes, len(body))
	}
	if got.Kind != string(models.MediaTypeImage) {
		t.Errorf("Store() kind = %q", got.Kind)
	}
	if gotCookie != "c_user=1; xs=abc" {
		t.Errorf("Cookie header = %q", gotCookie)
	}
	if gotReferer != refererURL {
		t.Errorf("Referer = %q, want %q", gotReferer, refererURL)
	}

	data, err := os.ReadFile(filepath.Join(c.dir, "ad_"+wantKey+".jpg"))
	if err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if len(data) != len(body) {
		t.Errorf("cached %d bytes, want %d", len(data), len(body))
	}

	// second call is a cache hit and must not reach the server
	if _, err := c.Store(context.Background(), "ad1", srv.URL+"/img.jpg", models.MediaTypeImage, creds); err != nil {
		t.Fatalf("Store() second call error = %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestStore_RejectsUndersized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	c := newTestCache(t)
	_, err := c.Store(context.Background(), "ad2", srv.URL+"/pixel.gif", models.MediaTypeImage, Credentials{})
	if !errors.Is(err, ErrTooSmall) {
		t.Fatalf("Store() error = %v, want ErrTooSmall", err)
	}

	// nothing should be left on disk
	matches, _ := filepath.Glob(filepath.Join(c.dir, "ad_*"))
	if len(matches) != 0 {
		t.Errorf("found leftover files: %v", matches)
	}
}

func TestStore_NoRetryAfterFailure(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestCache(t)
	url := srv.URL + "/blocked.jpg"

	if _, err := c.Store(context.Background(), "ad3", url, models.MediaTypeImage, Credentials{}); err == nil {
		t.Fatal("Store() expected error on 403")
	}
	_, err := c.Store(context.Background(), "ad3", url, models.MediaTypeImage, Credentials{})
	if !errors.Is(err, ErrAlreadyFailed) {
		t.Fatalf("Store() error = %v, want ErrAlreadyFailed", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestStore_EvictsUndersizedCachedFile(t *testing.T) {
	body := strings.Repeat("x", minImageBytes+1)
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := newTestCache(t)
	url := srv.URL + "/img.jpg"
	key := Key("ad5", url)

	// a truncated leftover from an interrupted earlier process
	stale := filepath.Join(c.dir, "ad_"+key+".jpg")
	if err := os.WriteFile(stale, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := c.Store(context.Background(), "ad5", url, models.MediaTypeImage, Credentials{})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (stale hit must refetch)", hits)
	}
	data, err := os.ReadFile(filepath.Join(c.dir, filepath.Base(got.LocalPath)))
	if err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if len(data) != len(body) {
		t.Errorf("cached %d bytes, want %d", len(data), len(body))
	}
}

func TestStore_VideoMinimumIsHigher(t *testing.T) {
	body := strings.Repeat("v", minImageBytes+1) // enough for an image, not a video
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := newTestCache(t)
	_, err := c.Store(context.Background(), "ad4", srv.URL+"/clip", models.MediaTypeVideo, Credentials{})
	if !errors.Is(err, ErrTooSmall) {
		t.Fatalf("Store() error = %v, want ErrTooSmall", err)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		kind        models.MediaType
		want        string
	}{
		{"https://scontent.example.com/a.png?x=1", "", models.MediaTypeImage, ".png"},
		{"https://scontent.example.com/a", "image/webp", models.MediaTypeImage, ".webp"},
		{"https://scontent.example.com/a", "video/mp4", models.MediaTypeVideo, ".mp4"},
		{"https://scontent.example.com/a", "", models.MediaTypeVideo, ".mp4"},
		{"https://scontent.example.com/a", "", models.MediaTypeImage, ".jpg"},
		{"https://scontent.example.com/a.exe", "", models.MediaTypeImage, ".jpg"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.url, tt.contentType, tt.kind); got != tt.want {
			t.Errorf("extensionFor(%q, %q) = %q, want %q", tt.url, tt.contentType, got, tt.want)
		}
	}
}
