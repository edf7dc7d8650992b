package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vigiads/vigia/internal/logger"
)

func TestBuildSearchURL(t *testing.T) {
	req := RunRequest{Keyword: "emagrecimento verde", Country: "BR"}
	got := BuildSearchURL(req)

	for _, want := range []string{
		"https://www.facebook.com/ads/library/?",
		"q=%22emagrecimento+verde%22", // exact phrase, quoted
		"search_type=keyword_exact_phrase",
		"country=BR",
		"active_status=active",
		"ad_type=all",
		"media_type=all",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildSearchURL() = %q, missing %q", got, want)
		}
	}
}

func TestBuildSearchURL_Filters(t *testing.T) {
	req := RunRequest{Keyword: "x", Country: "US", ActiveStatus: "all", MediaType: "video"}
	got := BuildSearchURL(req)

	if !strings.Contains(got, "active_status=all") {
		t.Errorf("BuildSearchURL() = %q, missing active_status=all", got)
	}
	if !strings.Contains(got, "media_type=video") {
		t.Errorf("BuildSearchURL() = %q, missing media_type=video", got)
	}
}

func TestBuildSearchURL_DateWindow(t *testing.T) {
	req := RunRequest{Keyword: "x", Country: "BR", StartDateMin: "2025-01-01", StartDateMax: "2025-06-30"}
	got := BuildSearchURL(req)

	if !strings.Contains(got, "start_date%5Bmin%5D=2025-01-01") {
		t.Errorf("BuildSearchURL() = %q, missing start_date[min]", got)
	}
	if !strings.Contains(got, "start_date%5Bmax%5D=2025-06-30") {
		t.Errorf("BuildSearchURL() = %q, missing start_date[max]", got)
	}

	// window params are absent when not requested
	if bare := BuildSearchURL(RunRequest{Keyword: "x", Country: "BR"}); strings.Contains(bare, "start_date") {
		t.Errorf("BuildSearchURL() = %q, unexpected start_date", bare)
	}
}

func TestBuildSearchURL_LanguagesAndPlatforms(t *testing.T) {
	req := RunRequest{
		Keyword:   "x",
		Country:   "BR",
		Languages: []string{"pt", "en"},
		Platforms: []string{"facebook", "instagram"},
	}
	got := BuildSearchURL(req)

	for _, want := range []string{
		"content_languages%5B0%5D=pt",
		"content_languages%5B1%5D=en",
		"publisher_platforms%5B0%5D=facebook",
		"publisher_platforms%5B1%5D=instagram",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildSearchURL() = %q, missing %q", got, want)
		}
	}
}

func newTestNavigator(page Page) *Navigator {
	nav := NewNavigator(page, logger.Nop())
	nav.sleep = noSleep
	return nav
}

func TestNavigator_OpenSucceeds(t *testing.T) {
	page := &fakePage{}
	nav := newTestNavigator(page)

	if err := nav.Open(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if page.navCalls != 1 {
		t.Errorf("navCalls = %d, want 1", page.navCalls)
	}
}

func TestNavigator_BlockedIsFatal(t *testing.T) {
	page := &fakePage{location: "https://www.facebook.com/login/?next=%2Fads%2Flibrary"}
	nav := newTestNavigator(page)

	err := nav.Open(context.Background(), "https://example.com")
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("Open() error = %v, want ErrBlocked", err)
	}
	// no retries once the session is burned
	if page.navCalls != 1 {
		t.Errorf("navCalls = %d, want 1", page.navCalls)
	}
}

func TestNavigator_CheckpointIsFatal(t *testing.T) {
	page := &fakePage{location: "https://www.facebook.com/checkpoint/block"}
	nav := newTestNavigator(page)

	if err := nav.Open(context.Background(), "https://example.com"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("Open() error = %v, want ErrBlocked", err)
	}
}

func TestNavigator_RetriesTransientFailures(t *testing.T) {
	page := &fakePage{
		navErrs: []error{errors.New("net::ERR_TIMED_OUT"), errors.New("net::ERR_TIMED_OUT")},
	}
	nav := newTestNavigator(page)

	if err := nav.Open(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if page.navCalls != 3 {
		t.Errorf("navCalls = %d, want 3", page.navCalls)
	}
}

func TestNavigator_GivesUpAfterMaxAttempts(t *testing.T) {
	page := &fakePage{readyAfter: 1 << 30} // never ready
	nav := newTestNavigator(page)

	err := nav.Open(context.Background(), "https://example.com")
	if !errors.Is(err, ErrPageNotReady) {
		t.Fatalf("Open() error = %v, want ErrPageNotReady", err)
	}
	if page.navCalls != maxNavAttempts {
		t.Errorf("navCalls = %d, want %d", page.navCalls, maxNavAttempts)
	}
}

func TestNavigator_ScreenshotOnEveryAttempt(t *testing.T) {
	page := &fakePage{readyAfter: 1 << 30} // never ready
	nav := newTestNavigator(page)

	_ = nav.Open(context.Background(), "https://example.com")
	if page.screenshotCalls != maxNavAttempts {
		t.Errorf("screenshots = %d, want one per attempt (%d)", page.screenshotCalls, maxNavAttempts)
	}

	ok := &fakePage{}
	nav = newTestNavigator(ok)
	if err := nav.Open(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if ok.screenshotCalls != 1 {
		t.Errorf("screenshots = %d, want 1 on a first-attempt success", ok.screenshotCalls)
	}
}

func TestNavigator_ReadinessPollEventuallySucceeds(t *testing.T) {
	page := &fakePage{readyAfter: 3}
	nav := newTestNavigator(page)

	if err := nav.Open(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if page.readyCalls != 4 {
		t.Errorf("readyCalls = %d, want 4", page.readyCalls)
	}
}
