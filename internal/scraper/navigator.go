// Package scraper orchestrates crawl runs against the public ad library.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vigiads/vigia/internal/extract"
	"github.com/vigiads/vigia/internal/logger"
)

// navigation errors
var (
	// ErrBlocked means the site redirected to a login or checkpoint page.
	// The session is burned; retrying it would only raise suspicion.
	ErrBlocked = errors.New("session blocked by login or checkpoint redirect")

	// ErrPageNotReady means the results page never rendered real content.
	ErrPageNotReady = errors.New("results page did not become ready")
)

const (
	adLibraryBase = "https://www.facebook.com/ads/library/"

	maxNavAttempts    = 5
	navBackoffBase    = 3000 * time.Millisecond
	navBackoffPerTry  = 2000 * time.Millisecond
	readinessAttempts = 10
	readinessInterval = 2 * time.Second
)

// Page is the browser surface a crawl run drives.
// *browser.Session satisfies it.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	PageReady(ctx context.Context) (bool, error)
	DismissConsent(ctx context.Context) bool
	ScrollBy(ctx context.Context, viewports float64) error
	SnapshotCards(ctx context.Context) ([]extract.CardSnapshot, error)
	CookieHeader(ctx context.Context) (string, error)
	UserAgent(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, name string)
}

// BuildSearchURL assembles the ad library search URL for a request.
// The keyword is quoted so the site treats it as an exact phrase.
func BuildSearchURL(req RunRequest) string {
	params := url.Values{}
	params.Set("active_status", req.ActiveStatusOrDefault())
	params.Set("ad_type", "all")
	params.Set("country", req.Country)
	params.Set("q", `"`+strings.TrimSpace(req.Keyword)+`"`)
	params.Set("search_type", "keyword_exact_phrase")
	params.Set("media_type", req.MediaTypeOrDefault())
	if req.StartDateMin != "" {
		params.Set("start_date[min]", req.StartDateMin)
	}
	if req.StartDateMax != "" {
		params.Set("start_date[max]", req.StartDateMax)
	}
	for i, lang := range req.Languages {
		params.Set(fmt.Sprintf("content_languages[%d]", i), lang)
	}
	for i, platform := range req.Platforms {
		params.Set(fmt.Sprintf("publisher_platforms[%d]", i), platform)
	}
	return adLibraryBase + "?" + params.Encode()
}

// Navigator brings the page to a ready results view, tolerating the slow
// and flaky first render the site is known for.
type Navigator struct {
	page Page
	log  *logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewNavigator creates a navigator over one page.
func NewNavigator(page Page, log *logger.Logger) *Navigator {
	return &Navigator{
		page:  page,
		log:   log.Component("navigator"),
		sleep: sleepCtx,
	}
}

// Open navigates to the URL and waits until results render. Transient
// failures are retried with a growing backoff; a login or checkpoint
// redirect aborts immediately with ErrBlocked.
func (n *Navigator) Open(ctx context.Context, target string) error {
	var lastErr error

	for attempt := 1; attempt <= maxNavAttempts; attempt++ {
		if attempt > 1 {
			backoff := navBackoffBase + time.Duration(attempt)*navBackoffPerTry
			n.log.Info().Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying navigation")
			if err := n.sleep(ctx, backoff); err != nil {
				return err
			}
		}

		if err := n.page.Navigate(ctx, target); err != nil {
			lastErr = err
			n.log.Warn().Err(err).Int("attempt", attempt).Msg("navigation failed")
			continue
		}

		// one capture per landed attempt, whatever the outcome
		n.page.Screenshot(ctx, fmt.Sprintf("attempt_%d", attempt))

		if err := n.checkBlocked(ctx); err != nil {
			n.page.Screenshot(ctx, "blocked")
			return err
		}

		n.page.DismissConsent(ctx)

		ready, err := n.waitReady(ctx)
		if err != nil {
			return err
		}
		if ready {
			n.log.Info().Int("attempt", attempt).Msg("results page ready")
			return nil
		}

		lastErr = ErrPageNotReady
	}

	return fmt.Errorf("open results page after %d attempts: %w", maxNavAttempts, lastErr)
}

// checkBlocked inspects the landed URL for login or checkpoint redirects.
func (n *Navigator) checkBlocked(ctx context.Context) error {
	loc, err := n.page.Location(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(loc, "/login") || strings.Contains(loc, "/checkpoint") {
		n.log.Error().Str("url", loc).Msg("redirected away from ad library")
		return ErrBlocked
	}
	return nil
}

// waitReady polls the page until content renders or the poll budget runs out.
func (n *Navigator) waitReady(ctx context.Context) (bool, error) {
	for i := 0; i < readinessAttempts; i++ {
		ready, err := n.page.PageReady(ctx)
		if err != nil {
			n.log.Debug().Err(err).Msg("readiness probe failed")
		} else if ready {
			return true, nil
		}
		if err := n.sleep(ctx, readinessInterval); err != nil {
			return false, err
		}
	}
	return false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
