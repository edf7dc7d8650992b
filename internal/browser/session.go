// Package browser owns one headless-browser instance and one page.
// A Session is exclusively held by a single crawl run and must be closed
// on every exit path to avoid leaking OS-level browser processes.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/vigiads/vigia/internal/logger"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptLanguage   = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"

	navigateTimeout = 45 * time.Second
	evalTimeout     = 15 * time.Second
)

// masks the automation fingerprints the source site checks for
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => false });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['pt-BR', 'pt', 'en-US', 'en'] });
window.chrome = { runtime: {} };
`

// Options configures a browser session.
type Options struct {
	Headless      bool
	BrowserPath   string
	ScreenshotDir string
	Debug         bool
}

// Session wraps one chromedp allocator and one tab.
type Session struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc

	opts Options
	log  *logger.Logger
}

// NewSession launches a browser and opens one page. The caller owns the
// session for the duration of one crawl run and must call Close.
func NewSession(ctx context.Context, opts Options, log *logger.Logger) (*Session, error) {
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(defaultUserAgent),
	)
	if opts.BrowserPath != "" {
		flags = append(flags, chromedp.ExecPath(opts.BrowserPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, flags...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		opts:        opts,
		log:         log,
	}

	// start the browser and install the stealth script before any navigation
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": acceptLanguage,
			"DNT":             "1",
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	log.Info().Bool("headless", opts.Headless).Msg("browser session started")
	return s, nil
}

// Close releases the page and the browser process. Safe to call twice.
func (s *Session) Close() {
	if s.tabCancel != nil {
		s.tabCancel()
		s.tabCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
}

// run executes actions on the tab with a bounded deadline, honoring an
// upstream cancellation.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(opCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Navigate loads a URL and waits for the load signal.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, navigateTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Location returns the page's current URL, after any redirects.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, evalTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return url, nil
}

// Evaluate runs a script against the current page and decodes the result.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// ScrollBy scrolls the viewport forward by a multiple of its height.
func (s *Session) ScrollBy(ctx context.Context, viewports float64) error {
	script := fmt.Sprintf("window.scrollBy(0, window.innerHeight * %g); true", viewports)
	var ok bool
	return s.Evaluate(ctx, script, &ok)
}

// CookieHeader returns the page's cookies as a single Cookie header value,
// for authenticated media fetches outside the browser.
func (s *Session) CookieHeader(ctx context.Context) (string, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, evalTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("read cookies: %w", err)
	}

	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

// UserAgent returns the agent string the page is presenting.
func (s *Session) UserAgent(ctx context.Context) (string, error) {
	var ua string
	if err := s.Evaluate(ctx, "navigator.userAgent", &ua); err != nil {
		return "", err
	}
	return ua, nil
}

// Screenshot captures the page for post-mortem diagnosis. Only active in
// debug mode; failures are logged, never fatal.
func (s *Session) Screenshot(ctx context.Context, name string) {
	if !s.opts.Debug || s.opts.ScreenshotDir == "" {
		return
	}

	var buf []byte
	if err := s.run(ctx, evalTimeout, chromedp.FullScreenshot(&buf, 80)); err != nil {
		s.log.Warn().Err(err).Str("name", name).Msg("screenshot capture failed")
		return
	}

	if err := os.MkdirAll(s.opts.ScreenshotDir, 0755); err != nil {
		s.log.Warn().Err(err).Msg("screenshot dir create failed")
		return
	}

	filename := fmt.Sprintf("%s_%d.png", name, time.Now().UnixMilli())
	path := filepath.Join(s.opts.ScreenshotDir, filename)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		s.log.Warn().Err(err).Msg("screenshot write failed")
		return
	}

	s.log.Debug().Str("file", filename).Msg("screenshot saved")
}
