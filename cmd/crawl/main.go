// Command crawl runs one crawl from the terminal and prints the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vigiads/vigia/internal/browser"
	"github.com/vigiads/vigia/internal/config"
	"github.com/vigiads/vigia/internal/database"
	"github.com/vigiads/vigia/internal/extract"
	"github.com/vigiads/vigia/internal/logger"
	"github.com/vigiads/vigia/internal/media"
	"github.com/vigiads/vigia/internal/repository"
	"github.com/vigiads/vigia/internal/scraper"
)

func main() {
	keyword := flag.String("keyword", "", "search keyword (exact phrase)")
	country := flag.String("country", "", "two-letter country code")
	maxAds := flag.Int("max", 0, "maximum ads to collect")
	status := flag.String("status", "", "active_status filter: active, inactive or all")
	mediaType := flag.String("media", "", "media_type filter: all, image or video")
	dbURL := flag.String("db", "", "database url (overrides DATABASE_URL)")
	mediaDir := flag.String("media-dir", "", "media cache dir (overrides MEDIA_DIR)")
	headless := flag.Bool("headless", true, "run the browser headless")
	timeout := flag.Duration("timeout", 0, "run timeout (overrides RUN_TIMEOUT_MINUTES)")
	asJSON := flag.Bool("json", false, "print the full result as json")
	flag.Parse()

	req := scraper.RunRequest{
		Keyword:      *keyword,
		Country:      *country,
		MaxAds:       *maxAds,
		ActiveStatus: *status,
		MediaType:    *mediaType,
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}
	if *mediaDir != "" {
		cfg.MediaDir = *mediaDir
	}
	cfg.Headless = *headless
	runTimeout := time.Duration(cfg.RunTimeoutMinutes) * time.Minute
	if *timeout > 0 {
		runTimeout = *timeout
	}

	log, err := logger.New(cfg.LogLevel, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	cache, err := media.NewCache(cfg.MediaDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create media cache")
	}

	browserOpts := browser.Options{
		Headless:      cfg.Headless,
		BrowserPath:   cfg.BrowserPath,
		ScreenshotDir: cfg.ScreenshotDir,
		Debug:         cfg.DebugMode,
	}
	newPage := func(ctx context.Context) (scraper.Page, func(), error) {
		session, err := browser.NewSession(ctx, browserOpts, log)
		if err != nil {
			return nil, nil, err
		}
		return session, session.Close, nil
	}

	svc := scraper.NewService(
		newPage,
		extract.NewParser(extract.MustLoadLocales()),
		repository.NewAdsRepository(db.GORM),
		cache,
		nil, // no event bus in one-shot mode
		scraper.Defaults{
			Country:    cfg.DefaultCountry,
			MaxAds:     cfg.DefaultMaxAds,
			RunTimeout: runTimeout,
		},
		log,
	)

	result, err := svc.Run(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("crawl failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		fmt.Printf("run %s: success=%v collected=%d new=%d errors=%d\n",
			result.RunID, result.Success, result.TotalCollected, result.NewRecords, len(result.Errors))
		for _, e := range result.Errors {
			fmt.Println("  -", e)
		}
	}

	if !result.Success {
		os.Exit(1)
	}
}
