package main

import (
	"context"
	"fmt"
	"net/http"
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
	"github.com/vigiads/vigia/internal/nats"
	"github.com/vigiads/vigia/internal/publisher"
	"github.com/vigiads/vigia/internal/repository"
	"github.com/vigiads/vigia/internal/scraper"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log.Info().Msg("starting vigia ads crawler service")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// 5. Connect to NATS (optional)
	var pub scraper.EventPublisher
	if cfg.NatsURL != "" {
		nc, err := nats.New(cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
		} else {
			defer nc.Close()
			if err := nc.EnsureStream(ctx, "VIGIA", []string{"ads.>", "runs.>"}); err != nil {
				log.Warn().Err(err).Msg("failed to ensure stream")
			}
			pub = publisher.NewNATSPublisher(nc.Conn)
		}
	}

	// 6. Initialize media cache
	cache, err := media.NewCache(cfg.MediaDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create media cache")
	}

	// 7. Initialize repositories and parser
	adsRepo := repository.NewAdsRepository(db.GORM)
	parser := extract.NewParser(extract.MustLoadLocales())

	// 8. Initialize crawl service and manager
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
		parser,
		adsRepo,
		cache,
		pub,
		scraper.Defaults{
			Country:    cfg.DefaultCountry,
			MaxAds:     cfg.DefaultMaxAds,
			RunTimeout: time.Duration(cfg.RunTimeoutMinutes) * time.Minute,
		},
		log,
	)
	manager := scraper.NewRunManager(svc)
	handler := scraper.NewHandler(manager, adsRepo)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: scraper.NewRouter(handler, cfg.MediaDir),
	}

	log.Info().Int("port", cfg.HTTPPort).Msg("starting http server")
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// 10. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down...")

	manager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
}
