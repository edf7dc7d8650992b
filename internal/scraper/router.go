package scraper

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new chi router with all crawl endpoints.
// mediaDir, when non-empty, is served under /media/ so cached creatives
// are reachable at the paths stored on the records.
func NewRouter(handler *Handler, mediaDir string) http.Handler {
	r := chi.NewRouter()

	// middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// basic cors
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS", "DELETE", "PUT"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// health check
	r.Get("/health", handler.Health)

	// api v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// crawl endpoints
		r.Post("/scrape/ads", handler.StartCrawl)
		r.Delete("/scrape/current", handler.StopCrawl)
		r.Get("/scrape/status", handler.Status)

		// ads endpoints
		r.Get("/ads", handler.ListAds)
		r.Get("/ads/stats", handler.AdsStats)
	})

	// cached creatives
	if mediaDir != "" {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir)))
		r.Get("/media/*", fs.ServeHTTP)
	}

	return r
}
