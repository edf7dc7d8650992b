package scraper

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vigiads/vigia/internal/models"
	"github.com/vigiads/vigia/internal/repository"
)

// Handler handles HTTP requests for the crawl service
type Handler struct {
	manager *RunManager
	ads     *repository.AdsRepository
}

// NewHandler creates a new handler with the given manager
func NewHandler(manager *RunManager, ads *repository.AdsRepository) *Handler {
	return &Handler{
		manager: manager,
		ads:     ads,
	}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// CrawlResponse represents response to a crawl request
type CrawlResponse struct {
	RunID     string     `json:"run_id"`
	Status    string     `json:"status"` // "running" | "completed" | "failed"
	Request   RunRequest `json:"request"`
	StartedAt time.Time  `json:"started_at"`
}

// StartCrawl handles POST /api/v1/scrape/ads
func (h *Handler) StartCrawl(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	// validate request
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// start crawling
	job, err := h.manager.Start(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, CrawlResponse{
		RunID:     job.ID.String(),
		Status:    "running",
		Request:   job.Request,
		StartedAt: job.StartedAt,
	})
}

// StopCrawl handles DELETE /api/v1/scrape/current
func (h *Handler) StopCrawl(w http.ResponseWriter, r *http.Request) {
	h.manager.Stop()
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "crawl run stopped",
	})
}

// Status handles GET /api/v1/scrape/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	current := h.manager.Current()
	if current == nil {
		resp := map[string]interface{}{
			"status": "idle",
		}
		if last := h.manager.LastResult(); last != nil {
			resp["last_run"] = last
		}
		respondJSON(w, http.StatusOK, resp)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "running",
		"run_id":     current.ID.String(),
		"started_at": current.StartedAt.Format(time.RFC3339),
		"keyword":    current.Request.Keyword,
		"country":    current.Request.Country,
	})
}

// ListAds handles GET /api/v1/ads
func (h *Handler) ListAds(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	ads, err := h.ads.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	total, err := h.ads.Count(r.Context(), countFilter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ads":   ads,
		"total": total,
	})
}

// AdsStats handles GET /api/v1/ads/stats
func (h *Handler) AdsStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ads.Stats(r.Context(), filterFromQuery(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func filterFromQuery(r *http.Request) repository.AdsFilter {
	q := r.URL.Query()
	filter := repository.AdsFilter{
		Keyword:    q.Get("keyword"),
		Country:    q.Get("country"),
		Status:     models.AdStatus(q.Get("status")),
		MediaType:  models.MediaType(q.Get("media_type")),
		Advertiser: q.Get("advertiser"),
		Limit:      50,
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 500 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}

// helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
