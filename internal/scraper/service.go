package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vigiads/vigia/internal/extract"
	"github.com/vigiads/vigia/internal/logger"
	"github.com/vigiads/vigia/internal/media"
	"github.com/vigiads/vigia/internal/models"
	"github.com/vigiads/vigia/internal/publisher"
	"github.com/vigiads/vigia/internal/repository"
)

// PageFactory opens a fresh browser page for one run. The returned close
// function must always be called, also on error paths after a successful
// open.
type PageFactory func(ctx context.Context) (Page, func(), error)

// MediaStore mirrors creatives into the local cache.
// *media.Cache satisfies it.
type MediaStore interface {
	Store(ctx context.Context, identity, rawURL string, kind models.MediaType, creds media.Credentials) (*models.MediaAsset, error)
}

// EventPublisher publishes crawl events
type EventPublisher interface {
	PublishAdScraped(ctx context.Context, event publisher.AdScrapedEvent) error
	PublishRunCompleted(ctx context.Context, event publisher.RunCompletedEvent) error
}

// Defaults fill unset request fields.
type Defaults struct {
	Country    string
	MaxAds     int
	RunTimeout time.Duration
}

// Service executes crawl runs end to end: open a session, walk the feed,
// mirror creatives, persist and announce what was found.
type Service struct {
	newPage   PageFactory
	parser    *extract.Parser
	ads       *repository.AdsRepository
	store     MediaStore
	publisher EventPublisher
	defaults  Defaults
	log       *logger.Logger
}

// NewService creates a new crawl service. store and publisher may be nil.
func NewService(
	newPage PageFactory,
	parser *extract.Parser,
	ads *repository.AdsRepository,
	store MediaStore,
	pub EventPublisher,
	defaults Defaults,
	log *logger.Logger,
) *Service {
	return &Service{
		newPage:   newPage,
		parser:    parser,
		ads:       ads,
		store:     store,
		publisher: pub,
		defaults:  defaults,
		log:       log.Component("scraper"),
	}
}

// RunResult contains one run's outcome and statistics.
// Success reflects only whether the results page was ever reached;
// per-record failures are reported in Errors without failing the run.
type RunResult struct {
	RunID          string             `json:"run_id"`
	Keyword        string             `json:"keyword"`
	Country        string             `json:"country"`
	Success        bool               `json:"success"`
	TotalCollected int                `json:"total_collected"`
	NewRecords     int                `json:"new_records"`
	Records        []*models.AdRecord `json:"records"`
	Errors         []string           `json:"errors,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

// Run executes one crawl run for the request.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.Country == "" {
		req.Country = s.defaults.Country
	}
	if req.MaxAds <= 0 {
		req.MaxAds = s.defaults.MaxAds
	}
	if s.defaults.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaults.RunTimeout)
		defer cancel()
	}

	result := &RunResult{
		RunID:     uuid.New().String(),
		Keyword:   req.Keyword,
		Country:   req.Country,
		StartedAt: time.Now(),
	}
	defer func() { result.FinishedAt = time.Now() }()

	s.log.Info().
		Str("run_id", result.RunID).
		Str("keyword", req.Keyword).
		Str("country", req.Country).
		Int("max_ads", req.MaxAds).
		Msg("starting crawl run")

	page, closePage, err := s.newPage(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, fmt.Errorf("open browser: %w", err)
	}
	defer closePage()

	nav := NewNavigator(page, s.log)
	if err := nav.Open(ctx, BuildSearchURL(req)); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	// the page rendered; from here on the run counts as successful even
	// when individual records fail
	result.Success = true

	collector := NewCollector(page, s.parser, s.log)
	collected, err := collector.Collect(ctx, CollectOptions{
		MaxAds: req.MaxAds,
		Query: extract.Query{
			Keyword:     req.Keyword,
			Country:     req.Country,
			FiltersJSON: filtersSnapshot(req),
		},
	})
	if err != nil && len(collected.Records) == 0 {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}

	result.Records = collected.Records
	result.TotalCollected = len(collected.Records)

	creds := s.credentials(ctx, page)
	for _, record := range collected.Records {
		s.mirrorMedia(ctx, record, creds)

		created, err := s.ads.Upsert(ctx, record)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persist %s: %v", record.Identity, err))
			s.log.Error().Err(err).Str("identity", record.Identity).Msg("failed to persist ad")
			continue
		}
		if created {
			result.NewRecords++
			s.announceAd(ctx, result.RunID, record)
		}
	}

	s.announceRun(ctx, result)

	s.log.Info().
		Str("run_id", result.RunID).
		Int("total", result.TotalCollected).
		Int("new", result.NewRecords).
		Int("errors", len(result.Errors)).
		Msg("crawl run completed")
	return result, nil
}

// filtersSnapshot records the filters a record was discovered under.
func filtersSnapshot(req RunRequest) string {
	filters := map[string]any{
		"active_status": req.ActiveStatusOrDefault(),
		"media_type":    req.MediaTypeOrDefault(),
	}
	if req.StartDateMin != "" {
		filters["start_date_min"] = req.StartDateMin
	}
	if req.StartDateMax != "" {
		filters["start_date_max"] = req.StartDateMax
	}
	if len(req.Languages) > 0 {
		filters["languages"] = req.Languages
	}
	if len(req.Platforms) > 0 {
		filters["platforms"] = req.Platforms
	}
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return string(data)
}

// credentials reads session cookies and agent once per run, so media
// fetches present the same identity as the page did.
func (s *Service) credentials(ctx context.Context, page Page) media.Credentials {
	if s.store == nil {
		return media.Credentials{}
	}

	creds := media.Credentials{}
	if cookie, err := page.CookieHeader(ctx); err == nil {
		creds.CookieHeader = cookie
	} else {
		s.log.Warn().Err(err).Msg("reading session cookies failed")
	}
	if ua, err := page.UserAgent(ctx); err == nil {
		creds.UserAgent = ua
	}
	return creds
}

// mirrorMedia downloads the record's creative and points CreativeURL at
// the local copy. On failure the origin URL stays in place.
func (s *Service) mirrorMedia(ctx context.Context, record *models.AdRecord, creds media.Credentials) {
	if s.store == nil {
		return
	}

	origin := record.OriginImageURL
	kind := models.MediaTypeImage
	if record.MediaType == models.MediaTypeVideo && record.OriginVideoURL != "" {
		origin = record.OriginVideoURL
		kind = models.MediaTypeVideo
	}
	if origin == "" {
		return
	}

	asset, err := s.store.Store(ctx, record.Identity, origin, kind, creds)
	if err != nil {
		s.log.Warn().Err(err).Str("identity", record.Identity).Msg("media mirror failed")
		return
	}
	record.CreativeURL = asset.LocalPath
	s.log.Debug().
		Str("identity", record.Identity).
		Str("file", asset.LocalPath).
		Int64("bytes", asset.SizeBytes).
		Msg("creative mirrored")
}

func (s *Service) announceAd(ctx context.Context, runID string, record *models.AdRecord) {
	if s.publisher == nil {
		return
	}
	event := publisher.AdScrapedEvent{
		RunID:        runID,
		Identity:     record.Identity,
		LibraryID:    record.LibraryID,
		Advertiser:   record.AdvertiserName,
		MediaType:    record.MediaType,
		Status:       record.Status,
		Keyword:      record.Keyword,
		Country:      record.Country,
		DiscoveredAt: record.DiscoveredAt,
	}
	if err := s.publisher.PublishAdScraped(ctx, event); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish ad event")
	}
}

func (s *Service) announceRun(ctx context.Context, result *RunResult) {
	if s.publisher == nil {
		return
	}
	event := publisher.RunCompletedEvent{
		RunID:          result.RunID,
		Keyword:        result.Keyword,
		Country:        result.Country,
		Success:        result.Success,
		TotalCollected: result.TotalCollected,
		NewRecords:     result.NewRecords,
		FinishedAt:     time.Now(),
	}
	if err := s.publisher.PublishRunCompleted(ctx, event); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish run event")
	}
}
