package scraper

import (
	"errors"
	"strings"
	"time"
)

// validation errors
var (
	ErrKeywordRequired  = errors.New("keyword is required")
	ErrInvalidCountry   = errors.New("country must be a two-letter code")
	ErrInvalidMaxAds    = errors.New("max_ads must be non-negative")
	ErrInvalidStatus    = errors.New("active_status must be one of: active, inactive, all")
	ErrInvalidMediaType = errors.New("media_type must be one of: all, image, video")
	ErrInvalidDate      = errors.New("dates must be in YYYY-MM-DD format")
	ErrDateOrder        = errors.New("start_date_min must not be after start_date_max")
	ErrInvalidPlatform  = errors.New("unknown platform filter")
	ErrInvalidLanguage  = errors.New("languages must be two-letter codes")
)

// platform filter values the search URL accepts
var knownPlatformFilters = map[string]bool{
	"facebook":         true,
	"instagram":        true,
	"messenger":        true,
	"whatsapp":         true,
	"threads":          true,
	"audience_network": true,
}

// RunRequest describes one crawl run.
type RunRequest struct {
	// Keyword is searched as an exact phrase.
	Keyword string `json:"keyword"`

	// Country - two-letter code. Defaults to the configured country.
	Country string `json:"country,omitempty"`

	// MaxAds caps collected ads. 0 means the configured default.
	MaxAds int `json:"max_ads,omitempty"`

	// ActiveStatus filters by delivery state: active, inactive or all.
	ActiveStatus string `json:"active_status,omitempty"`

	// MediaType filters by creative kind: all, image or video.
	MediaType string `json:"media_type,omitempty"`

	// StartDateMin/StartDateMax narrow results to ads whose delivery
	// started inside the window (YYYY-MM-DD).
	StartDateMin string `json:"start_date_min,omitempty"`
	StartDateMax string `json:"start_date_max,omitempty"`

	// Languages filters by ad content language (two-letter codes).
	Languages []string `json:"languages,omitempty"`

	// Platforms filters by delivery surface (facebook, instagram,
	// messenger, whatsapp, threads, audience_network).
	Platforms []string `json:"platforms,omitempty"`
}

// Validate performs basic validation and normalizes the request in place.
func (r *RunRequest) Validate() error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.Keyword == "" {
		return ErrKeywordRequired
	}

	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	if r.Country != "" && len(r.Country) != 2 {
		return ErrInvalidCountry
	}

	if r.MaxAds < 0 {
		return ErrInvalidMaxAds
	}

	switch r.ActiveStatus {
	case "", "active", "inactive", "all":
	default:
		return ErrInvalidStatus
	}

	switch r.MediaType {
	case "", "all", "image", "video":
	default:
		return ErrInvalidMediaType
	}

	var minDate, maxDate time.Time
	if r.StartDateMin != "" {
		d, err := time.Parse("2006-01-02", r.StartDateMin)
		if err != nil {
			return ErrInvalidDate
		}
		minDate = d
	}
	if r.StartDateMax != "" {
		d, err := time.Parse("2006-01-02", r.StartDateMax)
		if err != nil {
			return ErrInvalidDate
		}
		maxDate = d
	}
	if !minDate.IsZero() && !maxDate.IsZero() && minDate.After(maxDate) {
		return ErrDateOrder
	}

	for i, lang := range r.Languages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if len(lang) != 2 {
			return ErrInvalidLanguage
		}
		r.Languages[i] = lang
	}

	for i, platform := range r.Platforms {
		platform = strings.ToLower(strings.TrimSpace(platform))
		if !knownPlatformFilters[platform] {
			return ErrInvalidPlatform
		}
		r.Platforms[i] = platform
	}

	return nil
}

// ActiveStatusOrDefault returns the status filter, defaulting to active.
func (r *RunRequest) ActiveStatusOrDefault() string {
	if r.ActiveStatus == "" {
		return "active"
	}
	return r.ActiveStatus
}

// MediaTypeOrDefault returns the media filter, defaulting to all.
func (r *RunRequest) MediaTypeOrDefault() string {
	if r.MediaType == "" {
		return "all"
	}
	return r.MediaType
}
