package models

import (
	"strings"
	"time"
)

// MediaType classifies the primary creative of an ad.
type MediaType string

// MediaType constants cover every card shape the library renders.
const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeCarousel MediaType = "carousel"
	MediaTypeUnknown  MediaType = "unknown"
)

// AdStatus marks whether an ad was still being delivered when scraped.
type AdStatus string

const (
	AdStatusActive   AdStatus = "active"
	AdStatusInactive AdStatus = "inactive"
)

// Platform names a delivery surface of the ad network.
type Platform string

const (
	PlatformFacebook        Platform = "Facebook"
	PlatformInstagram       Platform = "Instagram"
	PlatformMessenger       Platform = "Messenger"
	PlatformWhatsApp        Platform = "WhatsApp"
	PlatformThreads         Platform = "Threads"
	PlatformAudienceNetwork Platform = "Audience Network"
)

// AdRecord is one scraped advertisement.
// Identity is the natural key: the source's library id when exposed,
// otherwise a stable hash derived from advertiser, creative and first-seen date.
type AdRecord struct {
	ID uint `json:"-" gorm:"primaryKey"`

	// identification
	Identity  string `json:"identity" gorm:"uniqueIndex;size:64"`
	LibraryID string `json:"library_id,omitempty" gorm:"index"`

	// content
	AdvertiserName string  `json:"advertiser_name" gorm:"index"`
	BodyText       *string `json:"body_text,omitempty"`

	// creative
	MediaType      MediaType `json:"media_type" gorm:"size:16"`
	CreativeURL    string    `json:"creative_url"`
	OriginImageURL string    `json:"origin_image_url,omitempty"`
	OriginVideoURL string    `json:"origin_video_url,omitempty"`
	OutboundLink   *string   `json:"outbound_link,omitempty"`

	// delivery surfaces, comma-joined, never empty
	Platforms string `json:"platforms"`

	// activity window
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	ActiveDays *int       `json:"active_days,omitempty"`

	// reach
	ImpressionsMin *int `json:"impressions_min,omitempty"`
	ImpressionsMax *int `json:"impressions_max,omitempty"`

	Status AdStatus `json:"status" gorm:"size:16;index"`

	// query snapshot
	Keyword      string    `json:"keyword" gorm:"index"`
	Country      string    `json:"country" gorm:"size:2;index"`
	FiltersJSON  string    `json:"filters,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlatformList splits the stored platform set back into typed values.
func (a *AdRecord) PlatformList() []Platform {
	if a.Platforms == "" {
		return []Platform{PlatformFacebook}
	}
	parts := strings.Split(a.Platforms, ", ")
	out := make([]Platform, 0, len(parts))
	for _, p := range parts {
		out = append(out, Platform(p))
	}
	return out
}

// SetPlatforms stores the set, defaulting to Facebook when empty.
func (a *AdRecord) SetPlatforms(platforms []Platform) {
	if len(platforms) == 0 {
		platforms = []Platform{PlatformFacebook}
	}
	parts := make([]string, 0, len(platforms))
	for _, p := range platforms {
		parts = append(parts, string(p))
	}
	a.Platforms = strings.Join(parts, ", ")
}

// IsActive reports whether the ad was still running when scraped.
func (a *AdRecord) IsActive() bool {
	return a.Status == AdStatusActive
}

// HasMedia reports whether at least one creative URL was resolved.
func (a *AdRecord) HasMedia() bool {
	return a.OriginImageURL != "" || a.OriginVideoURL != ""
}

// MediaAsset is a cached creative file.
type MediaAsset struct {
	CacheKey  string `json:"cache_key"`
	OriginURL string `json:"origin_url"`
	LocalPath string `json:"local_path"`
	Kind      string `json:"kind"` // image or video
	SizeBytes int64  `json:"size_bytes"`
}
