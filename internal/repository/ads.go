// Package repository provides data access for scraped ads.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vigiads/vigia/internal/models"
)

// AdsFilter narrows List and Count queries. Zero values mean "any".
type AdsFilter struct {
	Keyword    string
	Country    string
	Status     models.AdStatus
	MediaType  models.MediaType
	Advertiser string // substring match, case-insensitive
	Limit      int
	Offset     int
}

// AdsRepository handles the ads table.
type AdsRepository struct {
	db *gorm.DB
}

// NewAdsRepository creates a new ads repository.
func NewAdsRepository(db *gorm.DB) *AdsRepository {
	return &AdsRepository{db: db}
}

// Upsert inserts the record or, when its identity is already known,
// refreshes the mutable fields. Returns true when the record was new.
func (r *AdsRepository) Upsert(ctx context.Context, ad *models.AdRecord) (bool, error) {
	var existing models.AdRecord
	err := r.db.WithContext(ctx).Where("identity = ?", ad.Identity).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(ad).Error; err != nil {
			return false, fmt.Errorf("create ad: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("lookup ad: %w", err)
	}

	// keep the first discovery time; everything observable may change
	// between crawls
	ad.ID = existing.ID
	ad.CreatedAt = existing.CreatedAt
	ad.DiscoveredAt = existing.DiscoveredAt
	if err := r.db.WithContext(ctx).Model(&existing).Select(
		"library_id", "advertiser_name", "body_text",
		"media_type", "creative_url", "origin_image_url", "origin_video_url", "outbound_link",
		"platforms", "start_date", "end_date", "active_days",
		"impressions_min", "impressions_max", "status",
		"keyword", "country", "filters_json",
	).Updates(ad).Error; err != nil {
		return false, fmt.Errorf("update ad: %w", err)
	}
	return false, nil
}

// GetByIdentity returns one ad, or nil when unknown.
func (r *AdsRepository) GetByIdentity(ctx context.Context, identity string) (*models.AdRecord, error) {
	var ad models.AdRecord
	err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&ad).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ad by identity: %w", err)
	}
	return &ad, nil
}

// List returns ads matching the filter, newest discoveries first.
func (r *AdsRepository) List(ctx context.Context, filter AdsFilter) ([]models.AdRecord, error) {
	q := r.filtered(ctx, filter).Order("discovered_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var ads []models.AdRecord
	if err := q.Find(&ads).Error; err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	return ads, nil
}

// Count returns the number of ads matching the filter.
func (r *AdsRepository) Count(ctx context.Context, filter AdsFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Model(&models.AdRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count ads: %w", err)
	}
	return count, nil
}

// StatusCount is one row of the per-status breakdown.
type StatusCount struct {
	Status models.AdStatus `json:"status"`
	Count  int64           `json:"count"`
}

// MediaCount is one row of the per-media-type breakdown.
type MediaCount struct {
	MediaType models.MediaType `json:"media_type"`
	Count     int64            `json:"count"`
}

// AdsStats summarizes the stored ads matching a filter.
type AdsStats struct {
	Total       int64         `json:"total"`
	ByStatus    []StatusCount `json:"by_status"`
	ByMediaType []MediaCount  `json:"by_media_type"`
}

// Stats returns total plus per-status and per-media-type counts.
func (r *AdsRepository) Stats(ctx context.Context, filter AdsFilter) (*AdsStats, error) {
	stats := &AdsStats{}

	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats.Total = total

	err = r.filtered(ctx, filter).
		Model(&models.AdRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&stats.ByStatus).Error
	if err != nil {
		return nil, fmt.Errorf("ads stats by status: %w", err)
	}

	err = r.filtered(ctx, filter).
		Model(&models.AdRecord{}).
		Select("media_type, COUNT(*) as count").
		Group("media_type").
		Scan(&stats.ByMediaType).Error
	if err != nil {
		return nil, fmt.Errorf("ads stats by media type: %w", err)
	}

	return stats, nil
}

func (r *AdsRepository) filtered(ctx context.Context, filter AdsFilter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if filter.Keyword != "" {
		q = q.Where("keyword = ?", filter.Keyword)
	}
	if filter.Country != "" {
		q = q.Where("country = ?", filter.Country)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MediaType != "" {
		q = q.Where("media_type = ?", filter.MediaType)
	}
	if filter.Advertiser != "" {
		q = q.Where("LOWER(advertiser_name) LIKE ?", "%"+strings.ToLower(filter.Advertiser)+"%")
	}
	return q
}
