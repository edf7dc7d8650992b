package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/vigiads/vigia/internal/models"
)

// rejection reasons
var (
	ErrNoAdvertiser   = errors.New("card has no plausible advertiser name")
	ErrSponsoredLabel = errors.New("advertiser name is the sponsorship label")
	ErrNoMedia        = errors.New("card has neither image nor video URL")
)

// Query is the search snapshot a record was discovered under.
type Query struct {
	Keyword     string
	Country     string
	FiltersJSON string
}

// Parser composes the field extractors over one card snapshot.
type Parser struct {
	locales Locales
	dates   *DateExtractor
	text    *TextExtractor

	// now is injectable for deterministic active-day computation in tests
	now func() time.Time
}

// NewParser builds a parser over the given locale tables.
func NewParser(locales Locales) *Parser {
	return &Parser{
		locales: locales,
		dates:   NewDateExtractor(locales),
		text:    NewTextExtractor(locales),
		now:     time.Now,
	}
}

// Parse runs every extractor over the card and applies the validity rules.
// A rejected card returns a nil record and the reason.
func (p *Parser) Parse(card *CardSnapshot, query Query) (*models.AdRecord, error) {
	fullText := card.FullText

	libraryID := p.text.LibraryID(fullText)
	dates := p.dates.Extract(fullText)
	platforms := Platforms(card)
	name := p.text.AdvertiserName(card)
	body := p.text.BodyText(card, name)
	media := Media(card)

	// validity rules
	if len([]rune(name)) < 2 {
		return nil, ErrNoAdvertiser
	}
	if p.locales.IsSponsoredLabel(name) {
		return nil, ErrSponsoredLabel
	}
	if media.ImageURL == "" && media.VideoURL == "" {
		return nil, fmt.Errorf("%w: advertiser %q", ErrNoMedia, name)
	}

	status := Status(fullText, p.locales)
	impMin, impMax := Impressions(fullText)
	now := p.now()

	creative := media.ImageURL
	if media.VideoURL != "" {
		creative = media.VideoURL
	}

	activeDays := ActiveDays(dates.StartDate, dates.EndDate, status == models.AdStatusActive, now)
	if activeDays == nil {
		// some cards show only the "total time active" phrase
		activeDays = dates.ActiveTimeDays
	}

	record := &models.AdRecord{
		Identity:       Identity(libraryID, name, creative, now),
		LibraryID:      libraryID,
		AdvertiserName: name,
		MediaType:      media.MediaType,
		CreativeURL:    creative,
		OriginImageURL: media.ImageURL,
		OriginVideoURL: media.VideoURL,
		StartDate:      dates.StartDate,
		EndDate:        dates.EndDate,
		ActiveDays:     activeDays,
		ImpressionsMin: impMin,
		ImpressionsMax: impMax,
		Status:         status,
		Keyword:        query.Keyword,
		Country:        query.Country,
		FiltersJSON:    query.FiltersJSON,
		DiscoveredAt:   now,
	}
	if body != "" {
		record.BodyText = &body
	}
	if media.OutboundLink != "" {
		record.OutboundLink = &media.OutboundLink
	}
	record.SetPlatforms(platforms)

	return record, nil
}

// Key returns the pre-parse dedup key of a card.
func (p *Parser) Key(card *CardSnapshot) string {
	return CardKey(card, p.text.LibraryID(card.FullText))
}
