package extract

import (
	"regexp"
	"strings"
)

// Advertiser-name plausibility bounds.
const (
	minNameLen = 3
	maxNameLen = 150
)

// Body-text plausibility bounds.
const (
	minBodyLen = 20
	maxBodyLen = 5000
	// Below this length the block-based result is considered too weak
	// and the line-based fallback runs.
	shortBodyLen = 40
)

// Links with these href fragments never carry an advertiser name.
var nonProfileHrefs = []string{
	"/ads/library",
	"/policies",
	"facebook.com/business",
}

var longNumericID = regexp.MustCompile(`(?i)\bID[:\s]+(\d{10,})`)

// TextExtractor pulls the advertiser name, body text and library id out of
// a card using locale-aware heuristics.
type TextExtractor struct {
	locales Locales
	// one "<label>[: ]<digits>" pattern per locale
	libraryIDPatterns []*regexp.Regexp
}

// NewTextExtractor compiles the per-locale library-id patterns.
func NewTextExtractor(locales Locales) *TextExtractor {
	patterns := make([]*regexp.Regexp, 0, len(locales))
	for _, loc := range locales {
		if loc.LibraryIDLabel == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(loc.LibraryIDLabel)+`[:\s]*(\d+)`))
	}
	return &TextExtractor{locales: locales, libraryIDPatterns: patterns}
}

// LibraryID finds the source site's own ad identifier in the card text.
// Returns "" when the card does not expose one.
func (e *TextExtractor) LibraryID(fullText string) string {
	for _, re := range e.libraryIDPatterns {
		if m := re.FindStringSubmatch(fullText); m != nil {
			return m[1]
		}
	}
	// long standalone numeric ids are almost always library ids
	if m := longNumericID.FindStringSubmatch(fullText); m != nil {
		return m[1]
	}
	return ""
}

// AdvertiserName resolves the page name behind the ad. Accessible-name
// links are preferred; heading-like texts preceding the sponsorship marker
// are the fallback. Returns "" when nothing plausible is found.
func (e *TextExtractor) AdvertiserName(card *CardSnapshot) string {
	if name := e.nameFromLinks(card.Links); name != "" {
		return name
	}
	return e.nameFromHeadings(card.HeadingTexts)
}

func (e *TextExtractor) nameFromLinks(links []LinkInfo) string {
	for _, link := range links {
		if hasNonProfileHref(link.Href) {
			continue
		}

		if aria := strings.TrimSpace(link.AriaLabel); e.plausibleName(aria) &&
			!e.locales.IsSeeDetailsLabel(aria) {
			return aria
		}

		if text := strings.TrimSpace(link.Text); e.plausibleName(text) &&
			!e.locales.IsSeeDetailsLabel(text) {
			return text
		}
	}
	return ""
}

func (e *TextExtractor) nameFromHeadings(headings []string) string {
	for _, h := range headings {
		text := strings.TrimSpace(h)

		// the marker ends the advertiser header region
		if e.locales.IsSponsoredLabel(text) {
			return ""
		}
		if !e.plausibleName(text) || e.locales.HasMetadataPrefix(text) {
			continue
		}
		return text
	}
	return ""
}

func (e *TextExtractor) plausibleName(text string) bool {
	n := len([]rune(text))
	return n >= minNameLen && n <= maxNameLen && !e.locales.IsSponsoredLabel(text)
}

// BodyText finds the ad copy: the longest directionally-marked text block
// that is neither the advertiser name nor card metadata. When blocks give
// only a short result, raw text lines after the sponsorship marker are
// scanned instead.
func (e *TextExtractor) BodyText(card *CardSnapshot, advertiserName string) string {
	best := ""
	for _, block := range card.BlockTexts {
		text := strings.TrimSpace(block)
		if e.validBody(text, advertiserName) && len(text) > len(best) {
			best = text
		}
	}

	if len(best) >= shortBodyLen {
		return best
	}

	// line-based fallback, scanning only past the sponsorship marker
	afterMarker := false
	for _, line := range card.Lines() {
		if e.locales.IsSponsoredLabel(line) {
			afterMarker = true
			continue
		}
		if !afterMarker {
			continue
		}
		if e.validBody(line, advertiserName) && len(line) > len(best) {
			best = line
		}
	}

	return best
}

func (e *TextExtractor) validBody(text, advertiserName string) bool {
	return len(text) >= minBodyLen &&
		len(text) <= maxBodyLen &&
		text != advertiserName &&
		!e.locales.HasMetadataPrefix(text)
}

func hasNonProfileHref(href string) bool {
	for _, frag := range nonProfileHrefs {
		if strings.Contains(href, frag) {
			return true
		}
	}
	return false
}
