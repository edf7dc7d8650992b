// Package extract turns raw ad-card snapshots into typed ad records.
// All heuristics run host-side over plain data captured in the page,
// so they are unit-testable without a live browser.
package extract

// LinkInfo is one anchor element captured from a card.
type LinkInfo struct {
	Href      string `json:"href"`
	Text      string `json:"text"`
	AriaLabel string `json:"ariaLabel"`
}

// ImageInfo is one img element captured from a card.
type ImageInfo struct {
	Src          string `json:"src"`
	Srcset       string `json:"srcset"`
	NaturalWidth int    `json:"naturalWidth"`
}

// CardSnapshot is the raw, uninterpreted content of one rendered ad card.
// The page query script fills it; everything else happens in this package.
type CardSnapshot struct {
	// FullText is the card's complete text content.
	FullText string `json:"fullText"`

	// HeadingTexts are strong/span[dir=auto]/h2-h4 texts in DOM order.
	HeadingTexts []string `json:"headingTexts"`

	// BlockTexts are div[dir=auto] rendered texts in DOM order.
	BlockTexts []string `json:"blockTexts"`

	Links  []LinkInfo  `json:"links"`
	Images []ImageInfo `json:"images"`

	// VideoSrc is the first playable video source, if any.
	VideoSrc string `json:"videoSrc"`

	// HasPlatformSection is true when a labeled "Platforms" region exists.
	HasPlatformSection bool `json:"hasPlatformSection"`
	// IconPositions are sprite mask positions found inside that region.
	IconPositions []string `json:"iconPositions"`

	// AccessibilityTexts are aria-label/alt/title strings from the card.
	AccessibilityTexts []string `json:"accessibilityTexts"`

	// CarouselMarkers counts explicit carousel indicators.
	CarouselMarkers int `json:"carouselMarkers"`
}

// Lines splits the card text into trimmed, non-empty lines.
func (c *CardSnapshot) Lines() []string {
	return splitLines(c.FullText)
}
