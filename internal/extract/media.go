package extract

import (
	"strconv"
	"strings"

	"github.com/vigiads/vigia/internal/models"
)

// Hosts that serve genuine creatives. Anything else is chrome or tracking.
var creativeHosts = []string{"scontent", "fbcdn"}

// URL fragments of known non-creative assets.
var nonCreativeFragments = []string{"emoji", "static", "pixel", "profile_pic"}

// Outbound links containing these fragments point back at the source site.
var internalLinkFragments = []string{
	"facebook.com/ads",
	"facebook.com/business",
	"facebook.com/policies",
}

// Rendered widths at or below this are thumbnails, not creatives.
const minCreativeWidth = 50

// MediaInfo is the creative signal extracted from one card.
type MediaInfo struct {
	ImageURL     string
	VideoURL     string
	OutboundLink string
	MediaType    models.MediaType
}

// Media selects the best creative URLs of a card and classifies its type.
func Media(card *CardSnapshot) MediaInfo {
	info := MediaInfo{
		ImageURL:     bestImage(card.Images),
		VideoURL:     card.VideoSrc,
		OutboundLink: outboundLink(card.Links),
	}
	info.MediaType = classify(card, info)
	return info
}

// bestImage scores candidates on explicit responsive-source width when
// present, else rendered natural width, and keeps the highest-scoring
// valid URL.
func bestImage(images []ImageInfo) string {
	best := ""
	bestScore := 0

	for _, img := range images {
		if !ValidImageURL(img.Src) {
			continue
		}

		if url, width := widestSrcsetEntry(img.Srcset); width > bestScore {
			best = url
			bestScore = width
		}

		if img.NaturalWidth > bestScore && img.NaturalWidth > minCreativeWidth {
			best = img.Src
			bestScore = img.NaturalWidth
		}
	}

	if best != "" {
		return best
	}

	// no width signal anywhere: first valid URL wins
	for _, img := range images {
		if ValidImageURL(img.Src) {
			return img.Src
		}
	}
	return ""
}

// widestSrcsetEntry parses "url1 640w, url2 1080w" and returns the widest pair.
func widestSrcsetEntry(srcset string) (string, int) {
	bestURL := ""
	bestWidth := 0
	for _, entry := range strings.Split(srcset, ",") {
		parts := strings.Fields(strings.TrimSpace(entry))
		if len(parts) == 0 {
			continue
		}
		width := 0
		if len(parts) > 1 {
			width, _ = strconv.Atoi(strings.TrimSuffix(parts[1], "w"))
		}
		if width > bestWidth {
			bestURL = parts[0]
			bestWidth = width
		}
	}
	return bestURL, bestWidth
}

// outboundLink returns the first external destination that is not a
// source-site service page.
func outboundLink(links []LinkInfo) string {
	for _, link := range links {
		if !strings.HasPrefix(link.Href, "http") {
			continue
		}
		if containsAny(link.Href, internalLinkFragments) {
			continue
		}
		return link.Href
	}
	return ""
}

func classify(card *CardSnapshot, info MediaInfo) models.MediaType {
	if info.VideoURL != "" {
		return models.MediaTypeVideo
	}

	validImages := 0
	for _, img := range card.Images {
		if ValidImageURL(img.Src) {
			validImages++
		}
	}

	if card.CarouselMarkers > 0 || validImages > 1 {
		return models.MediaTypeCarousel
	}
	if validImages == 1 {
		return models.MediaTypeImage
	}
	return models.MediaTypeUnknown
}

// ValidImageURL reports whether a URL points at a real creative: http(s)
// scheme, a known content-delivery host, and none of the known
// non-creative asset markers.
func ValidImageURL(src string) bool {
	if !strings.HasPrefix(src, "http") {
		return false
	}
	if !containsAny(src, creativeHosts) {
		return false
	}
	return !containsAny(src, nonCreativeFragments)
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
