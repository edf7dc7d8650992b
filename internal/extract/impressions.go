package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vigiads/vigia/internal/models"
)

// Ranged impression phrases in either language, with dotted/comma
// thousands and a K-suffix shorthand.
var impressionPatterns = []*regexp.Regexp{
	// "1.000 - 5.000 impressões" / "1,000 - 5,000 impressions"
	regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})+|\d+)\s*[-–—]\s*(\d{1,3}(?:[.,]\d{3})+|\d+)\s*(?:impressões|impressions|visualizações|views)`),
	// "impressões: 1.000 - 5.000"
	regexp.MustCompile(`(?i)(?:impressões|impressions)[:\s]+(\d{1,3}(?:[.,]\d{3})+|\d+)\s*[-–—]\s*(\d{1,3}(?:[.,]\d{3})+|\d+)`),
}

// "1K - 5K" shorthand.
var impressionsK = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*K\s*[-–—]\s*(\d+(?:\.\d+)?)\s*K`)

// Impressions extracts the impression range a card reports. Both bounds
// are nil when the card shows none; min and max are swapped if the source
// renders them out of order.
func Impressions(fullText string) (*int, *int) {
	clean := strings.Join(strings.Fields(fullText), " ")

	for _, re := range impressionPatterns {
		if m := re.FindStringSubmatch(clean); m != nil {
			mn := parseGrouped(m[1])
			mx := parseGrouped(m[2])
			return ordered(mn, mx)
		}
	}

	if m := impressionsK.FindStringSubmatch(clean); m != nil {
		mn := parseThousands(m[1])
		mx := parseThousands(m[2])
		return ordered(mn, mx)
	}

	return nil, nil
}

func parseGrouped(s string) int {
	n, _ := strconv.Atoi(strings.NewReplacer(".", "", ",", "").Replace(s))
	return n
}

func parseThousands(s string) int {
	f, _ := strconv.ParseFloat(s, 64)
	return int(f*1000 + 0.5)
}

func ordered(mn, mx int) (*int, *int) {
	if mn > mx {
		mn, mx = mx, mn
	}
	return &mn, &mx
}

// Status decides whether the ad was still running when scraped. A card is
// active unless it carries one of the locale's inactive markers.
func Status(fullText string, locales Locales) models.AdStatus {
	lower := strings.ToLower(fullText)
	for _, loc := range locales {
		for _, marker := range loc.InactiveMarkers {
			if strings.Contains(lower, marker) {
				return models.AdStatusInactive
			}
		}
	}
	return models.AdStatusActive
}
