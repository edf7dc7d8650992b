package extract

import (
	"strings"

	"github.com/vigiads/vigia/internal/models"
)

// spriteTable maps icon-atlas mask positions to platforms. These offsets
// track the source site's sprite sheet and go stale on cosmetic changes,
// hence the positional and accessibility fallbacks below.
var spriteTable = map[string]models.Platform{
	"-75px -309px":  models.PlatformFacebook,
	"-75px -668px":  models.PlatformInstagram,
	"-32px -1333px": models.PlatformMessenger,
	"-58px -1333px": models.PlatformAudienceNetwork,
	"-45px -309px":  models.PlatformWhatsApp,
	"-84px -1333px": models.PlatformThreads,
}

// canonicalOrder is the default icon ordering used for positional
// inference when the sprite offsets no longer match the table.
var canonicalOrder = []models.Platform{
	models.PlatformFacebook,
	models.PlatformInstagram,
	models.PlatformMessenger,
	models.PlatformAudienceNetwork,
}

// platformKeywords resolves accessibility-text substrings to platforms.
var platformKeywords = []struct {
	substr   string
	platform models.Platform
}{
	{"facebook", models.PlatformFacebook},
	{"instagram", models.PlatformInstagram},
	{"messenger", models.PlatformMessenger},
	{"whatsapp", models.PlatformWhatsApp},
	{"threads", models.PlatformThreads},
	{"audience", models.PlatformAudienceNetwork},
}

// Platforms resolves the delivery surfaces of a card. Never returns an
// empty set: Facebook is the default when nothing is detectable.
func Platforms(card *CardSnapshot) []models.Platform {
	var platforms []models.Platform

	if card.HasPlatformSection {
		platforms = fromSprites(card.IconPositions)
		if len(platforms) == 0 {
			platforms = inferFromOrder(card.IconPositions)
		}
	}

	if len(platforms) == 0 {
		platforms = fromAccessibilityTexts(card.AccessibilityTexts)
	}

	if len(platforms) == 0 {
		platforms = []models.Platform{models.PlatformFacebook}
	}

	return platforms
}

func fromSprites(positions []string) []models.Platform {
	var out []models.Platform
	for _, pos := range positions {
		if p, ok := spriteTable[strings.TrimSpace(pos)]; ok {
			out = appendUnique(out, p)
		}
	}
	return out
}

// inferFromOrder approximates platforms positionally when icons exist but
// none matched the sprite table. Icons beyond the canonical set are dropped.
func inferFromOrder(positions []string) []models.Platform {
	var out []models.Platform
	for i := range positions {
		if i >= len(canonicalOrder) {
			break
		}
		out = appendUnique(out, canonicalOrder[i])
	}
	return out
}

func fromAccessibilityTexts(texts []string) []models.Platform {
	var out []models.Platform
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, kw := range platformKeywords {
			if strings.Contains(lower, kw.substr) {
				out = appendUnique(out, kw.platform)
			}
		}
	}
	return out
}

func appendUnique(set []models.Platform, p models.Platform) []models.Platform {
	for _, existing := range set {
		if existing == p {
			return set
		}
	}
	return append(set, p)
}
