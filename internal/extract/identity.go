package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Identity derives the stable natural key of an ad: the library id when
// the card exposes one, otherwise a deterministic hash of advertiser,
// creative URL and first-seen date. Never random: repeated crawls of the
// same ad must produce the same key so the storage layer can deduplicate.
func Identity(libraryID, advertiserName, creativeURL string, firstSeen time.Time) string {
	if libraryID != "" {
		return libraryID
	}
	return stableHash(advertiserName, creativeURL, firstSeen.UTC().Format("2006-01-02"))
}

// CardKey identifies a rendered card before parsing, so re-renders across
// scroll passes are skipped regardless of parse outcome. Library id when
// present, else a hash of the raw text and first image URL.
func CardKey(card *CardSnapshot, libraryID string) string {
	if libraryID != "" {
		return libraryID
	}
	firstImage := ""
	if len(card.Images) > 0 {
		firstImage = card.Images[0].Src
	}
	text := card.FullText
	if len(text) > 512 {
		text = text[:512]
	}
	return stableHash(text, firstImage)
}

func stableHash(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])[:16]
}
