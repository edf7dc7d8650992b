package extract

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var localesYAML []byte

// Locale holds the language-specific lookup tables used by the extractors.
type Locale struct {
	Code             string         `yaml:"code"`
	Months           map[string]int `yaml:"months"`
	SponsoredLabels  []string       `yaml:"sponsored_labels"`
	SeeDetailsLabels []string       `yaml:"see_details_labels"`
	MetadataPrefixes []string       `yaml:"metadata_prefixes"`
	InactiveMarkers  []string       `yaml:"inactive_markers"`
	LibraryIDLabel   string         `yaml:"library_id_label"`
}

// Locales is the ordered set of supported languages.
type Locales []Locale

type localeFile struct {
	Locales []Locale `yaml:"locales"`
}

// LoadLocales parses the embedded locale tables.
func LoadLocales() (Locales, error) {
	var f localeFile
	if err := yaml.Unmarshal(localesYAML, &f); err != nil {
		return nil, fmt.Errorf("parse locales: %w", err)
	}
	if len(f.Locales) == 0 {
		return nil, fmt.Errorf("no locales defined")
	}
	return f.Locales, nil
}

// MustLoadLocales panics if the embedded tables are invalid.
// The tables ship with the binary, so a failure here is a build defect.
func MustLoadLocales() Locales {
	locs, err := LoadLocales()
	if err != nil {
		panic(err)
	}
	return locs
}

// MonthNumber resolves a month name against this locale's table.
// Matching is case-insensitive and falls back to a first-three-letters
// comparison to honor abbreviations ("dez", "Dec.").
func (l *Locale) MonthNumber(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if name == "" {
		return 0, false
	}
	if n, ok := l.Months[name]; ok {
		return n, true
	}
	if len(name) < 3 {
		return 0, false
	}
	prefix := name[:3]
	for full, n := range l.Months {
		if strings.HasPrefix(full, prefix) {
			return n, true
		}
	}
	return 0, false
}

// IsSponsoredLabel reports whether the text is this locale's sponsorship label.
func (l *Locale) IsSponsoredLabel(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, s := range l.SponsoredLabels {
		if t == s {
			return true
		}
	}
	return false
}

// HasMetadataPrefix reports whether the text starts with a known metadata phrase.
func (l *Locale) HasMetadataPrefix(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, p := range l.MetadataPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

// IsSponsoredLabel checks the label against every locale.
func (ls Locales) IsSponsoredLabel(text string) bool {
	for i := range ls {
		if ls[i].IsSponsoredLabel(text) {
			return true
		}
	}
	return false
}

// HasMetadataPrefix checks the prefix against every locale.
func (ls Locales) HasMetadataPrefix(text string) bool {
	for i := range ls {
		if ls[i].HasMetadataPrefix(text) {
			return true
		}
	}
	return false
}

// IsSeeDetailsLabel reports whether the text is a "see details" style label.
func (ls Locales) IsSeeDetailsLabel(text string) bool {
	t := strings.ToLower(text)
	for i := range ls {
		for _, s := range ls[i].SeeDetailsLabels {
			if strings.Contains(t, s) {
				return true
			}
		}
	}
	return false
}

// splitLines returns trimmed, non-empty lines of a text block.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
