package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/vigiads/vigia/internal/extract"
)

// fakePage scripts a results page for tests. SnapshotCards serves the
// batches in order and repeats the last one once exhausted.
type fakePage struct {
	batches  [][]extract.CardSnapshot
	location string

	navErrs    []error
	readyAfter int

	navCalls        int
	readyCalls      int
	snapshotCalls   int
	scrollCalls     int
	screenshotCalls int
	closed          bool
}

func (p *fakePage) Navigate(_ context.Context, _ string) error {
	p.navCalls++
	if len(p.navErrs) >= p.navCalls {
		return p.navErrs[p.navCalls-1]
	}
	return nil
}

func (p *fakePage) Location(_ context.Context) (string, error) {
	if p.location == "" {
		return "https://www.facebook.com/ads/library/?country=BR", nil
	}
	return p.location, nil
}

func (p *fakePage) PageReady(_ context.Context) (bool, error) {
	p.readyCalls++
	return p.readyCalls > p.readyAfter, nil
}

func (p *fakePage) DismissConsent(_ context.Context) bool { return false }

func (p *fakePage) ScrollBy(_ context.Context, _ float64) error {
	p.scrollCalls++
	return nil
}

func (p *fakePage) SnapshotCards(_ context.Context) ([]extract.CardSnapshot, error) {
	idx := p.snapshotCalls
	p.snapshotCalls++
	if len(p.batches) == 0 {
		return nil, nil
	}
	if idx >= len(p.batches) {
		idx = len(p.batches) - 1
	}
	return p.batches[idx], nil
}

func (p *fakePage) CookieHeader(_ context.Context) (string, error) { return "c_user=1", nil }
func (p *fakePage) UserAgent(_ context.Context) (string, error)    { return "test-agent", nil }
func (p *fakePage) Screenshot(_ context.Context, _ string)         { p.screenshotCalls++ }

// noSleep makes retry and scroll pauses instantaneous in tests.
func noSleep(_ context.Context, _ time.Duration) error { return nil }

// testCard builds a card that passes every validity rule. n seeds a unique
// library id and image URL.
func testCard(n int) extract.CardSnapshot {
	id := fmt.Sprintf("%010d", n)
	return extract.CardSnapshot{
		FullText: "Identificação da biblioteca: " + id + "\n" +
			"Veiculação iniciada em 1 de janeiro de 2025\n" +
			"Patrocinado\n" +
			"Promoção especial desta semana, aproveite os descontos da loja.",
		HeadingTexts: []string{"Acme Store"},
		BlockTexts:   []string{"Promoção especial desta semana, aproveite os descontos da loja."},
		Links: []extract.LinkInfo{
			{Href: "/acme", AriaLabel: "Acme Store"},
		},
		Images: []extract.ImageInfo{
			{Src: "https://scontent.example.com/creative_" + id + ".jpg", NaturalWidth: 400},
		},
	}
}

// brokenCard has no media and is rejected by the parser.
func brokenCard(n int) extract.CardSnapshot {
	card := testCard(n)
	card.Images = nil
	card.VideoSrc = ""
	return card
}

func cardsRange(from, to int) []extract.CardSnapshot {
	var out []extract.CardSnapshot
	for n := from; n < to; n++ {
		out = append(out, testCard(n))
	}
	return out
}
