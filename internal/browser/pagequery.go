package browser

import (
	"context"
	"fmt"

	"github.com/vigiads/vigia/internal/extract"
)

// cardSnapshotScript captures every rendered ad card as plain data. Field
// names must stay aligned with the extract.CardSnapshot JSON tags. No
// interpretation happens here: classification, validation and parsing all
// run host-side.
const cardSnapshotScript = `
(() => {
	const cards = Array.from(document.querySelectorAll('[role="article"]'));

	if (cards.length === 0) {
		for (const div of document.querySelectorAll('div')) {
			const text = div.innerText || '';
			if (text.includes('Identificação da biblioteca') || text.includes('Library ID')) {
				if (!div.querySelector('div > div') || text.length < 6000) {
					cards.push(div);
				}
			}
		}
	}

	const clean = (s) => (s || '').replace(/\s+/g, ' ').trim();

	return cards.map((card) => {
		const headingTexts = [];
		for (const el of card.querySelectorAll('strong, span[dir="auto"], h2, h3, h4')) {
			const t = clean(el.textContent);
			if (t) headingTexts.push(t);
		}

		const blockTexts = [];
		for (const el of card.querySelectorAll('div[dir="auto"]')) {
			const t = (el.innerText || '').trim();
			if (t) blockTexts.push(t);
		}

		const links = [];
		for (const a of card.querySelectorAll('a[href]')) {
			links.push({
				href: a.getAttribute('href') || '',
				text: clean(a.textContent),
				ariaLabel: a.getAttribute('aria-label') || '',
			});
		}

		const images = [];
		for (const img of card.querySelectorAll('img')) {
			images.push({
				src: img.src || '',
				srcset: img.getAttribute('srcset') || '',
				naturalWidth: img.naturalWidth || 0,
			});
		}

		let videoSrc = '';
		for (const v of card.querySelectorAll('video')) {
			const src = v.src || (v.querySelector('source') || {}).src || '';
			if (src) { videoSrc = src; break; }
		}

		let hasPlatformSection = false;
		const iconPositions = [];
		for (const el of card.querySelectorAll('span, div')) {
			const t = clean(el.textContent);
			if (t === 'Plataformas' || t === 'Platforms') {
				hasPlatformSection = true;
				const region = el.closest('div');
				if (region) {
					for (const icon of region.parentElement.querySelectorAll('div[style*="mask-position"], i[style*="mask-position"]')) {
						const m = (icon.getAttribute('style') || '').match(/mask-position:\s*([^;]+)/);
						if (m) iconPositions.push(m[1].trim());
					}
				}
				break;
			}
		}

		const accessibilityTexts = [];
		for (const el of card.querySelectorAll('[aria-label], [alt], [title]')) {
			for (const attr of ['aria-label', 'alt', 'title']) {
				const t = clean(el.getAttribute(attr));
				if (t) accessibilityTexts.push(t);
			}
		}

		let carouselMarkers = card.querySelectorAll('[aria-label*="carousel" i], [aria-label*="carrossel" i]').length;

		return {
			fullText: (card.innerText || '').trim(),
			headingTexts,
			blockTexts,
			links,
			images,
			videoSrc,
			hasPlatformSection,
			iconPositions,
			accessibilityTexts,
			carouselMarkers,
		};
	});
})()
`

// readyScript reports whether the results page rendered past its shell.
const readyScript = `
(() => {
	const text = (document.body && document.body.innerText) || '';
	return /anúncios|resultados|biblioteca de anúncios|\bads\b|\bresults\b|ad library/i.test(text) && text.length > 500;
})()
`

// consentScript dismisses the cookie banner when present.
const consentScript = `
(() => {
	const labels = ['Permitir todos os cookies', 'Allow all cookies', 'Aceitar todos', 'Accept all'];
	for (const btn of document.querySelectorAll('div[role="button"], button')) {
		const t = ((btn.textContent || '').trim());
		if (labels.some((l) => t === l || (btn.getAttribute('aria-label') || '') === l)) {
			btn.click();
			return true;
		}
	}
	return false;
})()
`

// SnapshotCards captures every rendered ad card on the current page.
func (s *Session) SnapshotCards(ctx context.Context) ([]extract.CardSnapshot, error) {
	var cards []extract.CardSnapshot
	if err := s.Evaluate(ctx, cardSnapshotScript, &cards); err != nil {
		return nil, fmt.Errorf("snapshot cards: %w", err)
	}
	return cards, nil
}

// PageReady reports whether the results page has rendered real content.
func (s *Session) PageReady(ctx context.Context) (bool, error) {
	var ready bool
	if err := s.Evaluate(ctx, readyScript, &ready); err != nil {
		return false, err
	}
	return ready, nil
}

// DismissConsent clicks through the cookie banner if one is showing.
func (s *Session) DismissConsent(ctx context.Context) bool {
	var clicked bool
	if err := s.Evaluate(ctx, consentScript, &clicked); err != nil {
		s.log.Debug().Err(err).Msg("consent dismiss failed")
		return false
	}
	if clicked {
		s.log.Debug().Msg("cookie consent dismissed")
	}
	return clicked
}
