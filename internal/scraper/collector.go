package scraper

import (
	"context"
	"math/rand"
	"time"

	"github.com/vigiads/vigia/internal/extract"
	"github.com/vigiads/vigia/internal/logger"
	"github.com/vigiads/vigia/internal/models"
)

// scroll pacing tuned against the live feed: aggressive enough to outrun
// the lazy loader, slow enough to read as a human session
const (
	initialScrollBursts    = 10
	initialScrollViewports = 2.0
	scrollViewports        = 1.8
	scrollPauseBase        = 2 * time.Second
	scrollPauseJitter      = time.Second

	maxScrollAttempts      = 60
	maxConsecutiveNoNewAds = 8
)

// CollectOptions bounds one collection pass over an open results page.
type CollectOptions struct {
	MaxAds int
	Query  extract.Query
}

// CollectResult is what one collection pass produced.
type CollectResult struct {
	Records     []*models.AdRecord
	CardsSeen   int
	ParseErrors int
}

// Collector walks an already-opened results page, scrolling the infinite
// feed and turning each card seen exactly once into a record. Records keep
// first-seen order.
type Collector struct {
	page   Page
	parser *extract.Parser
	log    *logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewCollector creates a collector over one page.
func NewCollector(page Page, parser *extract.Parser, log *logger.Logger) *Collector {
	return &Collector{
		page:   page,
		parser: parser,
		log:    log.Component("collector"),
		sleep:  sleepCtx,
	}
}

// Collect scrolls until MaxAds records are gathered, the feed stops
// yielding new cards, or the scroll budget runs out.
func (c *Collector) Collect(ctx context.Context, opts CollectOptions) (*CollectResult, error) {
	result := &CollectResult{}
	seen := make(map[string]struct{})
	consecutiveNoNew := 0

	// a few fast scrolls up front get the lazy loader going
	for i := 0; i < initialScrollBursts; i++ {
		if err := c.page.ScrollBy(ctx, initialScrollViewports); err != nil {
			return result, err
		}
	}

	for attempt := 0; attempt < maxScrollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			c.log.Info().Int("collected", len(result.Records)).Msg("collection cancelled")
			return result, ctx.Err()
		default:
		}

		done, accepted, err := c.harvest(ctx, opts, seen, result)
		if err != nil {
			return result, err
		}
		if done {
			break
		}

		// only accepted records keep the feed alive; a stream of fresh
		// cards that all fail validity still counts as an empty pass
		if accepted == 0 {
			consecutiveNoNew++
			if consecutiveNoNew >= maxConsecutiveNoNewAds {
				c.log.Info().Int("collected", len(result.Records)).Msg("feed exhausted, stopping")
				break
			}
		} else {
			consecutiveNoNew = 0
		}

		if err := c.page.ScrollBy(ctx, scrollViewports); err != nil {
			return result, err
		}
		pause := scrollPauseBase + time.Duration(rand.Int63n(int64(scrollPauseJitter)))
		if err := c.sleep(ctx, pause); err != nil {
			return result, err
		}
	}

	c.log.Info().
		Int("collected", len(result.Records)).
		Int("cards_seen", result.CardsSeen).
		Int("parse_errors", result.ParseErrors).
		Msg("collection finished")
	return result, nil
}

// harvest snapshots the page and parses every card not seen before.
// Returns done=true once MaxAds is reached, and the count of records
// accepted this pass.
func (c *Collector) harvest(ctx context.Context, opts CollectOptions, seen map[string]struct{}, result *CollectResult) (bool, int, error) {
	cards, err := c.page.SnapshotCards(ctx)
	if err != nil {
		return false, 0, err
	}

	accepted := 0
	for i := range cards {
		card := &cards[i]

		key := c.parser.Key(card)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result.CardsSeen++

		record, err := c.parser.Parse(card, opts.Query)
		if err != nil {
			result.ParseErrors++
			c.log.Debug().Err(err).Msg("card rejected")
			continue
		}

		result.Records = append(result.Records, record)
		accepted++
		if opts.MaxAds > 0 && len(result.Records) >= opts.MaxAds {
			c.log.Info().Int("collected", len(result.Records)).Msg("reached requested ad count")
			return true, accepted, nil
		}
	}

	return false, accepted, nil
}
