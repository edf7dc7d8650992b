// Package publisher emits crawl events onto the message bus.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vigiads/vigia/internal/models"
)

// subjects carried by the VIGIA stream
const (
	SubjectAdScraped    = "ads.scraped"
	SubjectRunCompleted = "runs.completed"
)

// AdScrapedEvent is emitted once per newly discovered ad.
type AdScrapedEvent struct {
	RunID        string           `json:"run_id"`
	Identity     string           `json:"identity"`
	LibraryID    string           `json:"library_id,omitempty"`
	Advertiser   string           `json:"advertiser"`
	MediaType    models.MediaType `json:"media_type"`
	Status       models.AdStatus  `json:"status"`
	Keyword      string           `json:"keyword"`
	Country      string           `json:"country"`
	DiscoveredAt time.Time        `json:"discovered_at"`
}

// RunCompletedEvent is emitted once per finished crawl run.
type RunCompletedEvent struct {
	RunID          string    `json:"run_id"`
	Keyword        string    `json:"keyword"`
	Country        string    `json:"country"`
	Success        bool      `json:"success"`
	TotalCollected int       `json:"total_collected"`
	NewRecords     int       `json:"new_records"`
	FinishedAt     time.Time `json:"finished_at"`
}

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher pushes crawl events over NATS.
type NATSPublisher struct {
	conn NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// PublishAdScraped publishes a discovered-ad event.
func (p *NATSPublisher) PublishAdScraped(ctx context.Context, event AdScrapedEvent) error {
	return p.publish(SubjectAdScraped, event)
}

// PublishRunCompleted publishes a run summary event.
func (p *NATSPublisher) PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error {
	return p.publish(SubjectRunCompleted, event)
}

func (p *NATSPublisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}
