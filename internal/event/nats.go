// internal/event/nats.go
// Package event publishes archive lifecycle events over NATS JetStream.
// Events feed downstream consumers (site cache invalidation, audit trail);
// when NATS is not configured the service runs with a no-op publisher.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// Publisher defines the event publishing operations used by the repository.
type Publisher interface {
	// Record lifecycle events
	PublishRecordCreated(ctx context.Context, record model.MartyrRecord) error
	PublishRecordUpdated(ctx context.Context, record model.MartyrRecord) error
	PublishRecordDeleted(ctx context.Context, recordID string) error

	// Media events
	PublishMediaUploaded(ctx context.Context, recordID string, asset model.MediaAsset) error

	// Engagement events
	PublishCandleLit(ctx context.Context, recordID string, total int64) error

	// Close closes the publisher connection.
	Close() error
}

// noop is used when NATS is not configured. All methods succeed silently.
type noop struct{}

func (n *noop) Close() error { return nil }

func (n *noop) PublishRecordCreated(ctx context.Context, record model.MartyrRecord) error {
	return nil
}

func (n *noop) PublishRecordUpdated(ctx context.Context, record model.MartyrRecord) error {
	return nil
}

func (n *noop) PublishRecordDeleted(ctx context.Context, recordID string) error { return nil }

func (n *noop) PublishMediaUploaded(ctx context.Context, recordID string, asset model.MediaAsset) error {
	return nil
}

func (n *noop) PublishCandleLit(ctx context.Context, recordID string, total int64) error {
	return nil
}

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc *nats.Conn
	js nats.JetStreamContext

	// createDedup suppresses duplicate created/uploaded events within a
	// 2-minute window (retried requests). Update, delete and candle events
	// are never deduplicated.
	createDedup map[string]time.Time
	mutex       sync.RWMutex
}

// NewPublisherFromEnv creates a publisher based on ARCHIVE_NATS_URL. If NATS
// is not configured or the connection fails, it returns a no-op publisher so
// the service can run without event streaming.
func NewPublisherFromEnv() Publisher {
	url := os.Getenv("ARCHIVE_NATS_URL")
	if url == "" {
		return &noop{}
	}

	nc, err := nats.Connect(url)
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	if err := initStreams(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	return &natsPub{
		nc:          nc,
		js:          js,
		createDedup: make(map[string]time.Time),
	}
}

// initStreams creates the ARCHIVE_RECORDS and ARCHIVE_MEDIA streams.
func initStreams(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      "ARCHIVE_RECORDS",
		Subjects:  []string{"archive.records.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create ARCHIVE_RECORDS stream: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      "ARCHIVE_MEDIA",
		Subjects:  []string{"archive.media.*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Discard:   nats.DiscardOld,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create ARCHIVE_MEDIA stream: %w", err)
	}

	return nil
}

// EventEnvelope is the standard wrapper around every published event.
type EventEnvelope struct {
	Type          string    `json:"type"`
	Version       string    `json:"version"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId"`
	Payload       any       `json:"payload"`
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// shouldDedup reports whether the key was published within the last 2 minutes.
func (p *natsPub) shouldDedup(key string) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	last, exists := p.createDedup[key]
	return exists && time.Since(last) < 2*time.Minute
}

// updateDedup records a publish time for a key and prunes stale entries.
func (p *natsPub) updateDedup(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	cutoff := time.Now().Add(-5 * time.Minute)
	for k, t := range p.createDedup {
		if t.Before(cutoff) {
			delete(p.createDedup, k)
		}
	}
	p.createDedup[key] = time.Now()
}

// publish wraps a payload in the envelope and publishes it on subject.
func (p *natsPub) publish(subject string, payload any) error {
	envelope := EventEnvelope{
		Type:          subject,
		Version:       "1.0.0",
		OccurredAt:    time.Now().UTC(),
		CorrelationID: uuid.New().String(),
		Payload:       payload,
	}

	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, b)
	return err
}

// PublishRecordCreated publishes a record created event, deduplicated per
// record id against retried creates.
func (p *natsPub) PublishRecordCreated(ctx context.Context, record model.MartyrRecord) error {
	if p.shouldDedup("record:" + record.ID) {
		return nil
	}
	if err := p.publish("archive.records.created", record); err != nil {
		return err
	}
	p.updateDedup("record:" + record.ID)
	return nil
}

// PublishRecordUpdated publishes a record updated event.
func (p *natsPub) PublishRecordUpdated(ctx context.Context, record model.MartyrRecord) error {
	return p.publish("archive.records.updated", record)
}

// PublishRecordDeleted publishes a record deleted event carrying only the id.
func (p *natsPub) PublishRecordDeleted(ctx context.Context, recordID string) error {
	return p.publish("archive.records.deleted", map[string]string{"recordId": recordID})
}

// PublishMediaUploaded publishes a media uploaded event, deduplicated per
// asset id against retried uploads.
func (p *natsPub) PublishMediaUploaded(ctx context.Context, recordID string, asset model.MediaAsset) error {
	if p.shouldDedup("asset:" + asset.ID) {
		return nil
	}
	payload := map[string]any{"recordId": recordID, "asset": asset}
	if err := p.publish("archive.media.uploaded", payload); err != nil {
		return err
	}
	p.updateDedup("asset:" + asset.ID)
	return nil
}

// PublishCandleLit publishes a candle lit event with the new total.
func (p *natsPub) PublishCandleLit(ctx context.Context, recordID string, total int64) error {
	payload := map[string]any{"recordId": recordID, "candles": total}
	return p.publish("archive.records.candle", payload)
}
