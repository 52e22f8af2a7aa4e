// Package publish writes finished batches as static JSON documents.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

const (
	contentTypeJSON = "application/json"
	latestName      = "latest.json"
)

// Document is the published shape of one day's quests.
type Document struct {
	Date        string       `json:"date"`
	RunID       string       `json:"run_id,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Quests      []quest.Idea `json:"quests"`
}

type Publisher struct {
	bucket Bucket
	prefix string
}

func New(bucket Bucket, prefix string) *Publisher {
	return &Publisher{bucket: bucket, prefix: prefix}
}

// DayKey is the object key for date.
func (p *Publisher) DayKey(date string) string {
	return path.Join(p.prefix, date+".json")
}

func (p *Publisher) latestKey() string {
	return path.Join(p.prefix, latestName)
}

// Publish writes the day document, then moves the latest pointer forward if
// date is not older than what it already names. The latest pointer is best effort.
func (p *Publisher) Publish(ctx context.Context, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", doc.Date, err)
	}
	if err := p.bucket.Put(ctx, p.DayKey(doc.Date), data, contentTypeJSON); err != nil {
		return fmt.Errorf("publishing %s: %w", doc.Date, err)
	}

	log := logging.From(ctx)
	current, err := p.Latest(ctx)
	if err != nil && !errors.Is(err, ErrNotExist) {
		log.Warn("reading latest pointer failed", "error", err)
		return nil
	}
	if current != nil && current.Date > doc.Date {
		return nil
	}
	if err := p.bucket.Put(ctx, p.latestKey(), data, contentTypeJSON); err != nil {
		log.Warn("updating latest pointer failed", "date", doc.Date, "error", err)
	}
	return nil
}

// Day reads a published day document.
func (p *Publisher) Day(ctx context.Context, date string) (*Document, error) {
	return p.read(ctx, p.DayKey(date))
}

// Latest reads the most recently published document.
func (p *Publisher) Latest(ctx context.Context) (*Document, error) {
	return p.read(ctx, p.latestKey())
}

func (p *Publisher) read(ctx context.Context, key string) (*Document, error) {
	data, err := p.bucket.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &doc, nil
}
