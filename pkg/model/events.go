package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event wrapper published on NATS.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// CatalogReconciled is the payload of catalog.reconciled events.
type CatalogReconciled struct {
	Matched    int           `json:"matched"`
	DurationMS int64         `json:"duration_ms"`
	Top        []CatalogTopN `json:"top"`
}

// CatalogTopN is a compact view of one reconciled coin.
type CatalogTopN struct {
	Symbol     string `json:"symbol"`
	CrossRefID string `json:"cmc_id"`
	Rank       int    `json:"rank"`
}
