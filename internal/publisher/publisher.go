package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/marketdata/internal/metrics"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

// CatalogReconciledSubject carries model.CatalogReconciled payloads.
const CatalogReconciledSubject = "evt.marketdata.catalog.reconciled.v1"

// JetStream is the subset of nats.JetStreamContext the publisher uses.
type JetStream interface {
	PublishMsg(msg *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// Publisher wraps a NATS connection and publishes canonical event envelopes.
type Publisher struct {
	nc      *nats.Conn
	js      JetStream
	subject string
	service string
}

// New creates a Publisher on a JetStream context of nc.
func New(nc *nats.Conn, subject, service string) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	p := NewWithJetStream(js, subject, service)
	p.nc = nc
	return p, nil
}

// NewWithJetStream builds a Publisher over an existing JetStream context.
func NewWithJetStream(js JetStream, subject, service string) *Publisher {
	if subject == "" {
		subject = CatalogReconciledSubject
	}
	return &Publisher{js: js, subject: subject, service: service}
}

// EnsureStream creates stream over the "evt.marketdata.>" subjects unless it exists.
func (p *Publisher) EnsureStream(stream string) error {
	_, err := p.js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", stream, err)
	}
	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{"evt.marketdata.>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("add stream %s: %w", stream, err)
	}
	logger.S().Infow("publisher.stream_created", "stream", stream)
	return nil
}

// PublishEnvelope serializes and publishes env. An empty subject uses the default.
func (p *Publisher) PublishEnvelope(ctx context.Context, subject string, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		logger.S().Errorw("publisher.marshal_failed",
			"subject", subject,
			"event_type", env.EventType,
			"error", err,
		)
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	if subject == "" {
		subject = p.subject
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}
	// JetStream dedupes on Nats-Msg-Id within the stream's duplicate window.
	msg.Header.Set(nats.MsgIdHdr, env.ID.String())

	start := time.Now()
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	metrics.ObserveDuration(metrics.NATSMessageLatency, start, subject)

	if err != nil {
		logger.S().Errorw("publisher.publish_failed",
			"subject", subject,
			"event_type", env.EventType,
			"error", err,
		)
		metrics.IncNATSMessage(subject, "error")
		return err
	}

	logger.S().Debugw("publisher.publish_success",
		"subject", subject,
		"event_type", env.EventType,
	)
	metrics.IncNATSMessage(subject, "ok")
	return nil
}

// PublishCatalogReconciled emits a catalog.reconciled event carrying the
// first topN coins of the reconciled list.
func (p *Publisher) PublishCatalogReconciled(ctx context.Context, coins []model.ReconciledCoin, took time.Duration, topN int) error {
	payload := model.CatalogReconciled{
		Matched:    len(coins),
		DurationMS: took.Milliseconds(),
	}
	for i, c := range coins {
		if i >= topN {
			break
		}
		payload.Top = append(payload.Top, model.CatalogTopN{Symbol: c.Name, CrossRefID: c.CrossRefID, Rank: c.Rank})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	env := &model.Envelope{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		Topic:         p.subject,
		EventType:     "marketdata.catalog.reconciled",
		Version:       "1.0.0",
		Source:        p.service,
		Timestamp:     time.Now().UTC(),
		Payload:       data,
	}
	return p.PublishEnvelope(ctx, p.subject, env)
}

func (p *Publisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
}
