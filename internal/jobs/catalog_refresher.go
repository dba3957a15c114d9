package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/internal/metrics"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

// Reconciler produces the reconciled catalog.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]model.ReconciledCoin, error)
}

// SnapshotWriter persists a reconciled catalog.
type SnapshotWriter interface {
	Write(ctx context.Context, coins []model.ReconciledCoin) (int, error)
}

// EventPublisher announces a completed reconciliation.
type EventPublisher interface {
	PublishCatalogReconciled(ctx context.Context, coins []model.ReconciledCoin, took time.Duration, topN int) error
}

const eventTopN = 10

// CatalogRefresher periodically reconciles the coin catalog, keeps the
// latest result in memory, writes it to Postgres and emits a NATS event.
// Writer and publisher are optional.
type CatalogRefresher struct {
	logger     *zap.Logger
	reconciler Reconciler
	writer     SnapshotWriter
	publisher  EventPublisher
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once

	mu        sync.RWMutex
	latest    []model.ReconciledCoin
	refreshed time.Time
}

// NewCatalogRefresher constructs a background job that runs every interval.
func NewCatalogRefresher(log *zap.Logger, rec Reconciler, writer SnapshotWriter, pub EventPublisher, interval time.Duration) *CatalogRefresher {
	return &CatalogRefresher{
		logger:     logger.OrNop(log),
		reconciler: rec,
		writer:     writer,
		publisher:  pub,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start runs one refresh immediately, then loops until Stop or ctx is done.
func (r *CatalogRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("catalog_refresher.started", zap.Duration("interval", r.interval))
	_ = r.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			_ = r.RunOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("catalog_refresher.stopped", zap.String("reason", "manual stop"))
			return
		case <-ctx.Done():
			r.logger.Info("catalog_refresher.stopped", zap.String("reason", "context canceled"))
			return
		}
	}
}

// Stop halts the refresher. Safe to call more than once.
func (r *CatalogRefresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Latest returns the last successful reconciliation and when it completed.
func (r *CatalogRefresher) Latest() ([]model.ReconciledCoin, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.refreshed
}

// RunOnce executes one refresh cycle. Only a reconcile failure is returned;
// snapshot and publish failures are logged and counted.
func (r *CatalogRefresher) RunOnce(ctx context.Context) error {
	start := time.Now()
	r.logger.Info("catalog_refresher.running")

	coins, err := r.reconciler.Reconcile(ctx)
	if err != nil {
		metrics.IncError("catalog_refresher", "reconcile_failed")
		r.logger.Error("catalog_refresher.reconcile_failed", zap.Error(err))
		return err
	}

	r.mu.Lock()
	r.latest = coins
	r.refreshed = time.Now().UTC()
	r.mu.Unlock()

	if r.writer != nil {
		if _, err := r.writer.Write(ctx, coins); err != nil {
			r.logger.Warn("catalog_refresher.snapshot_failed", zap.Error(err))
		}
	}

	// Emit event for downstream consumers
	if r.publisher != nil {
		if err := r.publisher.PublishCatalogReconciled(ctx, coins, time.Since(start), eventTopN); err != nil {
			r.logger.Warn("catalog_refresher.nats_publish_failed", zap.Error(err))
		}
	}

	metrics.SetLastRefresh(time.Now())
	r.logger.Info("catalog_refresher.success",
		zap.Int("matched", len(coins)),
		zap.Duration("duration", time.Since(start)))
	return nil
}
