package snapshot

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/internal/metrics"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

// DefaultTable holds the latest reconciled catalog.
const DefaultTable = "reference.coin_crossref"

// DBExecutor defines the subset of pgxpool.Pool the writer needs.
type DBExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// Writer upserts reconciled coins into the cross-reference table.
type Writer struct {
	db     DBExecutor
	logger *zap.Logger
	table  string
	now    func() time.Time
}

// NewWriter constructs a writer for table (schema-qualified, lower case).
func NewWriter(db DBExecutor, log *zap.Logger, table string) (*Writer, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("snapshot: invalid table name %q", table)
	}
	return &Writer{db: db, logger: logger.OrNop(log), table: table, now: time.Now}, nil
}

// Write upserts every coin keyed by CryptoCompare id, then removes rows
// not touched by this run. It returns the number of upserted rows.
func (w *Writer) Write(ctx context.Context, coins []model.ReconciledCoin) (int, error) {
	if len(coins) == 0 {
		// an empty list means nothing matched upstream; keep the last good snapshot
		w.logger.Warn("snapshot.empty_skipped", zap.String("table", w.table))
		return 0, nil
	}
	refreshedAt := w.now().UTC()

	upsert := fmt.Sprintf(`
		INSERT INTO %s (
			s_cc_id,
			s_symbol,
			s_name,
			s_coin_name,
			s_full_name,
			s_cmc_id,
			i_cmc_rank,
			dt_refreshed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (s_cc_id)
		DO UPDATE SET
			s_symbol = EXCLUDED.s_symbol,
			s_name = EXCLUDED.s_name,
			s_coin_name = EXCLUDED.s_coin_name,
			s_full_name = EXCLUDED.s_full_name,
			s_cmc_id = EXCLUDED.s_cmc_id,
			i_cmc_rank = EXCLUDED.i_cmc_rank,
			dt_refreshed = EXCLUDED.dt_refreshed;
	`, w.table)

	n := 0
	for _, c := range coins {
		_, err := w.db.Exec(ctx, upsert,
			c.ID,         // s_cc_id
			c.Symbol,     // s_symbol
			c.Name,       // s_name
			c.CoinName,   // s_coin_name
			c.FullName,   // s_full_name
			c.CrossRefID, // s_cmc_id
			c.Rank,       // i_cmc_rank
			refreshedAt,  // dt_refreshed
		)
		if err != nil {
			metrics.IncError("snapshot", "upsert_failed")
			w.logger.Error("snapshot.upsert_failed",
				zap.String("cc_id", c.ID),
				zap.String("cmc_id", c.CrossRefID),
				zap.Error(err),
			)
			return n, fmt.Errorf("upsert %s: %w", c.ID, err)
		}
		n++
	}

	tag, err := w.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE dt_refreshed < $1`, w.table), refreshedAt)
	if err != nil {
		metrics.IncError("snapshot", "prune_failed")
		w.logger.Warn("snapshot.prune_failed", zap.Error(err))
		return n, fmt.Errorf("prune: %w", err)
	}

	w.logger.Info("snapshot.written",
		zap.String("table", w.table),
		zap.Int("upserted", n),
		zap.Int64("pruned", tag.RowsAffected()),
	)
	return n, nil
}
