package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/pkg/model"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls  []execCall
	failOn int // 1-based call index; 0 never fails
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.failOn == len(f.calls) {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}
	if strings.Contains(sql, "DELETE") {
		return pgconn.NewCommandTag("DELETE 3"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

var coins = []model.ReconciledCoin{
	{Coin: model.Coin{ID: "1182", Name: "BTC", Symbol: "BTC", CoinName: "Bitcoin"}, CrossRefID: "bitcoin", Rank: 1},
	{Coin: model.Coin{ID: "1010", Name: "BTM*", Symbol: "BTM*", CoinName: "Bytom"}, CrossRefID: "bytom", Rank: 10},
}

func TestWrite_UpsertsAndPrunes(t *testing.T) {
	db := &fakeDB{}
	w, err := NewWriter(db, zap.NewNop(), "")
	require.NoError(t, err)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	n, err := w.Write(context.Background(), coins)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, db.calls, 3)

	assert.Contains(t, db.calls[0].sql, "INSERT INTO reference.coin_crossref")
	assert.Equal(t, []any{"1182", "BTC", "BTC", "Bitcoin", "", "bitcoin", 1, fixed}, db.calls[0].args)
	assert.Equal(t, "bytom", db.calls[1].args[5])

	assert.Contains(t, db.calls[2].sql, "DELETE FROM reference.coin_crossref")
	assert.Equal(t, []any{fixed}, db.calls[2].args)
}

func TestWrite_StopsOnUpsertError(t *testing.T) {
	db := &fakeDB{failOn: 2}
	w, err := NewWriter(db, nil, "reference.coin_crossref")
	require.NoError(t, err)

	n, err := w.Write(context.Background(), coins)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "upsert 1010")
	assert.Len(t, db.calls, 2, "no prune after a failed upsert")
}

func TestWrite_PruneError(t *testing.T) {
	db := &fakeDB{failOn: 3}
	w, err := NewWriter(db, nil, "")
	require.NoError(t, err)

	n, err := w.Write(context.Background(), coins)
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, err.Error(), "prune")
}

func TestNewWriter_RejectsBadTable(t *testing.T) {
	_, err := NewWriter(&fakeDB{}, nil, "coins; DROP TABLE x")
	assert.Error(t, err)

	w, err := NewWriter(&fakeDB{}, nil, "coin_crossref")
	require.NoError(t, err)
	assert.Equal(t, "coin_crossref", w.table)
}

func TestWrite_EmptyKeepsSnapshot(t *testing.T) {
	db := &fakeDB{}
	w, err := NewWriter(db, nil, "")
	require.NoError(t, err)

	n, err := w.Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, db.calls)
}
