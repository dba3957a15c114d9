package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/marketdata/pkg/config"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

func TestWriteCoins(t *testing.T) {
	var buf bytes.Buffer
	err := writeCoins(&buf, []model.ReconciledCoin{
		{Coin: model.Coin{ID: "1182", Name: "BTC", CoinName: "Bitcoin"}, CrossRefID: "bitcoin", Rank: 1},
		{Coin: model.Coin{ID: "1010", Name: "BTM*", CoinName: "Bytom"}, CrossRefID: "bytom", Rank: 10},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[2], "bytom")
	assert.Contains(t, lines[2], "BTM*")
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand(&config.Config{})

	for _, name := range []string{"serve", "coins", "price"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	price, _, _ := root.Find([]string{"price"})
	assert.Error(t, price.Args(price, []string{"BTC"}), "price needs at least one target symbol")
	assert.NoError(t, price.Args(price, []string{"BTC", "USD"}))
}

func TestNewStore_UnknownBackend(t *testing.T) {
	_, err := newStore(context.Background(), &config.Config{CacheBackend: "memcached"})
	require.Error(t, err)

	s, err := newStore(context.Background(), &config.Config{CacheBackend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())
	_ = s.Close()
}
