package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Checker-Finance/marketdata/pkg/config"
	"github.com/Checker-Finance/marketdata/pkg/logger"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if err := newRootCommand(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:     "marketdata",
		Short:   "CryptoCompare market data with a CoinMarketCap-ranked coin catalog",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&cfg.CacheBackend, "cache", cfg.CacheBackend, "response cache backend: memory or redis")

	root.AddCommand(
		newServeCommand(cfg),
		newCoinsCommand(cfg),
		newPriceCommand(cfg),
	)
	return root
}
