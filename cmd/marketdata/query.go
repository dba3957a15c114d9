package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Checker-Finance/marketdata/pkg/config"
	"github.com/Checker-Finance/marketdata/pkg/cryptocompare"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

func newCoinsCommand(cfg *config.Config) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Print the reconciled coin catalog ordered by market-cap rank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd.Context(), cfg, logger.L())
			if err != nil {
				return err
			}
			defer d.Close()

			coins, err := d.reconciler.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && limit < len(coins) {
				coins = coins[:limit]
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), coins)
			}
			return writeCoins(cmd.OutOrStdout(), coins)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of coins to print (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newPriceCommand(cfg *config.Config) *cobra.Command {
	var exchanges []string
	var noConversion bool

	cmd := &cobra.Command{
		Use:     "price FSYM TSYM [TSYM...]",
		Short:   "Print the current price of FSYM in each TSYM",
		Example: "  marketdata price BTC USD EUR --exchange Kraken",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd.Context(), cfg, logger.L())
			if err != nil {
				return err
			}
			defer d.Close()

			tsyms := make([]string, 0, len(args)-1)
			for _, a := range args[1:] {
				tsyms = append(tsyms, strings.ToUpper(a))
			}
			prices, err := d.cc.Price(cmd.Context(), strings.ToUpper(args[0]), tsyms, cryptocompare.PriceOptions{
				Exchanges:         exchanges,
				DisableConversion: noConversion,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), prices)
		},
	}
	cmd.Flags().StringSliceVarP(&exchanges, "exchange", "e", nil, "restrict to exchanges (default CCCAGG)")
	cmd.Flags().BoolVar(&noConversion, "no-conversion", false, "disable conversion through intermediate currencies")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCoins(w io.Writer, coins []model.ReconciledCoin) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tCOIN\tCC ID\tCMC ID")
	for _, c := range coins {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.Rank, c.Name, c.CoinName, c.ID, c.CrossRefID)
	}
	return tw.Flush()
}
