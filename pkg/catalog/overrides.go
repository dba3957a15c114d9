package catalog

import (
	"maps"

	"github.com/Checker-Finance/marketdata/pkg/model"
)

// overrides maps a CoinMarketCap id to the CryptoCompare display name it
// must match. A trailing "*" marks the CryptoCompare entry that is distinct
// from an unrelated coin sharing the same ticker symbol.
var overrides = map[string]string{
	"bytom":                 "BTM*",
	"bitgem":                "BTG*",
	"batcoin":               "BAT*",
	"kingn-coin":            "KNC*",
	"rcoin":                 "RCN*",
	"nimiq":                 "NET*",
	"encryptotel-eth":       "ETT*",
	"dao-casino":            "BET*",
	"prochain":              "PRO*",
	"thegcccoin":            "GCC*",
	"bitcoin-silver":        "BTCS*",
	"arcade-token":          "ARC*",
	"accelerator-network":   "ACC*",
	"huncoin":               "HNC*",
	"cybermiles":            "CMT*",
	"cash-poker-pro":        "CASH*",
	"mantracoin":            "MNC*",
	"international-diamond": "XID*",
	"qbao":                  "QBT*",
	"iconomi":               "ICN",
	"iota":                  "IOT",
}

// Override returns the override symbol for a CoinMarketCap id.
func Override(id string) (string, bool) {
	s, ok := overrides[id]
	return s, ok
}

// Overrides returns a copy of the override table.
func Overrides() map[string]string {
	return maps.Clone(overrides)
}

// NormalizedSymbol is the symbol a ticker entry is matched on: the override
// when one exists for its id, its own symbol otherwise.
func NormalizedSymbol(t model.MarketCapTicker) string {
	if s, ok := overrides[t.ID]; ok {
		return s
	}
	return t.Symbol
}
