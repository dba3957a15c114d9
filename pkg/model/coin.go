package model

import "github.com/shopspring/decimal"

// Coin is one entry of the CryptoCompare coin catalog (all/coinlist Data).
type Coin struct {
	ID                  string `json:"Id"`
	URL                 string `json:"Url,omitempty"`
	ImageURL            string `json:"ImageUrl,omitempty"`
	Name                string `json:"Name"`
	Symbol              string `json:"Symbol"`
	CoinName            string `json:"CoinName,omitempty"`
	FullName            string `json:"FullName,omitempty"`
	Algorithm           string `json:"Algorithm,omitempty"`
	ProofType           string `json:"ProofType,omitempty"`
	FullyPremined       string `json:"FullyPremined,omitempty"`
	TotalCoinSupply     string `json:"TotalCoinSupply,omitempty"`
	PreMinedValue       string `json:"PreMinedValue,omitempty"`
	TotalCoinsFreeFloat string `json:"TotalCoinsFreeFloat,omitempty"`
	SortOrder           string `json:"SortOrder,omitempty"`
	Sponsored           bool   `json:"Sponsored,omitempty"`
}

// MarketCapTicker is one entry of the CoinMarketCap v1 ticker.
// Rank is kept string-encoded as the provider sends it.
type MarketCapTicker struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Symbol           string              `json:"symbol"`
	Rank             string              `json:"rank"`
	PriceUSD         decimal.NullDecimal `json:"price_usd"`
	PriceBTC         decimal.NullDecimal `json:"price_btc"`
	Volume24hUSD     decimal.NullDecimal `json:"24h_volume_usd"`
	MarketCapUSD     decimal.NullDecimal `json:"market_cap_usd"`
	AvailableSupply  decimal.NullDecimal `json:"available_supply"`
	TotalSupply      decimal.NullDecimal `json:"total_supply"`
	MaxSupply        decimal.NullDecimal `json:"max_supply"`
	PercentChange1h  decimal.NullDecimal `json:"percent_change_1h"`
	PercentChange24h decimal.NullDecimal `json:"percent_change_24h"`
	PercentChange7d  decimal.NullDecimal `json:"percent_change_7d"`
	LastUpdated      string              `json:"last_updated,omitempty"`
}

// ReconciledCoin is a CryptoCompare coin annotated with its CoinMarketCap
// identifier and numeric rank. Both annotations are always present.
type ReconciledCoin struct {
	Coin
	CrossRefID string `json:"cmcId"`
	Rank       int    `json:"cmcRank"`
}
