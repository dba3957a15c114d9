package model

import "github.com/shopspring/decimal"

// Exchanges maps exchange -> from symbol -> supported to symbols.
type Exchanges map[string]map[string][]string

// PriceFull is the RAW block of pricemultifull / generateAvg for one pair.
type PriceFull struct {
	Type            string          `json:"TYPE,omitempty"`
	Market          string          `json:"MARKET"`
	FromSymbol      string          `json:"FROMSYMBOL"`
	ToSymbol        string          `json:"TOSYMBOL"`
	Price           decimal.Decimal `json:"PRICE"`
	LastUpdate      int64           `json:"LASTUPDATE"`
	LastVolume      decimal.Decimal `json:"LASTVOLUME"`
	LastVolumeTo    decimal.Decimal `json:"LASTVOLUMETO"`
	VolumeDay       decimal.Decimal `json:"VOLUMEDAY"`
	VolumeDayTo     decimal.Decimal `json:"VOLUMEDAYTO"`
	Volume24Hour    decimal.Decimal `json:"VOLUME24HOUR"`
	Volume24HourTo  decimal.Decimal `json:"VOLUME24HOURTO"`
	OpenDay         decimal.Decimal `json:"OPENDAY"`
	HighDay         decimal.Decimal `json:"HIGHDAY"`
	LowDay          decimal.Decimal `json:"LOWDAY"`
	Open24Hour      decimal.Decimal `json:"OPEN24HOUR"`
	High24Hour      decimal.Decimal `json:"HIGH24HOUR"`
	Low24Hour       decimal.Decimal `json:"LOW24HOUR"`
	LastMarket      string          `json:"LASTMARKET"`
	Change24Hour    decimal.Decimal `json:"CHANGE24HOUR"`
	ChangePct24Hour decimal.Decimal `json:"CHANGEPCT24HOUR"`
	ChangeDay       decimal.Decimal `json:"CHANGEDAY"`
	ChangePctDay    decimal.Decimal `json:"CHANGEPCTDAY"`
	Supply          decimal.Decimal `json:"SUPPLY"`
	MarketCap       decimal.Decimal `json:"MKTCAP"`
	TotalVolume24H  decimal.Decimal `json:"TOTALVOLUME24H"`
	TotalVolume24HT decimal.Decimal `json:"TOTALVOLUME24HTO"`
}

// OHLCV is one candle of histoday / histohour / histominute.
type OHLCV struct {
	Time       int64           `json:"time"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	VolumeFrom decimal.Decimal `json:"volumefrom"`
	VolumeTo   decimal.Decimal `json:"volumeto"`
}

// TopVolume is a 24h volume row returned by top/pairs and top/exchanges.
type TopVolume struct {
	Exchange    string          `json:"exchange"`
	FromSymbol  string          `json:"fromSymbol"`
	ToSymbol    string          `json:"toSymbol"`
	Volume24h   decimal.Decimal `json:"volume24h"`
	Volume24hTo decimal.Decimal `json:"volume24hTo"`
}

type (
	TopPair     = TopVolume
	TopExchange = TopVolume
)
