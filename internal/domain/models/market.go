package models

import "time"

// MarketSnapshot carries the raw indicators the market context stage
// classifies. Produced by a MarketIndicatorSource.
type MarketSnapshot struct {
	Symbol               string
	Trend                float64 // signed fractional trend, e.g. +0.06 = +6%
	Momentum             float64
	ImpliedVolatility    float64
	HistoricalVolatility float64
	FearIndex            float64 // [0,1]
	AsOf                 time.Time
}

// Candle is an OHLCV record used to derive market indicators.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
