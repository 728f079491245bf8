package models

// CandlesRequest queries stored candles for inspection and backtesting.
// From and To accept RFC3339 timestamps or unix seconds; when omitted
// the range defaults to the trailing 24 hours.
type CandlesRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	From   string `query:"from"`
	To     string `query:"to"`
	TF     string `query:"tf" default:"1m"`
	Limit  int    `query:"limit" default:"10000" validate:"gte=0,lte=50000"`
}
