package models

import "time"

// SignalType is the directional recommendation carried by a signal.
type SignalType string

const (
	StrongBuy  SignalType = "STRONG_BUY"
	Buy        SignalType = "BUY"
	WeakBuy    SignalType = "WEAK_BUY"
	Hold       SignalType = "HOLD"
	Neutral    SignalType = "NEUTRAL"
	WeakSell   SignalType = "WEAK_SELL"
	Sell       SignalType = "SELL"
	StrongSell SignalType = "STRONG_SELL"
)

// IsBuyLike reports whether the type belongs to the buy direction group.
func (t SignalType) IsBuyLike() bool {
	switch t {
	case StrongBuy, Buy, WeakBuy:
		return true
	default:
		return false
	}
}

// IsSellLike reports whether the type belongs to the sell direction group.
func (t SignalType) IsSellLike() bool {
	switch t {
	case StrongSell, Sell, WeakSell:
		return true
	default:
		return false
	}
}

// Opposite returns the mirrored direction: buy-like maps to SELL,
// sell-like to BUY, anything else to HOLD.
func (t SignalType) Opposite() SignalType {
	switch {
	case t.IsBuyLike():
		return Sell
	case t.IsSellLike():
		return Buy
	default:
		return Hold
	}
}

// IsValidSignalType reports whether t is one of the known signal types.
func IsValidSignalType(t SignalType) bool {
	switch t {
	case StrongBuy, Buy, WeakBuy, Hold, Neutral, WeakSell, Sell, StrongSell:
		return true
	default:
		return false
	}
}

// ModelInfo identifies the upstream model that produced a signal.
type ModelInfo struct {
	Name    string
	Version string
}

// TradingSignal is the immutable input to every validation stage.
// Produced upstream; validators never modify it.
type TradingSignal struct {
	SignalID       string
	Symbol         string
	SignalType     SignalType
	Confidence     float64 // [0,1]
	Strength       float64 // [0,1]
	ExpectedReturn float64 // signed fraction
	ExpectedRisk   float64
	TimeHorizon    string
	TargetPrice    float64
	StopLossPrice  float64
	GeneratedAt    time.Time
	ExpiresAt      time.Time
	Model          ModelInfo
}

// ModelKey partitions per-model state by symbol and signal type.
func (s TradingSignal) ModelKey() string {
	return "model_" + s.Symbol + "_" + string(s.SignalType)
}

// PerformanceTracker holds per-model-key prediction bookkeeping.
// Stored behind a TrackerStore; validators receive value snapshots.
type PerformanceTracker struct {
	CreatedAt          time.Time
	TotalPredictions   int
	CorrectPredictions int
	RecentAccuracy     float64
}

// Accuracy returns lifetime accuracy, 0.5 before any prediction.
func (t PerformanceTracker) Accuracy() float64 {
	if t.TotalPredictions == 0 {
		return 0.5
	}
	return float64(t.CorrectPredictions) / float64(t.TotalPredictions)
}
