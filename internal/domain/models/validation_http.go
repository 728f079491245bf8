package models

import "time"

// Requests for validation HTTP endpoints. Defined in domain for consistency and reuse.

type ValidateRequest struct {
	SignalID       string  `json:"signal_id" validate:"required"`
	Symbol         string  `json:"symbol" validate:"required"`
	SignalType     string  `json:"signal_type" validate:"required,oneof=STRONG_BUY BUY WEAK_BUY HOLD NEUTRAL WEAK_SELL SELL STRONG_SELL"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
	Strength       float64 `json:"strength" validate:"gte=0,lte=1"`
	ExpectedReturn float64 `json:"expected_return"`
	ExpectedRisk   float64 `json:"expected_risk"`
	TimeHorizon    string  `json:"time_horizon" default:"1d" validate:"oneof=1h 4h 1d 1w"`
	TargetPrice    float64 `json:"target_price"`
	StopLossPrice  float64 `json:"stop_loss_price"`
	GeneratedAt    int64   `json:"generated_at" validate:"required"` // unix seconds
	ExpiresAt      int64   `json:"expires_at"`
	ModelName      string  `json:"model_name" default:"unknown"`
	ModelVersion   string  `json:"model_version" default:"v1"`
}

// Signal converts the transport request into the domain value.
func (r ValidateRequest) Signal() TradingSignal {
	s := TradingSignal{
		SignalID:       r.SignalID,
		Symbol:         r.Symbol,
		SignalType:     SignalType(r.SignalType),
		Confidence:     r.Confidence,
		Strength:       r.Strength,
		ExpectedReturn: r.ExpectedReturn,
		ExpectedRisk:   r.ExpectedRisk,
		TimeHorizon:    r.TimeHorizon,
		TargetPrice:    r.TargetPrice,
		StopLossPrice:  r.StopLossPrice,
		GeneratedAt:    time.Unix(r.GeneratedAt, 0),
		Model:          ModelInfo{Name: r.ModelName, Version: r.ModelVersion},
	}
	if r.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	}
	return s
}
