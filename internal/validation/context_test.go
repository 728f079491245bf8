package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"SignalGuard/internal/domain/models"
)

type fakeIndicators struct {
	snap models.MarketSnapshot
	err  error
}

func (f *fakeIndicators) Snapshot(context.Context, string) (models.MarketSnapshot, error) {
	return f.snap, f.err
}

func TestContextBullRegimeBuySignal(t *testing.T) {
	src := &fakeIndicators{snap: models.MarketSnapshot{
		Symbol:               "AAPL",
		Trend:                0.06,
		Momentum:             0.01,
		ImpliedVolatility:    0.2,
		HistoricalVolatility: 0.19,
		FearIndex:            0.2,
	}}
	v := NewMarketContextValidator(nil, src)

	res, err := v.Validate(context.Background(), models.TradingSignal{Symbol: "AAPL", SignalType: models.Buy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != models.RegimeBull {
		t.Fatalf("expected BULL regime, got %s", res.Regime)
	}
	if res.Volatility != models.VolModerate {
		t.Fatalf("expected MODERATE volatility, got %s", res.Volatility)
	}
	if res.VolatilityTrend != models.VolStable {
		t.Fatalf("expected STABLE volatility trend, got %s", res.VolatilityTrend)
	}
	if res.ExpectedPerformance != 0.75 {
		t.Fatalf("expected performance 0.75 for buy in bull, got %v", res.ExpectedPerformance)
	}
	// moderate vol 0.2 + bull 0 + stable 0 + fear 0.2*0.1
	if res.StressIndex != 0.22 {
		t.Fatalf("expected stress 0.22, got %v", res.StressIndex)
	}
	if res.StressBand != models.StressLow {
		t.Fatalf("expected LOW stress band, got %s", res.StressBand)
	}
	// 0.75*0.6 + 0.25 (low stress) + 0.15 (stable vol)
	if res.Score != 0.85 {
		t.Fatalf("expected score 0.85, got %v", res.Score)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", res.Issues)
	}
}

func TestContextRegimeThresholdsAreStrict(t *testing.T) {
	cases := []struct {
		name     string
		trend    float64
		momentum float64
		want     models.Regime
	}{
		{"trend exactly at bull threshold", 0.05, 0.01, models.RegimeNormal},
		{"trend above with negative momentum", 0.06, -0.01, models.RegimeNormal},
		{"trend exactly at bear threshold", -0.05, -0.01, models.RegimeNormal},
		{"bear", -0.06, -0.01, models.RegimeBear},
		{"bull", 0.06, 0.01, models.RegimeBull},
	}
	for _, tc := range cases {
		src := &fakeIndicators{snap: models.MarketSnapshot{
			Trend:             tc.trend,
			Momentum:          tc.momentum,
			ImpliedVolatility: 0.2,
			FearIndex:         0.2,
		}}
		v := NewMarketContextValidator(nil, src)
		res, err := v.Validate(context.Background(), models.TradingSignal{Symbol: "AAPL", SignalType: models.Buy})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if res.Regime != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, res.Regime)
		}
	}
}

func TestContextExtremeStressSellInBear(t *testing.T) {
	src := &fakeIndicators{snap: models.MarketSnapshot{
		Symbol:               "AAPL",
		Trend:                -0.08,
		Momentum:             -0.02,
		ImpliedVolatility:    0.35,
		HistoricalVolatility: 0.30,
		FearIndex:            1.0,
	}}
	v := NewMarketContextValidator(nil, src)

	res, err := v.Validate(context.Background(), models.TradingSignal{Symbol: "AAPL", SignalType: models.Sell})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Regime != models.RegimeBear || res.Volatility != models.VolHigh {
		t.Fatalf("expected bear/high-vol classification, got %+v", res)
	}
	if res.VolatilityTrend != models.VolIncreasing {
		t.Fatalf("expected INCREASING volatility trend, got %s", res.VolatilityTrend)
	}
	if res.ExpectedPerformance != 0.7 {
		t.Fatalf("expected performance 0.7 for sell in bear, got %v", res.ExpectedPerformance)
	}
	// high vol 0.4 + bear 0.3 + increasing 0.2 + fear 1.0*0.1
	if res.StressIndex != 1.0 {
		t.Fatalf("expected stress 1.0, got %v", res.StressIndex)
	}
	if res.StressBand != models.StressExtreme {
		t.Fatalf("expected EXTREME stress band, got %s", res.StressBand)
	}
	// 0.7*0.6 - 0.05 (extreme) + 0.05 (increasing vol)
	if res.Score != 0.42 {
		t.Fatalf("expected score 0.42, got %v", res.Score)
	}
}

func TestContextFearIndexOutOfRange(t *testing.T) {
	src := &fakeIndicators{snap: models.MarketSnapshot{
		ImpliedVolatility: 0.2,
		FearIndex:         1.5,
	}}
	v := NewMarketContextValidator(nil, src)

	res, err := v.Validate(context.Background(), models.TradingSignal{Symbol: "AAPL", SignalType: models.Hold})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Issues) != 1 || !strings.Contains(res.Issues[0], "fear index") {
		t.Fatalf("expected fear index issue, got %v", res.Issues)
	}
}

func TestContextIndicatorErrorPropagates(t *testing.T) {
	src := &fakeIndicators{err: errors.New("feed unavailable")}
	v := NewMarketContextValidator(nil, src)

	_, err := v.Validate(context.Background(), models.TradingSignal{Symbol: "AAPL", SignalType: models.Buy})
	if err == nil {
		t.Fatalf("expected indicator error to propagate")
	}
	if !strings.Contains(err.Error(), "market context validation") {
		t.Fatalf("unexpected error: %v", err)
	}
}
