package features

import (
	"math"
	"testing"
	"time"

	"SignalGuard/internal/domain/models"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Bucket: base.Add(time.Duration(i) * time.Minute), Symbol: "AAPL", Close: c}
	}
	return out
}

func TestComputeLogReturns(t *testing.T) {
	returns := ComputeLogReturns(candlesFromCloses(100, 110, 99))
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if math.Abs(returns[0]-math.Log(1.1)) > 1e-12 {
		t.Fatalf("unexpected first return %v", returns[0])
	}
	if math.Abs(returns[1]-math.Log(0.9)) > 1e-12 {
		t.Fatalf("unexpected second return %v", returns[1])
	}

	if ComputeLogReturns(candlesFromCloses(100)) != nil {
		t.Fatalf("single candle has no returns")
	}

	// Non-positive closes contribute a zero return rather than NaN.
	returns = ComputeLogReturns(candlesFromCloses(100, 0, 100))
	if returns[0] != 0 || returns[1] != 0 {
		t.Fatalf("expected zero returns around bad close, got %v", returns)
	}
}

func TestRealizedVolatility(t *testing.T) {
	// Constant returns have zero variance, modulo float rounding.
	flat := []float64{0.01, 0.01, 0.01, 0.01, 0.01}
	if got := RealizedVolatility(flat, 5, 252); got > 1e-6 {
		t.Fatalf("expected zero volatility for constant returns, got %v", got)
	}

	// Alternating returns: sample stdev of {0.01,-0.01,...} over 4 values.
	alt := []float64{0.01, -0.01, 0.01, -0.01}
	got := RealizedVolatility(alt, 4, 1)
	want := math.Sqrt((4.0 * 0.0001) / 3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Annualization scales by sqrt of bars per year.
	annual := RealizedVolatility(alt, 4, 252)
	if math.Abs(annual-want*math.Sqrt(252)) > 1e-9 {
		t.Fatalf("expected %v, got %v", want*math.Sqrt(252), annual)
	}

	if RealizedVolatility(alt, 10, 252) != 0 {
		t.Fatalf("window larger than series should return 0")
	}
	if RealizedVolatility(alt, 1, 252) != 0 {
		t.Fatalf("degenerate window should return 0")
	}
}

func TestWindowReturn(t *testing.T) {
	candles := candlesFromCloses(100, 105, 110, 121)

	if got := WindowReturn(candles, 0); math.Abs(got-0.21) > 1e-12 {
		t.Fatalf("full-series return: expected 0.21, got %v", got)
	}
	// Last 2 candles: 110 -> 121.
	if got := WindowReturn(candles, 2); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("windowed return: expected 0.1, got %v", got)
	}
	// Oversized window falls back to the whole series.
	if got := WindowReturn(candles, 50); math.Abs(got-0.21) > 1e-12 {
		t.Fatalf("oversized window: expected 0.21, got %v", got)
	}
	if WindowReturn(candlesFromCloses(100), 0) != 0 {
		t.Fatalf("single candle has no return")
	}
	if WindowReturn(candlesFromCloses(0, 100), 0) != 0 {
		t.Fatalf("non-positive base close should return 0")
	}
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 120, trough 90 afterwards: 25% drawdown.
	candles := candlesFromCloses(100, 120, 110, 90, 115)
	if got := MaxDrawdown(candles); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("expected 0.25, got %v", got)
	}

	if MaxDrawdown(candlesFromCloses(100, 105, 110)) != 0 {
		t.Fatalf("monotonic rise has no drawdown")
	}
	if MaxDrawdown(nil) != 0 {
		t.Fatalf("empty series has no drawdown")
	}
}

func TestBarsPerYearForTF(t *testing.T) {
	if BarsPerYearForTF("1m") != 365*24*60 {
		t.Fatalf("unexpected 1m bars per year")
	}
	if BarsPerYearForTF("5m") != 365*24*12 {
		t.Fatalf("unexpected 5m bars per year")
	}
	if BarsPerYearForTF("15m") != 365*24*4 {
		t.Fatalf("unexpected 15m bars per year")
	}
	if BarsPerYearForTF("bogus") != 365*24*60 {
		t.Fatalf("unknown timeframe should default to 1m")
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2026, 1, 2, 10, 7, 30, 0, time.UTC)
	to := time.Date(2026, 1, 2, 11, 3, 10, 0, time.UTC)

	af, at := AlignFromTo(from, to, "5m")
	if af.Minute() != 5 || at.Minute() != 0 {
		t.Fatalf("unexpected 5m alignment: %v %v", af, at)
	}
	af, at = AlignFromTo(from, to, "1m")
	if af.Second() != 0 || at.Second() != 0 {
		t.Fatalf("unexpected 1m alignment: %v %v", af, at)
	}
}
