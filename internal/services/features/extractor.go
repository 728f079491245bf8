package features

import (
	"math"
	"time"

	"SignalGuard/internal/domain/models"
)

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(candles)-1, or nil if insufficient data.
func ComputeLogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized realized volatility over a rolling window
// using the provided number of bars per year. Returns the latest window sigma.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	m := sum / n
	variance := (sum2 - n*m*m) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// WindowReturn is the fractional close-to-close return across the last
// `window` candles (the whole series when window <= 0 or too large).
func WindowReturn(candles []models.Candle, window int) float64 {
	if len(candles) < 2 {
		return 0
	}
	start := 0
	if window > 0 && window < len(candles) {
		start = len(candles) - window
	}
	first := candles[start].Close
	last := candles[len(candles)-1].Close
	if first <= 0 {
		return 0
	}
	return (last - first) / first
}

// MaxDrawdown is the largest peak-to-trough close decline within the
// series, as a positive fraction.
func MaxDrawdown(candles []models.Candle) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, c := range candles {
		if c.Close > peak {
			peak = c.Close
		}
		if peak > 0 {
			dd := (peak - c.Close) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// BarsPerYearForTF returns the approximate number of bars per year for a timeframe.
func BarsPerYearForTF(tf string) float64 {
	switch tf {
	case "1m":
		return 365 * 24 * 60
	case "5m":
		return 365 * 24 * 12
	case "15m":
		return 365 * 24 * 4
	default:
		return 365 * 24 * 60
	}
}

// AlignFromTo rounds time range to candle boundaries based on timeframe.
func AlignFromTo(from, to time.Time, tf string) (time.Time, time.Time) {
	var d time.Duration
	switch tf {
	case "5m":
		d = 5 * time.Minute
	case "15m":
		d = 15 * time.Minute
	default:
		d = time.Minute
	}
	return from.Truncate(d), to.Truncate(d)
}
