package validation

import (
	"context"
	"fmt"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/pkg/logger"
)

// Market classification thresholds.
const (
	highVolatilityThreshold = 0.3
	lowVolatilityThreshold  = 0.1
	bullMarketThreshold     = 0.05
	bearMarketThreshold     = -0.05
	volTrendThreshold       = 0.02
)

// expectedPerformance is the static success-probability table keyed by
// signal direction group and regime.
var expectedPerformance = map[string]map[models.Regime]float64{
	"buy": {
		models.RegimeBull:   0.75,
		models.RegimeNormal: 0.60,
		models.RegimeBear:   0.40,
	},
	"sell": {
		models.RegimeBull:   0.40,
		models.RegimeNormal: 0.55,
		models.RegimeBear:   0.70,
	},
	"hold": {
		models.RegimeBull:   0.50,
		models.RegimeNormal: 0.65,
		models.RegimeBear:   0.55,
	},
}

// MarketContextValidator classifies regime, volatility environment and
// market stress, then scores the signal's fit to the current regime.
type MarketContextValidator struct {
	log        *logger.Logger
	indicators domrepo.MarketIndicatorSource
}

func NewMarketContextValidator(log *logger.Logger, indicators domrepo.MarketIndicatorSource) *MarketContextValidator {
	return &MarketContextValidator{log: log, indicators: indicators}
}

// Validate fetches current indicators and classifies them. Faults
// propagate; this stage has no fallback by default.
func (v *MarketContextValidator) Validate(ctx context.Context, signal models.TradingSignal) (models.ContextResult, error) {
	snap, err := v.indicators.Snapshot(ctx, signal.Symbol)
	if err != nil {
		return models.ContextResult{}, fmt.Errorf("market context validation: indicators for %q: %w", signal.Symbol, err)
	}

	regime := classifyRegime(snap)
	volEnv := classifyVolatility(snap.ImpliedVolatility)
	volTrend := classifyVolatilityTrend(snap.ImpliedVolatility - snap.HistoricalVolatility)
	perf := regimeExpectedPerformance(signal.SignalType, regime)
	stressIndex := stressIndex(regime, volEnv, volTrend, snap.FearIndex)
	band := stressBand(stressIndex)
	score := contextScore(perf, band, volTrend)

	var issues []string
	if snap.FearIndex < 0 || snap.FearIndex > 1 {
		issues = append(issues, fmt.Sprintf("fear index out of range: %.4f", snap.FearIndex))
	}

	result := models.ContextResult{
		Regime:              regime,
		Volatility:          volEnv,
		VolatilityTrend:     volTrend,
		ExpectedPerformance: round4(perf),
		StressIndex:         round4(stressIndex),
		StressBand:          band,
		Score:               score,
		Issues:              issues,
	}

	if v.log != nil {
		v.log.Debug("market context validated",
			logger.String("symbol", signal.Symbol),
			logger.String("regime", string(regime)),
			logger.Float64("score", result.Score))
	}
	return result, nil
}

// classifyRegime requires both trend and momentum to point the same way;
// the trend thresholds are strict inequalities.
func classifyRegime(snap models.MarketSnapshot) models.Regime {
	switch {
	case snap.Trend > bullMarketThreshold && snap.Momentum > 0:
		return models.RegimeBull
	case snap.Trend < bearMarketThreshold && snap.Momentum < 0:
		return models.RegimeBear
	default:
		return models.RegimeNormal
	}
}

func classifyVolatility(implied float64) models.VolatilityEnv {
	switch {
	case implied > highVolatilityThreshold:
		return models.VolHigh
	case implied < lowVolatilityThreshold:
		return models.VolLow
	default:
		return models.VolModerate
	}
}

func classifyVolatilityTrend(diff float64) models.VolatilityTrend {
	switch {
	case diff > volTrendThreshold:
		return models.VolIncreasing
	case diff < -volTrendThreshold:
		return models.VolDecreasing
	default:
		return models.VolStable
	}
}

func regimeExpectedPerformance(t models.SignalType, regime models.Regime) float64 {
	group := "hold"
	switch {
	case t.IsBuyLike():
		group = "buy"
	case t.IsSellLike():
		group = "sell"
	}
	return expectedPerformance[group][regime]
}

// stressIndex is a weighted sum in [0,1]: volatility up to 40%, regime
// up to 30%, increasing-volatility trend a flat 20%, fear up to 10%.
func stressIndex(regime models.Regime, volEnv models.VolatilityEnv, volTrend models.VolatilityTrend, fear float64) float64 {
	idx := 0.0
	switch volEnv {
	case models.VolHigh:
		idx += 0.4
	case models.VolModerate:
		idx += 0.2
	}
	switch regime {
	case models.RegimeBear:
		idx += 0.3
	case models.RegimeNormal:
		idx += 0.1
	}
	if volTrend == models.VolIncreasing {
		idx += 0.2
	}
	idx += fear * 0.1
	return idx
}

func stressBand(idx float64) models.StressBand {
	switch {
	case idx >= 0.7:
		return models.StressExtreme
	case idx >= 0.5:
		return models.StressHigh
	case idx >= 0.3:
		return models.StressNormal
	default:
		return models.StressLow
	}
}

func contextScore(perf float64, band models.StressBand, volTrend models.VolatilityTrend) float64 {
	score := perf * 0.6

	switch band {
	case models.StressLow:
		score += 0.25
	case models.StressNormal:
		score += 0.15
	case models.StressHigh:
		score += 0.05
	case models.StressExtreme:
		score -= 0.05
	}

	switch volTrend {
	case models.VolStable:
		score += 0.15
	case models.VolIncreasing:
		score += 0.05
	default:
		score += 0.10
	}

	return round4(clamp01(score))
}

var _ domsvc.ContextValidator = (*MarketContextValidator)(nil)
