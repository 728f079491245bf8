package validation

import (
	"context"
	"fmt"
	"time"

	"SignalGuard/internal/domain/models"
	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/pkg/logger"
)

// Quality thresholds.
const (
	minConfidenceThreshold = 0.60
	maxSignalAge           = 30 * time.Minute
	maxFutureDrift         = 5 * time.Minute

	// Check weights; binary gating, not partial credit.
	weightConfidence  = 0.4
	weightConsistency = 0.3
	weightDataQuality = 0.2
	weightTimeValid   = 0.1
)

// BasicQualityValidator runs structural and threshold sanity checks.
// Pure function of the signal plus the injected clock; no shared state.
type BasicQualityValidator struct {
	log *logger.Logger
	now func() time.Time
}

type BasicQualityOption func(*BasicQualityValidator)

// WithQualityClock overrides the wall clock, for deterministic tests.
func WithQualityClock(now func() time.Time) BasicQualityOption {
	return func(v *BasicQualityValidator) {
		if now != nil {
			v.now = now
		}
	}
}

func NewBasicQualityValidator(log *logger.Logger, opts ...BasicQualityOption) *BasicQualityValidator {
	v := &BasicQualityValidator{log: log, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks confidence threshold, directional consistency, data
// sanity and time validity, each contributing a fixed weight when met.
func (v *BasicQualityValidator) Validate(ctx context.Context, signal models.TradingSignal) (models.QualityResult, error) {
	var issues []string

	confidenceMet := v.checkConfidence(signal, &issues)
	consistent := v.checkConsistency(signal, &issues)
	dataValid := v.checkDataQuality(signal, &issues)
	timeValid := v.checkTimeValidity(signal, &issues)

	score := 0.0
	if confidenceMet {
		score += weightConfidence
	}
	if consistent {
		score += weightConsistency
	}
	if dataValid {
		score += weightDataQuality
	}
	if timeValid {
		score += weightTimeValid
	}

	result := models.QualityResult{
		ConfidenceMet: confidenceMet,
		Consistent:    consistent,
		DataValid:     dataValid,
		TimeValid:     timeValid,
		Score:         round4(score),
		Issues:        issues,
	}

	if v.log != nil {
		v.log.Debug("basic quality validated",
			logger.String("symbol", signal.Symbol),
			logger.Float64("score", result.Score))
	}
	return result, nil
}

func (v *BasicQualityValidator) checkConfidence(signal models.TradingSignal, issues *[]string) bool {
	if signal.Confidence >= minConfidenceThreshold {
		return true
	}
	*issues = append(*issues, fmt.Sprintf("confidence below threshold: %.4f", signal.Confidence))
	return false
}

func (v *BasicQualityValidator) checkConsistency(signal models.TradingSignal, issues *[]string) bool {
	// Signal direction must agree with the sign of the expected return.
	bullish := signal.SignalType.IsBuyLike()
	returnPositive := signal.ExpectedReturn > 0
	directionConsistent := bullish == returnPositive

	// High confidence paired with a very weak signal is suspicious.
	confidenceConsistent := true
	if signal.Confidence >= 0.8 && signal.Strength < 0.3 {
		confidenceConsistent = false
	}

	if directionConsistent && confidenceConsistent {
		return true
	}
	*issues = append(*issues, "signal inconsistency: direction or confidence/strength mismatch")
	return false
}

func (v *BasicQualityValidator) checkDataQuality(signal models.TradingSignal, issues *[]string) bool {
	if signal.Symbol == "" {
		*issues = append(*issues, "missing symbol")
		return false
	}
	if signal.SignalType == "" {
		*issues = append(*issues, "missing signal type")
		return false
	}
	if signal.Confidence < 0 || signal.Confidence > 1 {
		*issues = append(*issues, fmt.Sprintf("confidence out of range: %.4f", signal.Confidence))
		return false
	}
	// Wide sanity band; out-of-band expected return is suspicious but
	// recorded as an issue only, without failing the check.
	if signal.ExpectedReturn < -1.0 || signal.ExpectedReturn > 10.0 {
		*issues = append(*issues, fmt.Sprintf("expected return outside sanity band: %.4f", signal.ExpectedReturn))
	}
	return true
}

func (v *BasicQualityValidator) checkTimeValidity(signal models.TradingSignal, issues *[]string) bool {
	if signal.GeneratedAt.IsZero() {
		*issues = append(*issues, "missing generation time")
		return false
	}
	now := v.now()
	if age := now.Sub(signal.GeneratedAt); age > maxSignalAge {
		*issues = append(*issues, fmt.Sprintf("signal too old: %s elapsed", age))
		return false
	}
	if signal.GeneratedAt.After(now.Add(maxFutureDrift)) {
		*issues = append(*issues, "signal generated in the future")
		return false
	}
	return true
}

var _ domsvc.QualityValidator = (*BasicQualityValidator)(nil)
