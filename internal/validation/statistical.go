package validation

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/pkg/logger"
)

const (
	minSampleSize        = 30
	sufficientSampleSize = 100
	significanceLevel    = 0.05
)

// StatisticalValidator tests whether a model's historical accuracy is
// significantly better than chance (one-sided t-test against mean 0.5).
type StatisticalValidator struct {
	log     *logger.Logger
	samples domrepo.SampleStore
}

func NewStatisticalValidator(log *logger.Logger, samples domrepo.SampleStore) *StatisticalValidator {
	return &StatisticalValidator{log: log, samples: samples}
}

// Validate fetches (lazily creating) the model's sample set and runs the
// significance analysis. Below the minimum sample size it returns a
// canned insufficient-data result instead of computing anything.
func (v *StatisticalValidator) Validate(ctx context.Context, signal models.TradingSignal) (models.StatisticalResult, error) {
	key := signal.ModelKey()
	outcomes, err := v.samples.GetOrCreate(ctx, key)
	if err != nil {
		return models.StatisticalResult{}, fmt.Errorf("statistical validation: sample store %q: %w", key, err)
	}

	if len(outcomes) < minSampleSize {
		return insufficientDataResult(len(outcomes)), nil
	}

	m := mean(outcomes)
	sd := stdev(outcomes)
	n := len(outcomes)

	lo, hi, err := accuracyConfidenceInterval(m, sd, n)
	if err != nil {
		return models.StatisticalResult{}, fmt.Errorf("statistical validation: confidence interval: %w", err)
	}

	p, err := accuracySignificancePValue(m, sd, n)
	if err != nil {
		return models.StatisticalResult{}, fmt.Errorf("statistical validation: t-test: %w", err)
	}

	sufficient := n >= sufficientSampleSize
	significant := p < significanceLevel && sufficient
	effect := effectSize(m, sd)
	power := PowerEstimate(n, effect)
	score := statisticalScore(significant, p, n, effect)

	result := models.StatisticalResult{
		SampleSize:     n,
		MeanAccuracy:   round4(m),
		ConfidenceLow:  lo,
		ConfidenceHigh: hi,
		PValue:         p,
		EffectSize:     round4(effect),
		Power:          power,
		Significant:    significant,
		Sufficient:     sufficient,
		Score:          score,
	}

	if v.log != nil {
		v.log.Debug("statistical validation done",
			logger.String("symbol", signal.Symbol),
			logger.Float64("p_value", p),
			logger.Bool("significant", significant))
	}
	return result, nil
}

// insufficientDataResult is the canned degraded result for n below the
// statistical minimum; never treated as an error.
func insufficientDataResult(n int) models.StatisticalResult {
	return models.StatisticalResult{
		SampleSize:     n,
		ConfidenceLow:  0,
		ConfidenceHigh: 1,
		PValue:         0.5,
		EffectSize:     0,
		Power:          0.1,
		Significant:    false,
		Sufficient:     false,
		Score:          0.2,
		Issues:         []string{fmt.Sprintf("insufficient samples: %d < %d", n, minSampleSize)},
	}
}

// accuracyConfidenceInterval computes the two-sided 95% t-interval for
// the mean, clipped to [0,1].
func accuracyConfidenceInterval(m, sd float64, n int) (float64, float64, error) {
	if n < 2 {
		return 0, 0, fmt.Errorf("need at least 2 samples, got %d", n)
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	tValue := tDist.Quantile(0.975)
	margin := tValue * sd / math.Sqrt(float64(n))
	lo := round4(math.Max(0, m-margin))
	hi := round4(math.Min(1, m+margin))
	return lo, hi, nil
}

// accuracySignificancePValue runs the one-sided single-sample t-test
// H0: mu = 0.5 vs H1: mu > 0.5 and returns the p-value.
func accuracySignificancePValue(m, sd float64, n int) (float64, error) {
	if sd == 0 {
		return 0, fmt.Errorf("zero variance in %d samples", n)
	}
	tStat := (m - 0.5) / (sd / math.Sqrt(float64(n)))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	p := 1.0 - tDist.CDF(tStat)
	return round4(clamp01(p)), nil
}

// effectSize is Cohen's d for the deviation from chance accuracy.
func effectSize(m, sd float64) float64 {
	if sd == 0 {
		return 0
	}
	return (m - 0.5) / sd
}

// PowerEstimate approximates statistical power from sample size and
// effect size. The small-sample heuristic below minSampleSize is kept
// callable even though the stage path only reaches this with n >= 30.
func PowerEstimate(n int, effect float64) float64 {
	e := math.Abs(effect)
	var power float64
	if n < minSampleSize {
		power = math.Min(0.8, e*float64(n)*0.1)
	} else {
		z := e * math.Sqrt(float64(n)) / math.Sqrt2
		normal := distuv.Normal{Mu: 0, Sigma: 1}
		power = 1 - normal.CDF(1.96-z)
	}
	return round4(clamp01(power))
}

func statisticalScore(significant bool, p float64, n int, effect float64) float64 {
	score := 0.0
	if significant {
		score += 0.4
	} else {
		score += (1 - p) * 0.2
	}
	score += math.Min(1, float64(n)/float64(sufficientSampleSize)) * 0.3
	score += math.Min(1, math.Abs(effect)/0.5) * 0.2
	if n >= sufficientSampleSize && significant {
		score += 0.1
	}
	return round4(score)
}

var _ domsvc.StatisticalValidator = (*StatisticalValidator)(nil)
