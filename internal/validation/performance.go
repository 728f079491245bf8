package validation

import (
	"context"
	"fmt"
	"math"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/pkg/logger"
)

const (
	minAccuracyThreshold = 0.55
	modelFatigueDays     = 30
	modelRefreshDays     = 60
	minTrendPredictions  = 10
	trendStableBand      = 0.05
)

// PerformanceValidator evaluates per-model accuracy, trend, fatigue and
// retraining need from the shared tracker store.
type PerformanceValidator struct {
	log      *logger.Logger
	trackers domrepo.TrackerStore
	now      func() time.Time
}

type PerformanceOption func(*PerformanceValidator)

// WithPerformanceClock overrides the wall clock, for deterministic tests.
func WithPerformanceClock(now func() time.Time) PerformanceOption {
	return func(v *PerformanceValidator) {
		if now != nil {
			v.now = now
		}
	}
}

func NewPerformanceValidator(log *logger.Logger, trackers domrepo.TrackerStore, opts ...PerformanceOption) *PerformanceValidator {
	v := &PerformanceValidator{log: log, trackers: trackers, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate resolves the model's tracker snapshot and derives metrics,
// trend, fatigue and the retraining recommendation.
func (v *PerformanceValidator) Validate(ctx context.Context, signal models.TradingSignal) (models.PerformanceResult, error) {
	key := signal.ModelKey()
	tracker, err := v.trackers.GetOrCreate(ctx, key)
	if err != nil {
		return models.PerformanceResult{}, fmt.Errorf("performance validation: tracker store %q: %w", key, err)
	}

	accuracy, precision, recall, f1 := currentMetrics(tracker)
	trend, trendStrength, trendConfidence := analyzeTrend(tracker)
	fatigue, fatigueScore, needsRefresh := assessFatigue(tracker, v.now())
	recommend, urgency, improvement := retrainingNeed(accuracy, fatigue, needsRefresh)
	score := performanceScore(accuracy, f1, trend, trendStrength)

	var issues []string
	if recommend {
		issues = append(issues, fmt.Sprintf("retraining recommended: urgency %s", urgency))
	}

	result := models.PerformanceResult{
		Accuracy:             round4(accuracy),
		Precision:            round4(precision),
		Recall:               round4(recall),
		F1:                   round4(f1),
		Trend:                trend,
		TrendStrength:        round4(trendStrength),
		TrendConfidence:      trendConfidence,
		Fatigue:              fatigue,
		FatigueScore:         round4(fatigueScore),
		NeedsRefresh:         needsRefresh,
		RecommendRetraining:  recommend,
		RetrainingUrgency:    urgency,
		EstimatedImprovement: round4(improvement),
		Score:                score,
		Issues:               issues,
	}

	if v.log != nil {
		v.log.Debug("performance validated",
			logger.String("model_key", key),
			logger.Float64("accuracy", result.Accuracy),
			logger.Float64("score", result.Score))
	}
	return result, nil
}

// currentMetrics derives accuracy plus the simplified precision/recall
// placeholders (a true confusion-matrix computation needs labeled
// positives/negatives the tracker does not hold).
func currentMetrics(tracker models.PerformanceTracker) (accuracy, precision, recall, f1 float64) {
	if tracker.TotalPredictions == 0 {
		return 0.5, 0.5, 0.5, 0.5
	}
	accuracy = tracker.Accuracy()
	precision = math.Min(accuracy+0.05, 1.0)
	recall = math.Max(accuracy-0.05, 0.0)
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return accuracy, precision, recall, f1
}

// analyzeTrend compares recent accuracy against lifetime accuracy; a
// comparison is only trusted with at least minTrendPredictions behind it.
func analyzeTrend(tracker models.PerformanceTracker) (models.TrendDirection, float64, float64) {
	if tracker.TotalPredictions < minTrendPredictions {
		return models.TrendInsufficientData, 0, 0.3
	}

	diff := tracker.RecentAccuracy - tracker.Accuracy()
	switch {
	case math.Abs(diff) < trendStableBand:
		return models.TrendStable, math.Abs(diff), 0.8
	case diff > 0:
		return models.TrendImproving, diff, 0.8
	default:
		return models.TrendDeclining, math.Abs(diff), 0.8
	}
}

func assessFatigue(tracker models.PerformanceTracker, now time.Time) (models.FatigueLevel, float64, bool) {
	days := now.Sub(tracker.CreatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	elapsed := math.Floor(days)

	score := math.Min(1.0, elapsed/modelRefreshDays)
	switch {
	case elapsed < modelFatigueDays:
		return models.FatigueLow, score, false
	case elapsed < modelRefreshDays:
		return models.FatigueModerate, score, false
	default:
		return models.FatigueHigh, score, true
	}
}

// retrainingNeed applies the strict priority order: an accuracy deficit
// always outranks fatigue.
func retrainingNeed(accuracy float64, fatigue models.FatigueLevel, needsRefresh bool) (bool, models.Urgency, float64) {
	if accuracy < minAccuracyThreshold {
		return true, models.UrgencyHigh, minAccuracyThreshold - accuracy
	}
	if needsRefresh {
		urgency := models.UrgencyMedium
		if fatigue == models.FatigueHigh {
			urgency = models.UrgencyHigh
		}
		return true, urgency, 0.05
	}
	return false, models.UrgencyLow, 0
}

func performanceScore(accuracy, f1 float64, trend models.TrendDirection, trendStrength float64) float64 {
	score := accuracy*0.7 + f1*0.2
	switch trend {
	case models.TrendImproving:
		score += trendStrength * 0.1
	case models.TrendDeclining:
		score -= trendStrength * 0.1
	}
	return round4(clamp01(score))
}

var _ domsvc.PerformanceValidator = (*PerformanceValidator)(nil)
