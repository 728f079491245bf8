package validation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/pkg/logger"
)

// Stage names used in failsafe configuration and metrics labels.
const (
	StageQuality     = "quality"
	StageStatistical = "statistical"
	StageEnsemble    = "ensemble"
	StageContext     = "context"
	StagePerformance = "performance"
)

// Composite aggregation weights.
const (
	weightQualityStage     = 0.25
	weightPerformanceStage = 0.25
	weightEnsembleStage    = 0.20
	weightContextStage     = 0.15
	weightStatisticalStage = 0.15
)

// PipelineOrchestrator fans one signal out to all five stages, joins
// the results and produces the composite verdict.
//
// Failure policy is explicit per-stage configuration: stages named in
// failsafeStages substitute a neutral default result on internal fault;
// a fault in any other stage aborts the whole validation with a wrapped
// error, which callers must treat as "validation incomplete" rather
// than "signal is invalid".
type PipelineOrchestrator struct {
	quality     domsvc.QualityValidator
	statistical domsvc.StatisticalValidator
	ensemble    domsvc.EnsembleValidator
	context     domsvc.ContextValidator
	performance domsvc.PerformanceValidator

	failsafeStages map[string]bool
	metrics        domrepo.Metrics
	log            *logger.Logger
	now            func() time.Time
}

type OrchestratorOption func(*PipelineOrchestrator)

// WithFailsafeStages names the stages that degrade to a neutral result
// on fault instead of propagating. Defaults to the ensemble stage only.
func WithFailsafeStages(stages []string) OrchestratorOption {
	return func(o *PipelineOrchestrator) {
		o.failsafeStages = make(map[string]bool, len(stages))
		for _, s := range stages {
			o.failsafeStages[s] = true
		}
	}
}

// WithOrchestratorClock overrides the wall clock, for deterministic tests.
func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *PipelineOrchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func NewPipelineOrchestrator(
	quality domsvc.QualityValidator,
	statistical domsvc.StatisticalValidator,
	ensemble domsvc.EnsembleValidator,
	contextValidator domsvc.ContextValidator,
	performance domsvc.PerformanceValidator,
	metrics domrepo.Metrics,
	log *logger.Logger,
	opts ...OrchestratorOption,
) *PipelineOrchestrator {
	o := &PipelineOrchestrator{
		quality:        quality,
		statistical:    statistical,
		ensemble:       ensemble,
		context:        contextValidator,
		performance:    performance,
		failsafeStages: map[string]bool{StageEnsemble: true},
		metrics:        metrics,
		log:            log,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ValidateSignal runs all stages concurrently and joins them. The
// stages have no ordering dependency for a single signal; the join
// waits for every stage before deciding.
func (o *PipelineOrchestrator) ValidateSignal(ctx context.Context, signal models.TradingSignal) (models.CompositeVerdict, error) {
	start := o.now()

	var (
		wg      sync.WaitGroup
		quality models.QualityResult
		stat    models.StatisticalResult
		ens     models.EnsembleResult
		mctx    models.ContextResult
		perf    models.PerformanceResult

		errQuality, errStat, errEns, errCtx, errPerf error
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		quality, errQuality = o.quality.Validate(ctx, signal)
	}()
	go func() {
		defer wg.Done()
		stat, errStat = o.statistical.Validate(ctx, signal)
	}()
	go func() {
		defer wg.Done()
		ens, errEns = o.ensemble.Validate(ctx, signal)
	}()
	go func() {
		defer wg.Done()
		mctx, errCtx = o.context.Validate(ctx, signal)
	}()
	go func() {
		defer wg.Done()
		perf, errPerf = o.performance.Validate(ctx, signal)
	}()
	wg.Wait()

	if errQuality != nil {
		if !o.failsafeStages[StageQuality] {
			return o.fail(StageQuality, errQuality)
		}
		quality = neutralQualityResult()
	}
	if errStat != nil {
		if !o.failsafeStages[StageStatistical] {
			return o.fail(StageStatistical, errStat)
		}
		stat = insufficientDataResult(0)
	}
	if errEns != nil {
		if !o.failsafeStages[StageEnsemble] {
			return o.fail(StageEnsemble, errEns)
		}
		ens = FailsafeEnsembleResult()
	}
	if errCtx != nil {
		if !o.failsafeStages[StageContext] {
			return o.fail(StageContext, errCtx)
		}
		mctx = neutralContextResult()
	}
	if errPerf != nil {
		if !o.failsafeStages[StagePerformance] {
			return o.fail(StagePerformance, errPerf)
		}
		perf = neutralPerformanceResult()
	}

	overall := round4(clamp01(
		quality.Score*weightQualityStage +
			perf.Score*weightPerformanceStage +
			ens.Score*weightEnsembleStage +
			mctx.Score*weightContextStage +
			stat.Score*weightStatisticalStage))

	verdict := models.CompositeVerdict{
		SignalID:     signal.SignalID,
		Symbol:       signal.Symbol,
		OverallScore: overall,
		Action:       recommendedAction(overall),
		Grade:        qualityGrade(overall),
		Risk:         riskLevel(overall),
		Quality:      &quality,
		Statistical:  &stat,
		Ensemble:     &ens,
		Context:      &mctx,
		Performance:  &perf,
		Issues:       collectIssues(quality, stat, ens, mctx, perf),
		ValidatedAt:  o.now(),
	}

	if o.metrics != nil {
		o.metrics.RecordStageScore(StageQuality, quality.Score)
		o.metrics.RecordStageScore(StageStatistical, stat.Score)
		o.metrics.RecordStageScore(StageEnsemble, ens.Score)
		o.metrics.RecordStageScore(StageContext, mctx.Score)
		o.metrics.RecordStageScore(StagePerformance, perf.Score)
		o.metrics.RecordVerdict(string(verdict.Action), signal.Symbol)
		o.metrics.RecordLatency("validate_signal", o.now().Sub(start).Seconds())
	}
	if o.log != nil {
		o.log.Info("signal validated",
			logger.String("signal_id", signal.SignalID),
			logger.String("symbol", signal.Symbol),
			logger.Float64("overall_score", overall),
			logger.String("action", string(verdict.Action)))
	}
	return verdict, nil
}

func (o *PipelineOrchestrator) fail(stage string, err error) (models.CompositeVerdict, error) {
	if o.metrics != nil {
		o.metrics.RecordError("stage_" + stage)
	}
	if o.log != nil {
		o.log.Error("validation stage failed", logger.String("stage", stage), logger.Error(err))
	}
	return models.CompositeVerdict{}, fmt.Errorf("stage %s: %w", stage, err)
}

// FailsafeVerdict is the degraded composite produced when validation
// cannot complete and the caller prefers a conservative decision over
// an error.
func FailsafeVerdict(signal models.TradingSignal, now time.Time) models.CompositeVerdict {
	return models.CompositeVerdict{
		SignalID:     signal.SignalID,
		Symbol:       signal.Symbol,
		OverallScore: 0.3,
		Action:       models.ActionReject,
		Grade:        models.GradeF,
		Risk:         models.RiskHigh,
		Failsafe:     true,
		Issues:       []string{"validation incomplete, failsafe verdict substituted"},
		ValidatedAt:  now,
	}
}

func recommendedAction(score float64) models.Action {
	switch {
	case score >= 0.8:
		return models.ActionExecute
	case score >= 0.6:
		return models.ActionCaution
	default:
		return models.ActionReject
	}
}

func qualityGrade(score float64) models.Grade {
	switch {
	case score >= 0.9:
		return models.GradeAPlus
	case score >= 0.8:
		return models.GradeA
	case score >= 0.7:
		return models.GradeB
	case score >= 0.6:
		return models.GradeC
	default:
		return models.GradeD
	}
}

func riskLevel(score float64) models.RiskLevel {
	switch {
	case score >= 0.8:
		return models.RiskLow
	case score < 0.5:
		return models.RiskHigh
	default:
		return models.RiskMedium
	}
}

func collectIssues(quality models.QualityResult, stat models.StatisticalResult, ens models.EnsembleResult, mctx models.ContextResult, perf models.PerformanceResult) []string {
	var issues []string
	issues = append(issues, quality.Issues...)
	issues = append(issues, stat.Issues...)
	issues = append(issues, ens.Issues...)
	issues = append(issues, mctx.Issues...)
	issues = append(issues, perf.Issues...)
	return issues
}

// Neutral per-stage defaults for stages opted into failsafe behavior.

func neutralQualityResult() models.QualityResult {
	return models.QualityResult{
		Score:  0.5,
		Issues: []string{"quality validation incomplete, neutral result substituted"},
	}
}

func neutralContextResult() models.ContextResult {
	return models.ContextResult{
		Regime:          models.RegimeNormal,
		Volatility:      models.VolModerate,
		VolatilityTrend: models.VolStable,
		StressBand:      models.StressNormal,
		Score:           0.5,
		Issues:          []string{"context validation incomplete, neutral result substituted"},
	}
}

func neutralPerformanceResult() models.PerformanceResult {
	return models.PerformanceResult{
		Accuracy: 0.5, Precision: 0.5, Recall: 0.5, F1: 0.5,
		Trend:             models.TrendInsufficientData,
		Fatigue:           models.FatigueLow,
		RetrainingUrgency: models.UrgencyLow,
		Score:             0.5,
		Issues:            []string{"performance validation incomplete, neutral result substituted"},
	}
}

var _ domsvc.Orchestrator = (*PipelineOrchestrator)(nil)
