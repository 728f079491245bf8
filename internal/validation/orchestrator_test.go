package validation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"SignalGuard/internal/domain/models"
)

type fakeMetrics struct {
	mu          sync.Mutex
	verdicts    []string
	errorKinds  []string
	stageScores map[string]float64
	latencyOps  []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{stageScores: make(map[string]float64)}
}

func (m *fakeMetrics) RecordVerdict(action, symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts = append(m.verdicts, action)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorKinds = append(m.errorKinds, kind)
}

func (m *fakeMetrics) RecordStageScore(stage string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stageScores[stage] = score
}

func (m *fakeMetrics) RecordLatency(op string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencyOps = append(m.latencyOps, op)
}

// pipelineFixture builds a fully deterministic five-stage orchestrator.
func pipelineFixture(t *testing.T, now time.Time, indicators *fakeIndicators, metrics *fakeMetrics, opts ...OrchestratorOption) *PipelineOrchestrator {
	t.Helper()

	quality := NewBasicQualityValidator(nil, WithQualityClock(fixedClock(now)))
	statistical := NewStatisticalValidator(nil, &fakeSampleStore{samples: outcomeSamples(100, 60)})
	ensemble := NewEnsembleValidator(nil, &fakeSiblings{peers: []models.TradingSignal{
		peer(models.Buy, 0.8),
		peer(models.StrongBuy, 0.7),
		peer(models.WeakBuy, 0.6),
		peer(models.Sell, 0.5),
		peer(models.Hold, 0.5),
	}})
	contextValidator := NewMarketContextValidator(nil, indicators)
	trackers := seededTrackers(now, models.PerformanceTracker{
		CreatedAt:          now.Add(-10 * 24 * time.Hour),
		TotalPredictions:   100,
		CorrectPredictions: 70,
		RecentAccuracy:     0.72,
	})
	performance := NewPerformanceValidator(nil, trackers, WithPerformanceClock(fixedClock(now)))

	opts = append(opts, WithOrchestratorClock(fixedClock(now)))
	return NewPipelineOrchestrator(quality, statistical, ensemble, contextValidator, performance, metrics, nil, opts...)
}

func bullIndicators() *fakeIndicators {
	return &fakeIndicators{snap: models.MarketSnapshot{
		Symbol:               "AAPL",
		Trend:                0.06,
		Momentum:             0.01,
		ImpliedVolatility:    0.2,
		HistoricalVolatility: 0.19,
		FearIndex:            0.2,
	}}
}

func TestOrchestratorCompositeVerdict(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	metrics := newFakeMetrics()
	orch := pipelineFixture(t, now, bullIndicators(), metrics)

	verdict, err := orch.ValidateSignal(context.Background(), goodSignal(now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verdict.Quality == nil || verdict.Statistical == nil || verdict.Ensemble == nil ||
		verdict.Context == nil || verdict.Performance == nil {
		t.Fatalf("all stage results must be attached: %+v", verdict)
	}
	if verdict.Quality.Score != 1.0 {
		t.Fatalf("expected quality 1.0, got %v", verdict.Quality.Score)
	}
	if verdict.Statistical.Score != 0.8812 {
		t.Fatalf("expected statistical 0.8812, got %v", verdict.Statistical.Score)
	}
	if verdict.Ensemble.Score != 0.5336 {
		t.Fatalf("expected ensemble 0.5336, got %v", verdict.Ensemble.Score)
	}
	if verdict.Context.Score != 0.85 {
		t.Fatalf("expected context 0.85, got %v", verdict.Context.Score)
	}
	if verdict.Performance.Score != 0.6293 {
		t.Fatalf("expected performance 0.6293, got %v", verdict.Performance.Score)
	}

	// 0.25*1.0 + 0.25*0.6293 + 0.20*0.5336 + 0.15*0.85 + 0.15*0.8812
	if verdict.OverallScore != 0.7737 {
		t.Fatalf("expected overall 0.7737, got %v", verdict.OverallScore)
	}
	if verdict.Action != models.ActionCaution {
		t.Fatalf("expected PROCEED_WITH_CAUTION, got %s", verdict.Action)
	}
	if verdict.Grade != models.GradeB {
		t.Fatalf("expected grade B, got %s", verdict.Grade)
	}
	if verdict.Risk != models.RiskMedium {
		t.Fatalf("expected MEDIUM risk, got %s", verdict.Risk)
	}
	if verdict.SignalID != "sig-1" || verdict.Symbol != "AAPL" {
		t.Fatalf("verdict identity mismatch: %+v", verdict)
	}
	if !verdict.ValidatedAt.Equal(now) {
		t.Fatalf("expected frozen validation time, got %v", verdict.ValidatedAt)
	}
	if verdict.Failsafe {
		t.Fatalf("complete validation must not be flagged failsafe")
	}

	if len(metrics.stageScores) != 5 {
		t.Fatalf("expected 5 stage scores recorded, got %d", len(metrics.stageScores))
	}
	if len(metrics.verdicts) != 1 || metrics.verdicts[0] != string(models.ActionCaution) {
		t.Fatalf("unexpected verdict metrics: %v", metrics.verdicts)
	}
}

func TestOrchestratorActionThresholds(t *testing.T) {
	cases := []struct {
		score  float64
		action models.Action
		grade  models.Grade
		risk   models.RiskLevel
	}{
		{0.95, models.ActionExecute, models.GradeAPlus, models.RiskLow},
		{0.8, models.ActionExecute, models.GradeA, models.RiskLow},
		{0.75, models.ActionCaution, models.GradeB, models.RiskMedium},
		{0.6, models.ActionCaution, models.GradeC, models.RiskMedium},
		{0.55, models.ActionReject, models.GradeD, models.RiskMedium},
		{0.4, models.ActionReject, models.GradeD, models.RiskHigh},
	}
	for _, tc := range cases {
		if got := recommendedAction(tc.score); got != tc.action {
			t.Fatalf("score %v: expected action %s, got %s", tc.score, tc.action, got)
		}
		if got := qualityGrade(tc.score); got != tc.grade {
			t.Fatalf("score %v: expected grade %s, got %s", tc.score, tc.grade, got)
		}
		if got := riskLevel(tc.score); got != tc.risk {
			t.Fatalf("score %v: expected risk %s, got %s", tc.score, tc.risk, got)
		}
	}
}

func TestOrchestratorStageErrorAborts(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	metrics := newFakeMetrics()
	broken := &fakeIndicators{err: errors.New("feed unavailable")}
	orch := pipelineFixture(t, now, broken, metrics)

	_, err := orch.ValidateSignal(context.Background(), goodSignal(now))
	if err == nil {
		t.Fatalf("expected stage error to abort validation")
	}
	if !strings.Contains(err.Error(), "stage context:") {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, kind := range metrics.errorKinds {
		if kind == "stage_context" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected stage_context error metric, got %v", metrics.errorKinds)
	}
}

func TestOrchestratorFailsafeStageSubstitution(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	metrics := newFakeMetrics()
	broken := &fakeIndicators{err: errors.New("feed unavailable")}
	orch := pipelineFixture(t, now, broken, metrics,
		WithFailsafeStages([]string{StageContext, StageEnsemble}))

	verdict, err := orch.ValidateSignal(context.Background(), goodSignal(now))
	if err != nil {
		t.Fatalf("failsafe stage must not abort validation: %v", err)
	}
	if verdict.Context == nil || verdict.Context.Score != 0.5 {
		t.Fatalf("expected neutral context substitute, got %+v", verdict.Context)
	}
	if verdict.Context.Regime != models.RegimeNormal {
		t.Fatalf("neutral context should classify NORMAL, got %s", verdict.Context.Regime)
	}
	// 0.25*1.0 + 0.25*0.6293 + 0.20*0.5336 + 0.15*0.5 + 0.15*0.8812
	if verdict.OverallScore != 0.7212 {
		t.Fatalf("expected overall 0.7212, got %v", verdict.OverallScore)
	}
	found := false
	for _, issue := range verdict.Issues {
		if strings.Contains(issue, "context validation incomplete") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected substitution issue, got %v", verdict.Issues)
	}
}

func TestFailsafeVerdict(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	v := FailsafeVerdict(goodSignal(now), now)

	if v.SignalID != "sig-1" || v.Symbol != "AAPL" {
		t.Fatalf("identity mismatch: %+v", v)
	}
	if v.OverallScore != 0.3 || v.Action != models.ActionReject || v.Grade != models.GradeF || v.Risk != models.RiskHigh {
		t.Fatalf("unexpected failsafe verdict: %+v", v)
	}
	if !v.Failsafe {
		t.Fatalf("failsafe verdict must be flagged")
	}
	if !v.ValidatedAt.Equal(now) {
		t.Fatalf("unexpected validation time: %v", v.ValidatedAt)
	}
}
