package validation

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"SignalGuard/internal/domain/models"
)

type fakeSampleStore struct {
	samples []float64
	err     error
	lastKey string
}

func (f *fakeSampleStore) GetOrCreate(_ context.Context, key string) ([]float64, error) {
	f.lastKey = key
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(f.samples))
	copy(out, f.samples)
	return out, nil
}

func (f *fakeSampleStore) Append(context.Context, string, float64) error { return nil }

// outcomeSamples builds n binary accuracy observations, correct of them 1.0.
func outcomeSamples(n, correct int) []float64 {
	out := make([]float64, n)
	for i := 0; i < correct; i++ {
		out[i] = 1.0
	}
	return out
}

func statSignal() models.TradingSignal {
	return models.TradingSignal{SignalID: "sig-1", Symbol: "AAPL", SignalType: models.Buy}
}

func TestStatisticalInsufficientSamples(t *testing.T) {
	store := &fakeSampleStore{samples: outcomeSamples(29, 20)}
	v := NewStatisticalValidator(nil, store)

	res, err := v.Validate(context.Background(), statSignal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SampleSize != 29 {
		t.Fatalf("expected sample size 29, got %d", res.SampleSize)
	}
	if res.ConfidenceLow != 0 || res.ConfidenceHigh != 1 {
		t.Fatalf("expected maximally wide interval, got [%v, %v]", res.ConfidenceLow, res.ConfidenceHigh)
	}
	if res.PValue != 0.5 || res.Power != 0.1 || res.Score != 0.2 {
		t.Fatalf("unexpected degraded result: %+v", res)
	}
	if res.Significant || res.Sufficient {
		t.Fatalf("insufficient data must not be significant or sufficient")
	}
	if len(res.Issues) != 1 || !strings.Contains(res.Issues[0], "insufficient samples") {
		t.Fatalf("expected insufficient-samples issue, got %v", res.Issues)
	}
	if store.lastKey != "model_AAPL_BUY" {
		t.Fatalf("unexpected model key %q", store.lastKey)
	}
}

func TestStatisticalSignificantModel(t *testing.T) {
	// 60/100 correct: mean 0.6, sample sd sqrt(24/99), t ~ 2.03.
	store := &fakeSampleStore{samples: outcomeSamples(100, 60)}
	v := NewStatisticalValidator(nil, store)

	res, err := v.Validate(context.Background(), statSignal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SampleSize != 100 || res.MeanAccuracy != 0.6 {
		t.Fatalf("unexpected sample stats: %+v", res)
	}
	if !res.Sufficient {
		t.Fatalf("100 samples should be sufficient")
	}
	if res.PValue <= 0 || res.PValue >= 0.05 {
		t.Fatalf("expected p-value in (0, 0.05), got %v", res.PValue)
	}
	if !res.Significant {
		t.Fatalf("expected significance with p=%v and n=100", res.PValue)
	}
	if res.EffectSize != 0.2031 {
		t.Fatalf("expected effect size 0.2031, got %v", res.EffectSize)
	}
	if res.Score != 0.8812 {
		t.Fatalf("expected score 0.8812, got %v", res.Score)
	}
	if res.ConfidenceLow <= 0.49 || res.ConfidenceLow >= 0.52 {
		t.Fatalf("confidence low out of expected band: %v", res.ConfidenceLow)
	}
	if res.ConfidenceHigh <= 0.68 || res.ConfidenceHigh >= 0.71 {
		t.Fatalf("confidence high out of expected band: %v", res.ConfidenceHigh)
	}
}

func TestStatisticalSmallSampleNeverSignificant(t *testing.T) {
	// 35/50 correct gives a strong t-statistic, but significance also
	// requires the sufficient sample size.
	store := &fakeSampleStore{samples: outcomeSamples(50, 35)}
	v := NewStatisticalValidator(nil, store)

	res, err := v.Validate(context.Background(), statSignal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PValue >= 0.05 {
		t.Fatalf("expected small p-value, got %v", res.PValue)
	}
	if res.Significant || res.Sufficient {
		t.Fatalf("50 samples must not be significant: %+v", res)
	}
}

func TestStatisticalConfidenceIntervalClipped(t *testing.T) {
	samples := make([]float64, 30)
	for i := range samples {
		samples[i] = 1.0
	}
	samples[29] = 0.7 // m=0.99, upper bound exceeds 1 before clipping
	store := &fakeSampleStore{samples: samples}
	v := NewStatisticalValidator(nil, store)

	res, err := v.Validate(context.Background(), statSignal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ConfidenceHigh != 1 {
		t.Fatalf("expected upper bound clipped to 1, got %v", res.ConfidenceHigh)
	}
}

func TestStatisticalZeroVariance(t *testing.T) {
	samples := make([]float64, 30)
	for i := range samples {
		samples[i] = 0.6
	}
	store := &fakeSampleStore{samples: samples}
	v := NewStatisticalValidator(nil, store)

	_, err := v.Validate(context.Background(), statSignal())
	if err == nil {
		t.Fatalf("expected error on zero-variance samples")
	}
	if !strings.Contains(err.Error(), "t-test") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatisticalStoreError(t *testing.T) {
	store := &fakeSampleStore{err: errors.New("backend down")}
	v := NewStatisticalValidator(nil, store)

	_, err := v.Validate(context.Background(), statSignal())
	if err == nil {
		t.Fatalf("expected store error to propagate")
	}
	if !strings.Contains(err.Error(), "sample store") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatisticalPureNoiseRarelySignificant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	const trials = 20
	noise := 0
	for i := 0; i < trials; i++ {
		// 120 observations drawn symmetrically around 0.5: pure noise
		// with no real edge.
		samples := make([]float64, 0, 120)
		for j := 0; j < 60; j++ {
			d := 0.03 + rng.Float64()*0.12
			samples = append(samples, 0.5+d, 0.5-d)
		}
		v := NewStatisticalValidator(nil, &fakeSampleStore{samples: samples})

		res, err := v.Validate(context.Background(), statSignal())
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", i, err)
		}
		if res.Significant {
			t.Fatalf("trial %d: a no-edge model must not test significant: %+v", i, res)
		}
		if res.PValue > 0.05 {
			noise++
		}
	}
	if noise < trials-2 {
		t.Fatalf("expected nearly all no-edge trials to stay above p=0.05, got %d of %d", noise, trials)
	}
}

func TestPowerEstimate(t *testing.T) {
	if got := PowerEstimate(10, 0.5); got != 0.5 {
		t.Fatalf("small-sample power: expected 0.5, got %v", got)
	}
	if got := PowerEstimate(20, 0.5); got != 0.8 {
		t.Fatalf("small-sample power cap: expected 0.8, got %v", got)
	}
	if got := PowerEstimate(100, 0); got != 0.025 {
		t.Fatalf("zero-effect power: expected 0.025, got %v", got)
	}
	if got := PowerEstimate(100, 0.5); got <= 0.9 {
		t.Fatalf("large-effect power: expected > 0.9, got %v", got)
	}
}
