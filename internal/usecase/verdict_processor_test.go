package usecase

import (
	"context"
	"errors"
	"testing"

	"SignalGuard/internal/domain/models"
)

func sampleVerdict() *models.CompositeVerdict {
	return &models.CompositeVerdict{
		SignalID:     "sig-1",
		Symbol:       "AAPL",
		OverallScore: 0.75,
		Action:       models.ActionCaution,
		Quality:      &models.QualityResult{Score: 1.0},
		Statistical:  &models.StatisticalResult{Score: 0.8},
		Ensemble:     &models.EnsembleResult{Score: 0.6},
		Context:      &models.ContextResult{Score: 0.7},
		Performance:  &models.PerformanceResult{Score: 0.65},
	}
}

func TestVerdictProcessorPublishes(t *testing.T) {
	pub := &fakePublisher{}
	metrics := newCountingMetrics()
	proc := NewVerdictProcessor(pub, metrics)

	if err := proc.Process(context.Background(), sampleVerdict()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.published))
	}
}

func TestVerdictProcessorNilVerdict(t *testing.T) {
	proc := NewVerdictProcessor(&fakePublisher{}, newCountingMetrics())
	if err := proc.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil verdict must be rejected")
	}
}

func TestVerdictProcessorPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	metrics := newCountingMetrics()
	proc := NewVerdictProcessor(pub, metrics)

	if err := proc.Process(context.Background(), sampleVerdict()); err == nil {
		t.Fatalf("expected publish error to surface")
	}
	if metrics.errors["publish"] != 1 {
		t.Fatalf("expected publish error metric, got %v", metrics.errors)
	}
}

func TestVerdictProcessorBatch(t *testing.T) {
	pub := &fakePublisher{}
	proc := NewVerdictProcessor(pub, newCountingMetrics())

	vs := []*models.CompositeVerdict{sampleVerdict(), sampleVerdict()}
	if err := proc.ProcessBatch(context.Background(), vs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2, got %+v", pub.batches)
	}

	// Empty batch is a no-op.
	if err := proc.ProcessBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
	if len(pub.batches) != 1 {
		t.Fatalf("empty batch must not publish")
	}
}

func TestVerdictProcessorClose(t *testing.T) {
	pub := &fakePublisher{}
	proc := NewVerdictProcessor(pub, newCountingMetrics())
	proc.Close()
	if !pub.closed {
		t.Fatalf("expected publisher closed")
	}
}
