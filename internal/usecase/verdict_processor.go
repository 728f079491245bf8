package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalGuard/internal/domain/models"
	drepo "SignalGuard/internal/domain/repository"
	"SignalGuard/internal/validation"
)

// VerdictProcessor publishes composite verdicts and records stage metrics.
type VerdictProcessor struct {
	pub     drepo.VerdictPublisher
	metrics drepo.Metrics
}

// NewVerdictProcessor creates a new VerdictProcessor instance.
func NewVerdictProcessor(pub drepo.VerdictPublisher, metrics drepo.Metrics) *VerdictProcessor {
	return &VerdictProcessor{pub: pub, metrics: metrics}
}

// Process publishes a single verdict downstream.
func (p *VerdictProcessor) Process(ctx context.Context, v *models.CompositeVerdict) error {
	if v == nil {
		return fmt.Errorf("verdict is nil")
	}

	start := time.Now()
	if err := p.pub.Publish(ctx, v); err != nil {
		p.metrics.RecordError("publish")
		return fmt.Errorf("publish verdict: %w", err)
	}

	p.recordStages(v)
	p.metrics.RecordVerdict(string(v.Action), v.Symbol)
	p.metrics.RecordLatency("publish", time.Since(start).Seconds())
	return nil
}

// ProcessBatch publishes multiple verdicts in a batch.
func (p *VerdictProcessor) ProcessBatch(ctx context.Context, vs []*models.CompositeVerdict) error {
	if len(vs) == 0 {
		return nil
	}

	start := time.Now()
	if err := p.pub.PublishBatch(ctx, vs); err != nil {
		p.metrics.RecordError("publish_batch")
		return fmt.Errorf("publish verdict batch: %w", err)
	}

	for _, v := range vs {
		p.recordStages(v)
		p.metrics.RecordVerdict(string(v.Action), v.Symbol)
	}
	p.metrics.RecordLatency("publish_batch", time.Since(start).Seconds())
	return nil
}

func (p *VerdictProcessor) recordStages(v *models.CompositeVerdict) {
	if v.Quality != nil {
		p.metrics.RecordStageScore(validation.StageQuality, v.Quality.Score)
	}
	if v.Statistical != nil {
		p.metrics.RecordStageScore(validation.StageStatistical, v.Statistical.Score)
	}
	if v.Ensemble != nil {
		p.metrics.RecordStageScore(validation.StageEnsemble, v.Ensemble.Score)
	}
	if v.Context != nil {
		p.metrics.RecordStageScore(validation.StageContext, v.Context.Score)
	}
	if v.Performance != nil {
		p.metrics.RecordStageScore(validation.StagePerformance, v.Performance.Score)
	}
}

// Close closes the underlying publisher if available.
func (p *VerdictProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
}
