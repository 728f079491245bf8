package repository

import (
	"context"

	"SignalGuard/internal/domain/models"
)

// SignalStream is a live feed of sibling-model signals (e.g. WebSocket).
type SignalStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.TradingSignal, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// VerdictPublisher pushes composite verdicts downstream.
type VerdictPublisher interface {
	Publish(ctx context.Context, v *models.CompositeVerdict) error
	PublishBatch(ctx context.Context, vs []*models.CompositeVerdict) error
	Close() error
}

// Metrics is the minimal observability surface the pipeline records to.
type Metrics interface {
	RecordVerdict(action, symbol string)
	RecordError(kind string)
	RecordStageScore(stage string, score float64)
	RecordLatency(op string, seconds float64)
}
