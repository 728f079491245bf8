package service

import (
	"context"

	"SignalGuard/internal/domain/models"
)

// QualityValidator runs structural and threshold sanity checks on one signal.
type QualityValidator interface {
	Validate(ctx context.Context, signal models.TradingSignal) (models.QualityResult, error)
}

// StatisticalValidator tests a model's historical accuracy against chance.
type StatisticalValidator interface {
	Validate(ctx context.Context, signal models.TradingSignal) (models.StatisticalResult, error)
}

// EnsembleValidator measures agreement, diversity and uncertainty across
// a peer-signal set.
type EnsembleValidator interface {
	Validate(ctx context.Context, signal models.TradingSignal) (models.EnsembleResult, error)
}

// ContextValidator classifies market regime and volatility and scores
// the signal's fit to the current regime.
type ContextValidator interface {
	Validate(ctx context.Context, signal models.TradingSignal) (models.ContextResult, error)
}

// PerformanceValidator evaluates model accuracy trend, fatigue and
// retraining need.
type PerformanceValidator interface {
	Validate(ctx context.Context, signal models.TradingSignal) (models.PerformanceResult, error)
}

// Orchestrator runs all stages and joins them into a composite verdict.
type Orchestrator interface {
	ValidateSignal(ctx context.Context, signal models.TradingSignal) (models.CompositeVerdict, error)
}
