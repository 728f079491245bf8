package repository

import (
	"context"

	"SignalGuard/internal/domain/models"
)

// TrackerStore holds per-model-key performance trackers with atomic
// get-or-insert semantics: concurrent first touch of a key creates the
// tracker exactly once. GetOrCreate returns a value snapshot so readers
// never race with writers.
type TrackerStore interface {
	GetOrCreate(ctx context.Context, key string) (models.PerformanceTracker, error)
	RecordOutcome(ctx context.Context, key string, correct bool) error
}

// SampleStore holds per-model-key accuracy observations for the
// statistical stage. Same lazy-creation lifecycle as TrackerStore but a
// logically distinct store. GetOrCreate returns a copy of the samples.
type SampleStore interface {
	GetOrCreate(ctx context.Context, key string) ([]float64, error)
	Append(ctx context.Context, key string, sample float64) error
}
