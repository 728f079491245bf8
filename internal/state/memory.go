package state

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
)

// recentAccuracyAlpha is the EWMA weight applied to new outcomes when
// updating a tracker's recent accuracy.
const recentAccuracyAlpha = 0.1

// SeedFunc produces the initial sample set for a model key on first
// touch. Injectable so tests control sample counts exactly and real
// deployments can load history instead.
type SeedFunc func(key string) []float64

// SimulatedSeed returns a SeedFunc that fabricates 50-150 noisy accuracy
// observations around a base accuracy in [0.52, 0.72), standing in for
// a real outcome history.
func SimulatedSeed(rng *rand.Rand) SeedFunc {
	var mu sync.Mutex
	return func(key string) []float64 {
		mu.Lock()
		defer mu.Unlock()
		n := 50 + rng.Intn(100)
		base := 0.52 + rng.Float64()*0.2
		samples := make([]float64, n)
		for i := range samples {
			v := base + (rng.Float64()-0.5)*0.3
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			samples[i] = v
		}
		return samples
	}
}

// EmptySeed starts every model key with no samples.
func EmptySeed(string) []float64 { return nil }

// MemorySampleStore keeps per-model-key accuracy observations in
// process memory. Get-or-insert is atomic: concurrent first touch of a
// key runs the seeder exactly once.
type MemorySampleStore struct {
	mu   sync.Mutex
	sets map[string][]float64
	seed SeedFunc
}

func NewMemorySampleStore(seed SeedFunc) *MemorySampleStore {
	if seed == nil {
		seed = EmptySeed
	}
	return &MemorySampleStore{
		sets: make(map[string][]float64),
		seed: seed,
	}
}

func (s *MemorySampleStore) GetOrCreate(_ context.Context, key string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = s.seed(key)
		s.sets[key] = set
	}
	out := make([]float64, len(set))
	copy(out, set)
	return out, nil
}

func (s *MemorySampleStore) Append(_ context.Context, key string, sample float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[key]; !ok {
		s.sets[key] = s.seed(key)
	}
	s.sets[key] = append(s.sets[key], sample)
	return nil
}

var _ domrepo.SampleStore = (*MemorySampleStore)(nil)

// MemoryTrackerStore keeps per-model-key performance trackers in
// process memory. GetOrCreate returns value snapshots so readers never
// observe partial writes.
type MemoryTrackerStore struct {
	mu       sync.Mutex
	trackers map[string]*models.PerformanceTracker
	now      func() time.Time
}

type TrackerStoreOption func(*MemoryTrackerStore)

// WithTrackerClock overrides the creation-time clock, for tests that
// need to age trackers.
func WithTrackerClock(now func() time.Time) TrackerStoreOption {
	return func(s *MemoryTrackerStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryTrackerStore(opts ...TrackerStoreOption) *MemoryTrackerStore {
	s := &MemoryTrackerStore{
		trackers: make(map[string]*models.PerformanceTracker),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryTrackerStore) GetOrCreate(_ context.Context, key string) (models.PerformanceTracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[key]
	if !ok {
		t = &models.PerformanceTracker{
			CreatedAt:      s.now(),
			RecentAccuracy: 0.5,
		}
		s.trackers[key] = t
	}
	return *t, nil
}

// RecordOutcome applies real prediction feedback: counters increment
// under the store lock so concurrent writers never lose updates, and
// recent accuracy follows an exponentially weighted moving average.
func (s *MemoryTrackerStore) RecordOutcome(_ context.Context, key string, correct bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[key]
	if !ok {
		t = &models.PerformanceTracker{
			CreatedAt:      s.now(),
			RecentAccuracy: 0.5,
		}
		s.trackers[key] = t
	}
	t.TotalPredictions++
	outcome := 0.0
	if correct {
		t.CorrectPredictions++
		outcome = 1.0
	}
	t.RecentAccuracy = t.RecentAccuracy*(1-recentAccuracyAlpha) + outcome*recentAccuracyAlpha
	return nil
}

// Seed replaces a tracker wholesale; test helper and warm-start hook.
func (s *MemoryTrackerStore) Seed(key string, tracker models.PerformanceTracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tracker
	s.trackers[key] = &t
}

var _ domrepo.TrackerStore = (*MemoryTrackerStore)(nil)
