package sources

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
)

// SyntheticSiblingSource fabricates a 5-member peer set from the input
// signal. It is the default stand-in for real sibling-model fan-out.
type SyntheticSiblingSource struct{}

func NewSyntheticSiblingSource() *SyntheticSiblingSource {
	return &SyntheticSiblingSource{}
}

// Peers returns the original signal plus four deterministic variants:
// slightly less confident, slightly more confident (capped at 1.0), an
// opposite-direction contrarian at fixed low confidence, and a neutral
// hold.
func (s *SyntheticSiblingSource) Peers(_ context.Context, signal models.TradingSignal) ([]models.TradingSignal, error) {
	lower := signal
	lower.Confidence = signal.Confidence * 0.9

	higher := signal
	higher.Confidence = signal.Confidence * 1.1
	if higher.Confidence > 1.0 {
		higher.Confidence = 1.0
	}

	contrarian := signal
	contrarian.SignalType = signal.SignalType.Opposite()
	contrarian.Confidence = 0.4
	contrarian.ExpectedReturn = -signal.ExpectedReturn

	neutral := signal
	neutral.SignalType = models.Hold
	neutral.Confidence = 0.5
	neutral.ExpectedReturn = 0

	return []models.TradingSignal{signal, lower, higher, contrarian, neutral}, nil
}

var _ domrepo.SiblingSignalSource = (*SyntheticSiblingSource)(nil)

// SyntheticMarketSource fabricates market indicators from a random
// source. It is the default stand-in for a real market-data feed.
type SyntheticMarketSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

type SyntheticMarketOption func(*SyntheticMarketSource)

// WithMarketRand seeds the indicator generator, for reproducible tests.
func WithMarketRand(rng *rand.Rand) SyntheticMarketOption {
	return func(s *SyntheticMarketSource) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithMarketClock overrides the snapshot timestamp clock.
func WithMarketClock(now func() time.Time) SyntheticMarketOption {
	return func(s *SyntheticMarketSource) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSyntheticMarketSource(opts ...SyntheticMarketOption) *SyntheticMarketSource {
	s := &SyntheticMarketSource{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SyntheticMarketSource) Snapshot(_ context.Context, symbol string) (models.MarketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.MarketSnapshot{
		Symbol:               symbol,
		Trend:                (s.rng.Float64() - 0.5) * 0.2,  // -10% .. +10%
		Momentum:             (s.rng.Float64() - 0.5) * 0.1,  // -5% .. +5%
		ImpliedVolatility:    0.15 + s.rng.Float64()*0.2,     // 15% .. 35%
		HistoricalVolatility: 0.12 + s.rng.Float64()*0.2,     // 12% .. 32%
		FearIndex:            s.rng.Float64(),
		AsOf:                 s.now(),
	}, nil
}

var _ domrepo.MarketIndicatorSource = (*SyntheticMarketSource)(nil)
