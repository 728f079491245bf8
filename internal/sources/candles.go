package sources

import (
	"context"
	"fmt"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	"SignalGuard/internal/services/features"
	"SignalGuard/pkg/cache"
	"SignalGuard/pkg/logger"
)

const (
	defaultCandleWindow  = 240
	defaultMomentumBars  = 20
	defaultVolWindow     = 60
	defaultImpliedWindow = 20
	snapshotCacheTTL     = 30 * time.Second

	// A 20% drawdown inside the window saturates the fear proxy.
	fearDrawdownScale = 5.0
)

// CandleIndicatorSource derives market indicators from stored candles:
// trend from the full-window return, momentum from a short window,
// historical volatility from realized volatility, an implied-volatility
// proxy from a short realized window, and fear from drawdown. Snapshots
// are cached briefly so bursts of signals for the same symbol do not
// hammer the candle store.
type CandleIndicatorSource struct {
	candles domrepo.CandleStore
	cache   cache.Service
	tf      domrepo.Timeframe
	window  int
	log     *logger.Logger
	now     func() time.Time
}

type CandleIndicatorOption func(*CandleIndicatorSource)

// WithIndicatorTimeframe sets the candle resolution used.
func WithIndicatorTimeframe(tf domrepo.Timeframe) CandleIndicatorOption {
	return func(s *CandleIndicatorSource) {
		if domrepo.IsValidTimeframe(tf) {
			s.tf = tf
		}
	}
}

// WithIndicatorWindow sets the number of candles fetched per snapshot.
func WithIndicatorWindow(n int) CandleIndicatorOption {
	return func(s *CandleIndicatorSource) {
		if n > 1 {
			s.window = n
		}
	}
}

// WithIndicatorClock overrides the snapshot timestamp clock.
func WithIndicatorClock(now func() time.Time) CandleIndicatorOption {
	return func(s *CandleIndicatorSource) {
		if now != nil {
			s.now = now
		}
	}
}

func NewCandleIndicatorSource(candles domrepo.CandleStore, c cache.Service, log *logger.Logger, opts ...CandleIndicatorOption) *CandleIndicatorSource {
	s := &CandleIndicatorSource{
		candles: candles,
		cache:   c,
		tf:      domrepo.DefaultTimeframe(),
		window:  defaultCandleWindow,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CandleIndicatorSource) Snapshot(ctx context.Context, symbol string) (models.MarketSnapshot, error) {
	cacheKey := "indicators:" + symbol + ":" + string(s.tf)
	if s.cache != nil {
		var cached models.MarketSnapshot
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	candles, err := s.candles.GetLatestNCandles(ctx, symbol, s.window, s.tf)
	if err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("candle indicators %q: %w", symbol, err)
	}
	if len(candles) < defaultVolWindow+1 {
		return models.MarketSnapshot{}, fmt.Errorf("candle indicators %q: only %d candles, need %d", symbol, len(candles), defaultVolWindow+1)
	}

	logReturns := features.ComputeLogReturns(candles)
	barsPerYear := features.BarsPerYearForTF(string(s.tf))

	fear := features.MaxDrawdown(candles) * fearDrawdownScale
	if fear > 1 {
		fear = 1
	}

	snap := models.MarketSnapshot{
		Symbol:               symbol,
		Trend:                features.WindowReturn(candles, 0),
		Momentum:             features.WindowReturn(candles, defaultMomentumBars),
		ImpliedVolatility:    features.RealizedVolatility(logReturns, defaultImpliedWindow, barsPerYear),
		HistoricalVolatility: features.RealizedVolatility(logReturns, defaultVolWindow, barsPerYear),
		FearIndex:            fear,
		AsOf:                 s.now(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, snap, snapshotCacheTTL); err != nil && s.log != nil {
			s.log.Warn("indicator cache set failed",
				logger.String("symbol", symbol),
				logger.Error(err))
		}
	}
	return snap, nil
}

var _ domrepo.MarketIndicatorSource = (*CandleIndicatorSource)(nil)
