package indicators

import (
	"context"
	"fmt"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	"SignalGuard/pkg/config"
)

// HTTPIndicatorSource fetches market indicators from the external
// market-data service.
type HTTPIndicatorSource struct{ base *HTTPServiceBase }

func NewHTTPIndicatorSource(cfg *config.Config) *HTTPIndicatorSource {
	return &HTTPIndicatorSource{base: NewHTTPServiceBase(cfg)}
}

type snapshotRequest struct {
	Symbol string `json:"symbol"`
}

type snapshotResponse struct {
	Trend                float64 `json:"trend"`
	Momentum             float64 `json:"momentum"`
	ImpliedVolatility    float64 `json:"implied_volatility"`
	HistoricalVolatility float64 `json:"historical_volatility"`
	FearIndex            float64 `json:"fear_index"`
}

func (s *HTTPIndicatorSource) Snapshot(ctx context.Context, symbol string) (models.MarketSnapshot, error) {
	var sr snapshotResponse
	err := s.base.PostJSONWithRetry(ctx, "/indicators/snapshot", snapshotRequest{Symbol: symbol}, &sr, 3)
	if err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("post snapshot: %w", err)
	}
	return models.MarketSnapshot{
		Symbol:               symbol,
		Trend:                sr.Trend,
		Momentum:             sr.Momentum,
		ImpliedVolatility:    sr.ImpliedVolatility,
		HistoricalVolatility: sr.HistoricalVolatility,
		FearIndex:            sr.FearIndex,
		AsOf:                 time.Now(),
	}, nil
}

var _ domrepo.MarketIndicatorSource = (*HTTPIndicatorSource)(nil)
