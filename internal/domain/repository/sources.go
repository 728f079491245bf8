package repository

import (
	"context"

	"SignalGuard/internal/domain/models"
)

// SiblingSignalSource supplies the peer set for ensemble consensus.
// The peer set always includes the input signal itself.
type SiblingSignalSource interface {
	Peers(ctx context.Context, signal models.TradingSignal) ([]models.TradingSignal, error)
}

// MarketIndicatorSource supplies trend/momentum/volatility/fear
// indicators for market context classification.
type MarketIndicatorSource interface {
	Snapshot(ctx context.Context, symbol string) (models.MarketSnapshot, error)
}
