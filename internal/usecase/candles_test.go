package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
)

type fakeCandleStore struct {
	candles []models.Candle
	err     error
}

func (f *fakeCandleStore) GetCandles(context.Context, string, time.Time, time.Time, domrepo.Timeframe) ([]models.Candle, error) {
	return f.candles, f.err
}

func (f *fakeCandleStore) GetLatestNCandles(context.Context, string, int, domrepo.Timeframe) ([]models.Candle, error) {
	return f.candles, f.err
}

func TestGetCandles(t *testing.T) {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	store := &fakeCandleStore{candles: []models.Candle{
		{Bucket: base, Symbol: "AAPL", Close: 100},
		{Bucket: base.Add(time.Minute), Symbol: "AAPL", Close: 101},
	}}
	uc := NewCandlesUseCase(store)

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol:    "AAPL",
		From:      base,
		To:        base.Add(time.Hour),
		Timeframe: domrepo.TF1m,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 || res.Symbol != "AAPL" || res.Timeframe != "1m" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGetCandlesValidation(t *testing.T) {
	uc := NewCandlesUseCase(&fakeCandleStore{})
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{From: base, To: base}); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol: "AAPL", From: base.Add(time.Hour), To: base,
	}); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestGetCandlesLimitClamped(t *testing.T) {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, 10)
	for i := range candles {
		candles[i] = models.Candle{Bucket: base.Add(time.Duration(i) * time.Minute), Symbol: "AAPL", Close: 100}
	}
	uc := NewCandlesUseCase(&fakeCandleStore{candles: candles})

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol: "AAPL", From: base, To: base.Add(time.Hour), Limit: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 3 || len(res.Candles) != 3 {
		t.Fatalf("expected truncation to 3, got %d", res.Count)
	}
}

func TestGetCandlesStoreError(t *testing.T) {
	uc := NewCandlesUseCase(&fakeCandleStore{err: errors.New("clickhouse down")})
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol: "AAPL", From: base, To: base.Add(time.Hour),
	}); err == nil {
		t.Fatalf("expected store error to propagate")
	}
}
