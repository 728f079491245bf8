package sources

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"SignalGuard/internal/domain/models"
)

func TestSyntheticSiblingPeers(t *testing.T) {
	src := NewSyntheticSiblingSource()
	input := models.TradingSignal{
		SignalID:       "sig-1",
		Symbol:         "AAPL",
		SignalType:     models.Buy,
		Confidence:     0.8,
		ExpectedReturn: 0.05,
	}

	peers, err := src.Peers(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peers) != 5 {
		t.Fatalf("expected 5 peers, got %d", len(peers))
	}
	if peers[0] != input {
		t.Fatalf("input signal must lead the set")
	}
	if peers[1].Confidence != 0.8*0.9 {
		t.Fatalf("unexpected lowered confidence: %v", peers[1].Confidence)
	}
	if peers[2].Confidence != 0.8*1.1 {
		t.Fatalf("unexpected raised confidence: %v", peers[2].Confidence)
	}
	if peers[3].SignalType != models.Sell || peers[3].Confidence != 0.4 || peers[3].ExpectedReturn != -0.05 {
		t.Fatalf("unexpected contrarian peer: %+v", peers[3])
	}
	if peers[4].SignalType != models.Hold || peers[4].Confidence != 0.5 || peers[4].ExpectedReturn != 0 {
		t.Fatalf("unexpected neutral peer: %+v", peers[4])
	}
}

func TestSyntheticSiblingConfidenceCap(t *testing.T) {
	src := NewSyntheticSiblingSource()
	input := models.TradingSignal{Symbol: "AAPL", SignalType: models.Buy, Confidence: 0.95}

	peers, err := src.Peers(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peers[2].Confidence != 1.0 {
		t.Fatalf("raised confidence should cap at 1.0, got %v", peers[2].Confidence)
	}
}

func TestSyntheticMarketSnapshotRanges(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	src := NewSyntheticMarketSource(
		WithMarketRand(rand.New(rand.NewSource(1))),
		WithMarketClock(func() time.Time { return now }),
	)

	for i := 0; i < 100; i++ {
		snap, err := src.Snapshot(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Symbol != "AAPL" || !snap.AsOf.Equal(now) {
			t.Fatalf("unexpected snapshot identity: %+v", snap)
		}
		if snap.Trend < -0.1 || snap.Trend > 0.1 {
			t.Fatalf("trend out of range: %v", snap.Trend)
		}
		if snap.Momentum < -0.05 || snap.Momentum > 0.05 {
			t.Fatalf("momentum out of range: %v", snap.Momentum)
		}
		if snap.ImpliedVolatility < 0.15 || snap.ImpliedVolatility > 0.35 {
			t.Fatalf("implied volatility out of range: %v", snap.ImpliedVolatility)
		}
		if snap.FearIndex < 0 || snap.FearIndex > 1 {
			t.Fatalf("fear index out of range: %v", snap.FearIndex)
		}
	}
}
