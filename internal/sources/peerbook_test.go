package sources

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"SignalGuard/internal/domain/models"
)

func bookSignal(id string, t models.SignalType, conf float64) models.TradingSignal {
	return models.TradingSignal{SignalID: id, Symbol: "AAPL", SignalType: t, Confidence: conf}
}

func TestPeerBookInputLeadsPeerSet(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	book := NewPeerBook(WithPeerClock(func() time.Time { return now }))

	book.Add(bookSignal("p1", models.Buy, 0.7))
	book.Add(bookSignal("p2", models.Sell, 0.6))
	book.Add(bookSignal("p3", models.Hold, 0.5))

	input := bookSignal("input", models.Buy, 0.8)
	peers, err := book.Peers(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peers) != 4 {
		t.Fatalf("expected 4 peers, got %d", len(peers))
	}
	if peers[0].SignalID != "input" {
		t.Fatalf("input signal must lead the set, got %s", peers[0].SignalID)
	}
	// Remaining peers are newest first.
	if peers[1].SignalID != "p3" || peers[2].SignalID != "p2" || peers[3].SignalID != "p1" {
		t.Fatalf("unexpected peer order: %v", peerIDs(peers))
	}
}

func TestPeerBookTooFewPeers(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	book := NewPeerBook(WithPeerClock(func() time.Time { return now }))
	book.Add(bookSignal("p1", models.Buy, 0.7))

	_, err := book.Peers(context.Background(), bookSignal("input", models.Buy, 0.8))
	if err == nil {
		t.Fatalf("expected error with too few live peers")
	}
	if !strings.Contains(err.Error(), "need 3") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPeerBookExpiresStaleEntries(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	clock := now
	book := NewPeerBook(
		WithPeerTTL(time.Minute),
		WithPeerClock(func() time.Time { return clock }),
	)

	book.Add(bookSignal("p1", models.Buy, 0.7))
	book.Add(bookSignal("p2", models.Sell, 0.6))
	book.Add(bookSignal("p3", models.Hold, 0.5))

	clock = now.Add(2 * time.Minute)
	_, err := book.Peers(context.Background(), bookSignal("input", models.Buy, 0.8))
	if err == nil {
		t.Fatalf("expected all peers to have expired")
	}
}

func TestPeerBookEntryAtTTLBoundaryIsLive(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	clock := now
	book := NewPeerBook(
		WithPeerTTL(time.Minute),
		WithPeerClock(func() time.Time { return clock }),
	)

	book.Add(bookSignal("p1", models.Buy, 0.7))
	book.Add(bookSignal("p2", models.Sell, 0.6))

	clock = now.Add(time.Minute) // exactly at the TTL
	peers, err := book.Peers(context.Background(), bookSignal("input", models.Buy, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peers) != 3 {
		t.Fatalf("expected 3 peers at TTL boundary, got %d", len(peers))
	}
}

func TestPeerBookSkipsDuplicateSignalID(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	book := NewPeerBook(WithPeerClock(func() time.Time { return now }))

	book.Add(bookSignal("input", models.Buy, 0.8)) // same ID as the query signal
	book.Add(bookSignal("p1", models.Buy, 0.7))
	book.Add(bookSignal("p2", models.Sell, 0.6))

	peers, err := book.Peers(context.Background(), bookSignal("input", models.Buy, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peers) != 3 {
		t.Fatalf("expected duplicate to be skipped, got %d peers", len(peers))
	}
	for _, p := range peers[1:] {
		if p.SignalID == "input" {
			t.Fatalf("input signal counted twice: %v", peerIDs(peers))
		}
	}
}

func TestPeerBookCapsPeerSet(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	book := NewPeerBook(WithPeerClock(func() time.Time { return now }))

	for i := 0; i < 20; i++ {
		book.Add(bookSignal(fmt.Sprintf("p%d", i), models.Buy, 0.7))
	}

	peers, err := book.Peers(context.Background(), bookSignal("input", models.Buy, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peers) != maxPeersPerCall {
		t.Fatalf("expected peer set capped at %d, got %d", maxPeersPerCall, len(peers))
	}
	// Newest retained peer comes right after the input.
	if peers[1].SignalID != "p19" {
		t.Fatalf("expected freshest peer first, got %v", peerIDs(peers))
	}
}

func TestPeerBookSymbolsAreIsolated(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	book := NewPeerBook(WithPeerClock(func() time.Time { return now }))

	other := models.TradingSignal{SignalID: "m1", Symbol: "MSFT", SignalType: models.Buy, Confidence: 0.7}
	book.Add(other)
	book.Add(bookSignal("p1", models.Buy, 0.7))
	book.Add(bookSignal("p2", models.Sell, 0.6))

	peers, err := book.Peers(context.Background(), bookSignal("input", models.Buy, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range peers {
		if p.Symbol != "AAPL" {
			t.Fatalf("peer set leaked another symbol: %v", peerIDs(peers))
		}
	}
}

func peerIDs(peers []models.TradingSignal) []string {
	out := make([]string, len(peers))
	for i, p := range peers {
		out[i] = p.SignalID
	}
	return out
}
