package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
)

const (
	defaultPeerTTL  = 5 * time.Minute
	minPeerSetSize  = 3
	maxPeersPerCall = 7
)

type timedSignal struct {
	signal models.TradingSignal
	seen   time.Time
}

// PeerBook holds recently observed sibling-model signals per symbol and
// serves them as the ensemble peer set. Fed by a live SignalStream; the
// input signal always leads the set. Returns an error when too few live
// peers are known, which lets the ensemble stage fall back to its
// failsafe rather than score a degenerate set.
type PeerBook struct {
	mu   sync.Mutex
	book map[string][]timedSignal
	ttl  time.Duration
	now  func() time.Time
}

type PeerBookOption func(*PeerBook)

// WithPeerTTL bounds how long an observed peer signal stays usable.
func WithPeerTTL(ttl time.Duration) PeerBookOption {
	return func(b *PeerBook) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithPeerClock overrides the wall clock, for deterministic tests.
func WithPeerClock(now func() time.Time) PeerBookOption {
	return func(b *PeerBook) {
		if now != nil {
			b.now = now
		}
	}
}

func NewPeerBook(opts ...PeerBookOption) *PeerBook {
	b := &PeerBook{
		book: make(map[string][]timedSignal),
		ttl:  defaultPeerTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add records a live peer signal.
func (b *PeerBook) Add(signal models.TradingSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	kept := b.pruneLocked(signal.Symbol, now)
	kept = append(kept, timedSignal{signal: signal, seen: now})
	if len(kept) > maxPeersPerCall*2 {
		kept = kept[len(kept)-maxPeersPerCall*2:]
	}
	b.book[signal.Symbol] = kept
}

// Peers returns the input signal plus the freshest live peers for its
// symbol, newest first after the input, capped at maxPeersPerCall.
func (b *PeerBook) Peers(_ context.Context, signal models.TradingSignal) ([]models.TradingSignal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.pruneLocked(signal.Symbol, b.now())
	b.book[signal.Symbol] = kept

	out := make([]models.TradingSignal, 0, maxPeersPerCall)
	out = append(out, signal)
	for i := len(kept) - 1; i >= 0 && len(out) < maxPeersPerCall; i-- {
		if kept[i].signal.SignalID != "" && kept[i].signal.SignalID == signal.SignalID {
			continue
		}
		out = append(out, kept[i].signal)
	}

	if len(out) < minPeerSetSize {
		return nil, fmt.Errorf("peer book: only %d signals for %s, need %d", len(out), signal.Symbol, minPeerSetSize)
	}
	return out, nil
}

func (b *PeerBook) pruneLocked(symbol string, now time.Time) []timedSignal {
	entries := b.book[symbol]
	kept := entries[:0]
	for _, e := range entries {
		if now.Sub(e.seen) <= b.ttl {
			kept = append(kept, e)
		}
	}
	return kept
}

var _ domrepo.SiblingSignalSource = (*PeerBook)(nil)
