package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalGuard/internal/domain/models"
)

type recordingProc struct {
	mu       sync.Mutex
	got      []*models.TradingSignal
	err      error
	failures int
}

func (p *recordingProc) Process(_ context.Context, s *models.TradingSignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("downstream unavailable")
	}
	if p.err != nil {
		return p.err
	}
	p.got = append(p.got, s)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type nopMetrics struct{}

func (nopMetrics) RecordVerdict(string, string)     {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordStageScore(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)    {}

func pipelineSignal(symbol string) *models.TradingSignal {
	return &models.TradingSignal{
		SignalID:    "sig-1",
		Symbol:      symbol,
		SignalType:  models.Buy,
		Confidence:  0.7,
		GeneratedAt: time.Now(),
	}
}

func TestPipelineForwardsValidSignal(t *testing.T) {
	proc := &recordingProc{}
	p := NewSignalPipeline(proc, nopMetrics{})

	if err := p.Process(context.Background(), pipelineSignal("AAPL")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("expected 1 forwarded signal, got %d", proc.count())
	}
}

func TestPipelineRejectsInvalidSignals(t *testing.T) {
	proc := &recordingProc{}
	p := NewSignalPipeline(proc, nopMetrics{})
	ctx := context.Background()

	if err := p.Process(ctx, nil); err == nil {
		t.Fatalf("nil signal must be rejected")
	}

	noSymbol := pipelineSignal("")
	if err := p.Process(ctx, noSymbol); err == nil {
		t.Fatalf("empty symbol must be rejected")
	}

	badType := pipelineSignal("AAPL")
	badType.SignalType = "SIDEWAYS"
	if err := p.Process(ctx, badType); err == nil {
		t.Fatalf("unknown signal type must be rejected")
	}

	badConf := pipelineSignal("AAPL")
	badConf.Confidence = 1.5
	if err := p.Process(ctx, badConf); err == nil {
		t.Fatalf("out-of-range confidence must be rejected")
	}

	noTime := pipelineSignal("AAPL")
	noTime.GeneratedAt = time.Time{}
	if err := p.Process(ctx, noTime); err == nil {
		t.Fatalf("missing generation time must be rejected")
	}

	if proc.count() != 0 {
		t.Fatalf("invalid signals must not reach downstream, got %d", proc.count())
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	p := NewSignalPipeline(proc, nopMetrics{}, WithMaxRPS(1))
	ctx := context.Background()

	// First signal passes, immediate second for the same symbol is dropped
	// silently, a different symbol is unaffected.
	if err := p.Process(ctx, pipelineSignal("AAPL")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Process(ctx, pipelineSignal("AAPL")); err != nil {
		t.Fatalf("throttled signal should be dropped without error, got %v", err)
	}
	if err := p.Process(ctx, pipelineSignal("MSFT")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("expected 2 forwarded signals, got %d", proc.count())
	}
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &recordingProc{}
	p := NewSignalPipeline(proc, nopMetrics{}, WithTransform(func(s *models.TradingSignal) *models.TradingSignal {
		out := *s
		out.Symbol = "NORM_" + s.Symbol
		return &out
	}))

	if err := p.Process(context.Background(), pipelineSignal("aapl")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.got) != 1 || proc.got[0].Symbol != "NORM_aapl" {
		t.Fatalf("transform not applied: %+v", proc.got)
	}
}

func TestPipelineBuffersAndFlushesOnDownstreamError(t *testing.T) {
	proc := &recordingProc{failures: 1}
	p := NewSignalPipeline(proc, nopMetrics{}, WithBufferSize(10))
	p.Start(context.Background())
	defer p.Stop()

	err := p.Process(context.Background(), pipelineSignal("AAPL"))
	if err == nil {
		t.Fatalf("expected downstream error to surface")
	}

	// The buffered signal is retried by the background flusher.
	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("buffered signal never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPipelineStartStopIdempotent(t *testing.T) {
	p := NewSignalPipeline(&recordingProc{}, nopMetrics{})
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
