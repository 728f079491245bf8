package usecase

import (
	"context"

	"SignalGuard/internal/domain/models"
	drepo "SignalGuard/internal/domain/repository"
	mid "SignalGuard/internal/middleware"
	"SignalGuard/internal/sources"
)

// PeerIngestor feeds live sibling signals into the peer book.
type PeerIngestor struct {
	book *sources.PeerBook
}

func NewPeerIngestor(book *sources.PeerBook) *PeerIngestor {
	return &PeerIngestor{book: book}
}

func (p *PeerIngestor) Process(_ context.Context, s *models.TradingSignal) error {
	p.book.Add(*s)
	return nil
}

var _ mid.Proc = (*PeerIngestor)(nil)

// SignalCollector tails the peer-signal stream and keeps the peer book
// warm for ensemble validation.
type SignalCollector struct {
	stream  drepo.SignalStream
	ingest  *PeerIngestor
	metrics drepo.Metrics
	pipe    *mid.SignalPipeline
}

// NewSignalCollector creates a new SignalCollector instance.
func NewSignalCollector(stream drepo.SignalStream, ingest *PeerIngestor, metrics drepo.Metrics, pipe *mid.SignalPipeline) *SignalCollector {
	return &SignalCollector{stream: stream, ingest: ingest, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the peer stream is connected.
func (c *SignalCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *SignalCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	sigCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, sigCh, errCh)
	return nil
}

func (c *SignalCollector) consume(ctx context.Context, sigCh <-chan *models.TradingSignal, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case s := <-sigCh:
			if s == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, s)
			} else {
				_ = c.ingest.Process(ctx, s)
			}
		}
	}
}

func (c *SignalCollector) Stop() error { return c.stream.Close() }

// Shutdown stops the pipeline and closes the stream.
func (c *SignalCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
