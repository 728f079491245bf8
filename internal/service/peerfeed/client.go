package peerfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SignalGuard/internal/domain/models"
	drepo "SignalGuard/internal/domain/repository"
	"SignalGuard/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a SignalStream backed by a sibling-model WebSocket
// feed: other models publish their live signals and this client tails
// them for ensemble consensus.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

// New creates a new peer-signal stream client.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.SignalStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("peerfeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	if c.log != nil {
		c.log.Info("peerfeed connected")
	}
	return nil
}

// Subscribe subscribes to peer signals for the configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("peerfeed not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	return nil
}

type wireSignal struct {
	SignalID       string  `json:"signal_id"`
	Symbol         string  `json:"symbol"`
	SignalType     string  `json:"signal_type"`
	Confidence     float64 `json:"confidence"`
	Strength       float64 `json:"strength"`
	ExpectedReturn float64 `json:"expected_return"`
	Model          string  `json:"model"`
	T              int64   `json:"t"` // ms
}

type wireMessage struct {
	Type string       `json:"type"`
	Data []wireSignal `json:"data"`
}

// Read streams peer signals and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.TradingSignal, <-chan error) {
	signals := make(chan *models.TradingSignal, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(signals)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("peerfeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("peerfeed read: %w", err)
					return
				}
				var m wireMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-signal frames
					continue
				}
				if m.Type != "signal" {
					continue
				}
				for _, d := range m.Data {
					sig := &models.TradingSignal{
						SignalID:       d.SignalID,
						Symbol:         d.Symbol,
						SignalType:     models.SignalType(d.SignalType),
						Confidence:     d.Confidence,
						Strength:       d.Strength,
						ExpectedReturn: d.ExpectedReturn,
						GeneratedAt:    time.Unix(d.T/1000, (d.T%1000)*int64(time.Millisecond)),
						Model:          models.ModelInfo{Name: d.Model},
					}
					select {
					case signals <- sig:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return signals, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
