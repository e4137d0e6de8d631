package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"forecast-lab/internal/domain"
	"forecast-lab/internal/observability"
)

// Update is one probability change pushed over the stream.
type Update struct {
	MarketID    string  `json:"market_id"`
	TimestampMs int64   `json:"timestamp_ms"`
	Prob        float64 `json:"prob"`
}

// Event converts the update to a domain probability event.
func (u Update) Event() *domain.ProbabilityEvent {
	return &domain.ProbabilityEvent{
		MarketID:    u.MarketID,
		TimestampMs: u.TimestampMs,
		Value:       u.Prob,
	}
}

// StreamConfig configures stream client behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// StreamClient subscribes to a platform's probability update stream over
// WebSocket. It reconnects with exponential backoff and resubscribes to the
// same market set after every reconnect.
type StreamClient struct {
	endpoint string
	config   StreamConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// updates receives every probability message; created on Subscribe
	updates   chan Update
	updatesMu sync.Mutex

	// subscribedMarkets is the market set to restore after reconnect
	subscribedMarkets   []string
	subscribedMarketsMu sync.RWMutex

	// pendingAcks maps request ID to channel waiting for the ack
	pendingAcks   map[uint64]chan struct{}
	pendingAcksMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewStreamClient creates a stream client and connects to the endpoint.
func NewStreamClient(ctx context.Context, endpoint string, config *StreamConfig) (*StreamClient, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	c := &StreamClient{
		endpoint:    endpoint,
		config:      cfg,
		pendingAcks: make(map[uint64]chan struct{}),
		done:        make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes the WebSocket connection.
func (c *StreamClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Subscribe subscribes to probability updates for the given markets. An empty
// market list subscribes to every market the endpoint serves. The returned
// channel is closed when the client closes.
func (c *StreamClient) Subscribe(ctx context.Context, markets []string) (<-chan Update, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	c.updatesMu.Lock()
	if c.updates != nil {
		c.updatesMu.Unlock()
		return nil, fmt.Errorf("already subscribed")
	}
	// Large buffer for backpressure; blocking send ensures no update loss
	c.updates = make(chan Update, 10000)
	updates := c.updates
	c.updatesMu.Unlock()

	if err := c.sendSubscribe(ctx, markets); err != nil {
		return nil, err
	}

	c.subscribedMarketsMu.Lock()
	c.subscribedMarkets = append([]string(nil), markets...)
	c.subscribedMarketsMu.Unlock()

	return updates, nil
}

// sendSubscribe writes the subscribe request and waits for its ack.
func (c *StreamClient) sendSubscribe(ctx context.Context, markets []string) error {
	reqID := c.requestID.Add(1)

	req := streamRequest{
		ID:      reqID,
		Action:  "subscribe",
		Channel: "probability",
		Markets: markets,
	}

	ackCh := make(chan struct{}, 1)
	c.pendingAcksMu.Lock()
	c.pendingAcks[reqID] = ackCh
	c.pendingAcksMu.Unlock()

	removeAck := func() {
		c.pendingAcksMu.Lock()
		delete(c.pendingAcks, reqID)
		c.pendingAcksMu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		removeAck()
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		removeAck()
		return fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case <-ackCh:
		return nil
	case <-time.After(30 * time.Second):
		removeAck()
		return fmt.Errorf("subscription timeout after 30s")
	case <-c.done:
		return fmt.Errorf("client closed")
	case <-ctx.Done():
		removeAck()
		return ctx.Err()
	}
}

// Close closes the stream connection.
func (c *StreamClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.updatesMu.Lock()
	if c.updates != nil {
		close(c.updates)
		c.updates = nil
	}
	c.updatesMu.Unlock()

	c.pendingAcksMu.Lock()
	for id, ch := range c.pendingAcks {
		close(ch)
		delete(c.pendingAcks, id)
	}
	c.pendingAcksMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches updates to the subscriber.
func (c *StreamClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		handleStart := time.Now()
		c.handleMessage(message)
		observability.RecordWSMessage(time.Since(handleStart).Seconds())
	}
}

// reconnect attempts to reconnect and resubscribe.
func (c *StreamClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Reconnect failed, next read error retries
		return
	}

	c.subscribedMarketsMu.RLock()
	markets := append([]string(nil), c.subscribedMarkets...)
	subscribed := c.subscribedMarkets != nil
	c.subscribedMarketsMu.RUnlock()

	if subscribed {
		subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.sendSubscribe(subCtx, markets); err != nil {
			log.Printf("[stream] resubscribe failed: %v", err)
		}
		subCancel()
	}
}

// handleMessage processes one incoming message.
func (c *StreamClient) handleMessage(message []byte) {
	var msg streamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "subscribed":
		c.pendingAcksMu.Lock()
		ch, ok := c.pendingAcks[msg.ID]
		if ok {
			delete(c.pendingAcks, msg.ID)
		}
		c.pendingAcksMu.Unlock()
		if ok {
			select {
			case ch <- struct{}{}:
			default:
			}
		}

	case "probability":
		c.updatesMu.Lock()
		updates := c.updates
		c.updatesMu.Unlock()
		if updates == nil {
			return
		}
		// Block until we can send - never drop updates
		select {
		case updates <- Update{MarketID: msg.MarketID, TimestampMs: msg.TimestampMs, Prob: msg.Prob}:
		case <-c.done:
		}

	case "error":
		log.Printf("[stream] error message: %s", msg.Message)
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *StreamClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader handles reconnect
				}
			}
			c.connMu.Unlock()
		}
	}
}

// Stream message types

type streamRequest struct {
	ID      uint64   `json:"id"`
	Action  string   `json:"action"`
	Channel string   `json:"channel"`
	Markets []string `json:"markets,omitempty"`
}

type streamMessage struct {
	ID          uint64  `json:"id,omitempty"`
	Type        string  `json:"type"`
	MarketID    string  `json:"market_id,omitempty"`
	TimestampMs int64   `json:"timestamp_ms,omitempty"`
	Prob        float64 `json:"prob,omitempty"`
	Message     string  `json:"message,omitempty"`
}
