package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wrapbeep.click/internal/trigger"
)

// DefaultReconnectDelay is used when ClientConfig.ReconnectDelay is zero.
const DefaultReconnectDelay = 5 * time.Second

// ClientConfig holds websocket client settings.
type ClientConfig struct {
	URL string
	// Subscribe lists event names sent in a subscribe request after each
	// connect. Nothing is sent when empty.
	Subscribe      []string
	ReconnectDelay time.Duration
	Header         http.Header
}

// Client is a trigger.EventSource fed by a websocket connection. Text
// messages are parsed with ParseMessage and dispatched to listeners.
type Client struct {
	*trigger.Emitter

	config ClientConfig
	dialer *websocket.Dialer
	logger *slog.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
}

// NewClient creates a client. Nothing is dialed until Run.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Client{
		Emitter: trigger.NewEmitter(logger),
		config:  cfg,
		dialer:  websocket.DefaultDialer,
		logger:  logger,
	}
}

// Run connects and dispatches events until ctx is cancelled, reconnecting
// after the configured delay whenever the connection drops. It returns
// ctx.Err() on cancellation.
func (c *Client) Run(ctx context.Context) error {
	if c.config.URL == "" {
		return errors.New("desktop client: no URL configured")
	}

	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("desktop connection lost, reconnecting",
			"url", c.config.URL,
			"error", err,
			"delay", c.config.ReconnectDelay)

		timer := time.NewTimer(c.config.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.config.URL, c.config.Header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("desktop connected", "url", c.config.URL)

	defer func() {
		c.mu.Lock()
		c.connected = false
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	// unblock ReadMessage on cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if len(c.config.Subscribe) > 0 {
		req := SubscribeRequest{Type: "subscribe", Events: c.config.Subscribe}
		if err := conn.WriteJSON(req); err != nil {
			return fmt.Errorf("failed to send subscribe: %w", err)
		}
		c.logger.Debug("subscribe request sent", "events", c.config.Subscribe)
	}

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		if messageType != websocket.TextMessage {
			c.logger.Debug("ignoring non-text desktop message", "type", messageType)
			continue
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	ev, err := ParseMessage(data)
	if err != nil {
		c.logger.Warn("dropping malformed desktop message", "error", err)
		return
	}
	c.logger.Debug("desktop event", "event", ev.Name)
	c.Emit(ev)
}
