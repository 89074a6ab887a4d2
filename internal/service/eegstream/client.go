package eegstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"NeuroFeat/internal/domain/models"
	drepo "NeuroFeat/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a DeviceStream backed by an EEG gateway WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	sessionID      string
	channels       []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new gateway DeviceStream.
func New(apiKey, websocketURL, sessionID string, channels []string, reconnectDelay, pingInterval time.Duration) drepo.DeviceStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		sessionID:      sessionID,
		channels:       channels,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("eegstream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("eegstream: connected")
	return nil
}

// Subscribe subscribes to the configured session channels.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("eegstream not connected")
	}
	for _, ch := range c.channels {
		msg := map[string]string{"type": "subscribe", "session": c.sessionID, "channel": ch}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s/%s: %w", c.sessionID, ch, err)
		}
		log.Printf("eegstream: subscribed %s/%s", c.sessionID, ch)
	}
	return nil
}

type wsSegment struct {
	Session string    `json:"session"`
	Ch      int       `json:"ch"`
	T       int64     `json:"t"` // ms
	Samples []float64 `json:"samples"`
	Label   string    `json:"label"`
}

type wsMessage struct {
	Type string      `json:"type"`
	Data []wsSegment `json:"data"`
}

// Read streams Segment events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Segment, <-chan error) {
	segs := make(chan *models.Segment, 1024)
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
		defer close(segs)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("eegstream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("eegstream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-segment frames
					continue
				}
				if m.Type != "segment" {
					continue
				}
				for _, d := range m.Data {
					sec := d.T / 1000
					seg := &models.Segment{
						SessionID: d.Session,
						Channel:   d.Ch,
						Timestamp: sec,
						Samples:   d.Samples,
						Label:     d.Label,
					}
					select {
					case segs <- seg:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return segs, errs
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
