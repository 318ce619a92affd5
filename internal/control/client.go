package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// EventHandler receives pushed events on the client's read goroutine.
type EventHandler func(event string, payload json.RawMessage)

// ErrClosed is returned for calls against a closed client.
var ErrClosed = errors.New("control client closed")

// Client is the child-side half of the channel: it issues commands against
// the coordinator and receives pushed events.
type Client struct {
	logger  *slog.Logger
	conn    *websocket.Conn
	onEvent EventHandler

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Message
	closed  bool
}

// Dial connects to the coordinator's control address ("host:port").
func Dial(ctx context.Context, addr string, onEvent EventHandler, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+addr+"/ws", nil)
	if err != nil {
		return nil, fmt.Errorf("dial control channel: %w", err)
	}
	c := &Client{
		logger:  logger,
		conn:    conn,
		onEvent: onEvent,
		pending: make(map[string]chan Message),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.fail()
			return
		}
		switch msg.Type {
		case messageResponse:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			if ok {
				delete(c.pending, msg.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
		case messageEvent:
			if c.onEvent != nil {
				c.onEvent(msg.Event, msg.Payload)
			}
		}
	}
}

// fail unblocks every waiter after the connection died.
func (c *Client) fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
}

// Call issues a command and decodes the result into result when non-nil.
func (c *Client) Call(ctx context.Context, cmd Command, params any, result any) error {
	var raw json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		raw = encoded
	}

	id := ulid.Make().String()
	ch := make(chan Message, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(Request{ID: id, Command: cmd, Params: raw})
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("send %s: %w", cmd, err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return ErrClosed
		}
		if !msg.OK {
			return fmt.Errorf("%s: %s", cmd, msg.Error)
		}
		if result != nil && len(msg.Result) > 0 {
			if err := json.Unmarshal(msg.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", cmd, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	}
}

// Close shuts the connection down.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.fail()
	return err
}
