package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
)

var (
	// ErrServerClosed indicates the server deliberately closed the channel.
	// The manager damps its reconnect behaviour for this case.
	ErrServerClosed = errors.New("server closed connection")

	// ErrTransportClosed indicates a read on a transport that has been torn
	// down locally.
	ErrTransportClosed = errors.New("transport closed")
)

// Frame is the JSON wire envelope for both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Transport abstracts the underlying channel so the manager can be driven by
// an in-memory fake in tests.
type Transport interface {
	// Dial establishes the channel and performs the auth handshake.
	Dial(ctx context.Context, serverURL string, auth AuthPayload) error

	// ReadFrame blocks until the next inbound frame. A server-initiated
	// close surfaces as an error wrapping ErrServerClosed.
	ReadFrame() (Frame, error)

	// WriteFrame sends a frame. Safe for concurrent use.
	WriteFrame(frame Frame) error

	// Close tears the channel down. Safe to call repeatedly.
	Close() error

	// Connected reports the transport's own live status.
	Connected() bool
}

// WebsocketTransport implements Transport over a gorilla WebSocket client
// connection.
type WebsocketTransport struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewWebsocketTransport creates an unconnected transport.
func NewWebsocketTransport() *WebsocketTransport {
	return &WebsocketTransport{}
}

// Dial connects to serverURL and sends the auth frame as the first message.
func (t *WebsocketTransport) Dial(ctx context.Context, serverURL string, auth AuthPayload) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", serverURL, err)
	}

	data, err := json.Marshal(auth)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to marshal auth payload: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Frame{Event: EventAuth, Data: data}); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send auth frame: %w", err)
	}

	t.conn = conn
	t.connected = true
	return nil
}

// ReadFrame reads the next frame. Only one goroutine may read at a time,
// which the manager's single read loop guarantees.
func (t *WebsocketTransport) ReadFrame() (Frame, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return Frame{}, ErrTransportClosed
	}

	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.mu.Lock()
		t.connected = false
		t.mu.Unlock()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Frame{}, fmt.Errorf("%w: %v", ErrServerClosed, err)
		}
		return Frame{}, err
	}
	return frame, nil
}

// WriteFrame sends a frame under the write deadline.
func (t *WebsocketTransport) WriteFrame(frame Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || !t.connected {
		return ErrTransportClosed
	}

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteJSON(frame)
}

// Close tears the connection down, sending a best-effort close frame first.
func (t *WebsocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	err := t.conn.Close()
	t.conn = nil
	t.connected = false
	return err
}

// Connected reports the transport's live status.
func (t *WebsocketTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}
