package socket

import (
	"context"
	"sync"
)

// LoopbackTransport is an in-memory Transport. It backs tests and local
// development where no realtime server is running: dials always succeed,
// written frames are recorded, and inbound frames are injected by hand.
type LoopbackTransport struct {
	mu        sync.Mutex
	connected bool
	done      chan struct{}
	inbound   chan Frame
	written   []Frame
	auth      AuthPayload
}

// NewLoopbackTransport creates an unconnected loopback transport.
func NewLoopbackTransport() *LoopbackTransport {
	return &LoopbackTransport{inbound: make(chan Frame, 64)}
}

func (t *LoopbackTransport) Dial(ctx context.Context, serverURL string, auth AuthPayload) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	t.auth = auth
	t.done = make(chan struct{})
	return nil
}

func (t *LoopbackTransport) ReadFrame() (Frame, error) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return Frame{}, ErrTransportClosed
	}
	select {
	case frame := <-t.inbound:
		return frame, nil
	case <-done:
		return Frame{}, ErrTransportClosed
	}
}

func (t *LoopbackTransport) WriteFrame(frame Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return ErrTransportClosed
	}
	t.written = append(t.written, frame)
	return nil
}

func (t *LoopbackTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
	return nil
}

func (t *LoopbackTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Inject delivers an inbound frame as if the server had sent it.
func (t *LoopbackTransport) Inject(event string, data []byte) {
	t.inbound <- Frame{Event: event, Data: data}
}

// Written returns a copy of every frame written so far.
func (t *LoopbackTransport) Written() []Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Frame(nil), t.written...)
}

// Auth returns the payload presented at the most recent dial.
func (t *LoopbackTransport) Auth() AuthPayload {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.auth
}
