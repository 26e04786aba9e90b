package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/buslinehq/realtime/bridge"
	"github.com/google/uuid"
)

var (
	// ErrBlocked is returned while the manager sits in the terminal Blocked
	// state; no channel operation is allowed until ClearBlock.
	ErrBlocked = errors.New("user is blocked")

	// ErrNotConnected is returned by Emit when no channel is established.
	ErrNotConnected = errors.New("not connected")
)

// Config carries the manager's fixed policy knobs. All durations are fixed,
// not adaptive; the core serves a low-request-rate presentation layer.
type Config struct {
	ServerURL   string
	Credentials Credentials

	// ReconnectAttempts bounds retries after a network fault. Default 3.
	ReconnectAttempts int

	// ReconnectDelay is the fixed pause between retry attempts. Default 2s.
	ReconnectDelay time.Duration

	// ServerDisconnectDelay damps the single reconnect scheduled after a
	// server-initiated disconnect. Default 3s.
	ServerDisconnectDelay time.Duration

	// HeartbeatInterval paces the advisory ping while connected. Default 60s.
	HeartbeatInterval time.Duration

	// DialTimeout bounds the handshake. Default 20s.
	DialTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = 3
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.ServerDisconnectDelay <= 0 {
		c.ServerDisconnectDelay = 3 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 60 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 20 * time.Second
	}
	return c
}

// Handler receives the raw data payload of one inbound event.
type Handler func(data []byte)

// Manager owns exactly one logical channel. It is constructed explicitly and
// injected into consumers; there is no package-level instance.
type Manager struct {
	id        uuid.UUID
	cfg       Config
	transport Transport
	bridge    *bridge.Bridge

	mu             sync.Mutex
	state          State
	attempts       int
	lastEvent      time.Time
	blockedReason  string
	closing        bool
	handlers       map[string]Handler
	stateSubs      map[int]func(State)
	nextSubID      int
	stopHeartbeat  chan struct{}
	reconnectTimer *time.Timer
}

// NewManager creates a manager over the given transport. The bridge receives
// every surfaced fault and advisory; it must not be nil.
func NewManager(cfg Config, transport Transport, b *bridge.Bridge) *Manager {
	return &Manager{
		id:        uuid.New(),
		cfg:       cfg.withDefaults(),
		transport: transport,
		bridge:    b,
		handlers:  make(map[string]Handler),
		stateSubs: make(map[int]func(State)),
	}
}

// ID is the per-process connection identity, used only for diagnostics.
func (m *Manager) ID() uuid.UUID {
	return m.id
}

// Connect establishes the channel. Re-entrant calls while already connected
// or connecting are no-ops. A blocked manager refuses to connect.
func (m *Manager) Connect() error {
	m.mu.Lock()
	switch m.state {
	case StateConnected, StateConnecting:
		m.mu.Unlock()
		return nil
	case StateBlocked:
		m.mu.Unlock()
		return ErrBlocked
	}
	m.state = StateConnecting
	m.closing = false
	m.mu.Unlock()

	if err := m.dial(); err != nil {
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
		return err
	}
	return nil
}

// dial performs one connection attempt and, on success, starts the heartbeat
// and read loop. It does not touch the retry bookkeeping.
func (m *Manager) dial() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	defer cancel()

	auth := BuildAuthPayload(m.cfg.Credentials)
	if err := m.transport.Dial(ctx, m.cfg.ServerURL, auth); err != nil {
		m.bridge.Publish(bridge.Warning("connect-error", "could not reach the realtime server", nil))
		return fmt.Errorf("connect to %s: %w", m.cfg.ServerURL, err)
	}

	m.mu.Lock()
	m.state = StateConnected
	m.attempts = 0
	m.lastEvent = time.Now()
	m.mu.Unlock()

	m.startHeartbeat()
	go m.readLoop()
	m.notifyStateChange(StateConnected)
	return nil
}

// Disconnect tears the channel down: heartbeat stopped, pending reconnects
// cancelled, handlers cleared. Safe to call when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.closing = true
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.mu.Unlock()

	m.stopHeartbeatLoop()
	m.transport.Close()

	m.mu.Lock()
	wasDisconnected := m.state == StateDisconnected
	m.state = StateDisconnected
	m.handlers = make(map[string]Handler)
	m.mu.Unlock()

	if !wasDisconnected {
		m.notifyStateChange(StateDisconnected)
	}
}

// Emit sends a fire-and-forget event. No acknowledgment is awaited; delivery
// outcomes are only ever observed through later inbound events.
func (m *Manager) Emit(event string, data any) error {
	m.mu.Lock()
	switch m.state {
	case StateBlocked:
		m.mu.Unlock()
		return ErrBlocked
	case StateConnected:
	default:
		m.mu.Unlock()
		return ErrNotConnected
	}
	m.mu.Unlock()

	frame := Frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", event, err)
		}
		frame.Data = raw
	}
	return m.transport.WriteFrame(frame)
}

// On registers the handler for an event, replacing any existing one. The
// replace semantics matter: registering a fresh closure must deregister the
// old one or a single server event would be processed twice.
func (m *Manager) On(event string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = h
}

// Off removes the handler for an event.
func (m *Manager) Off(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, event)
}

// OnBookingUpdated registers a typed handler for booking-updated events,
// replacing any previous one.
func (m *Manager) OnBookingUpdated(fn func(BookingUpdate)) {
	m.On(EventBookingUpdated, func(data []byte) {
		fn(DecodeBookingUpdate(data))
	})
}

// OnNewBooking registers a typed handler for new-booking events, replacing
// any previous one.
func (m *Manager) OnNewBooking(fn func(NewBooking)) {
	m.On(EventNewBooking, func(data []byte) {
		fn(DecodeNewBooking(data))
	})
}

// OnStateChange subscribes to state transitions and returns an unsubscribe
// function. Subscribers are invoked outside the manager's lock.
func (m *Manager) OnStateChange(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.stateSubs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.stateSubs, id)
	}
}

// Status reports whether the channel is usable, reconciling the manager's
// believed state with the transport's live status. A cached Connected that
// the transport no longer backs is corrected toward the transport.
func (m *Manager) Status() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	believed := m.state == StateConnected
	actual := m.transport.Connected()
	if believed && !actual {
		m.state = StateDisconnected
		believed = false
	}
	return believed && actual
}

// State returns the manager's current believed state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BlockedReason returns the server-supplied reason while Blocked.
func (m *Manager) BlockedReason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blockedReason
}

// LastEventAt returns the time of the most recent inbound event.
func (m *Manager) LastEventAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEvent
}

// ClearBlock releases the terminal Blocked state. It models external
// intervention (an unblock on the server side); the manager never leaves
// Blocked on its own.
func (m *Manager) ClearBlock() {
	m.mu.Lock()
	if m.state != StateBlocked {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.blockedReason = ""
	m.mu.Unlock()
	m.notifyStateChange(StateDisconnected)
}

// readLoop is the single reader of the transport while a channel is live.
func (m *Manager) readLoop() {
	for {
		frame, err := m.transport.ReadFrame()
		if err != nil {
			m.handleReadError(err)
			return
		}
		m.dispatch(frame)
	}
}

// dispatch routes one inbound frame: built-in handling for lifecycle and
// fault events, then the registered handler for the event name, if any.
func (m *Manager) dispatch(frame Frame) {
	m.mu.Lock()
	m.lastEvent = time.Now()
	handler := m.handlers[frame.Event]
	m.mu.Unlock()

	switch frame.Event {
	case EventPong:
		// Advisory keepalive reply; lastEvent already updated.
	case EventConnectionWarning:
		m.bridge.Publish(bridge.Warning(EventConnectionWarning,
			decodeMessage(frame.Data), decodeDataMap(frame.Data)))
	case EventRoomWarning:
		m.bridge.Publish(bridge.Warning(EventRoomWarning,
			decodeMessage(frame.Data), decodeDataMap(frame.Data)))
	case EventRoomJoined:
		joined := DecodeRoomJoined(frame.Data)
		m.bridge.Publish(bridge.Info(EventRoomJoined,
			fmt.Sprintf("joined trip room; idle disconnect after %d minutes", joined.TimeoutMinutes),
			decodeDataMap(frame.Data)))
	case EventUserBlocked:
		m.handleBlocked(frame.Data)
		return
	}

	if handler != nil {
		handler(frame.Data)
	}
}

// handleBlocked moves the manager to the terminal Blocked state. This is a
// server-pushed signal distinct from a disconnect; no reconnect follows.
func (m *Manager) handleBlocked(data []byte) {
	notice := DecodeBlocked(data)

	m.mu.Lock()
	m.state = StateBlocked
	m.blockedReason = notice.Reason
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.mu.Unlock()

	m.stopHeartbeatLoop()
	m.transport.Close()

	log.Printf("socket: user blocked (session=%s, reason=%s, remaining=%ds)", m.id, notice.Reason, notice.RemainingTime)
	m.bridge.Publish(bridge.Blocked(EventUserBlocked, notice.Message, map[string]any{
		"sessionId":     m.id.String(),
		"reason":        notice.Reason,
		"remainingTime": notice.RemainingTime,
	}))
	m.notifyStateChange(StateBlocked)
}

// handleReadError classifies a terminated read loop. Server-initiated closes
// get one damped reconnect; anything else gets the bounded retry policy.
// Local teardown and the blocked state suppress reconnection entirely.
func (m *Manager) handleReadError(err error) {
	m.stopHeartbeatLoop()

	m.mu.Lock()
	if m.closing || m.state == StateBlocked || m.state == StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = StateReconnecting
	m.mu.Unlock()
	m.notifyStateChange(StateReconnecting)

	if errors.Is(err, ErrServerClosed) {
		m.bridge.Publish(bridge.Warning("server-disconnect",
			"the server closed the connection; retrying shortly", nil))
		m.scheduleReconnect(m.cfg.ServerDisconnectDelay, 1)
		return
	}

	log.Printf("socket: connection lost (session=%s): %v", m.id, err)
	m.bridge.Publish(bridge.Warning("connection-lost",
		"realtime connection lost; retrying", nil))
	m.scheduleReconnect(m.cfg.ReconnectDelay, m.cfg.ReconnectAttempts)
}

// scheduleReconnect arms a single delayed attempt. Never within the current
// tick: the first attempt fires no sooner than delay.
func (m *Manager) scheduleReconnect(delay time.Duration, remaining int) {
	m.mu.Lock()
	if m.closing || m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
	}
	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if m.closing || m.state != StateReconnecting {
			m.mu.Unlock()
			return
		}
		m.attempts++
		attempt := m.attempts
		m.mu.Unlock()

		if err := m.dial(); err == nil {
			return
		}
		if remaining > 1 {
			m.scheduleReconnect(delay, remaining-1)
			return
		}

		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
		m.bridge.Publish(bridge.Error("reconnect-failed",
			fmt.Sprintf("could not restore the realtime connection after %d attempts", attempt), nil))
		m.notifyStateChange(StateDisconnected)
	})
	m.mu.Unlock()
}

// startHeartbeat begins the periodic advisory ping. No response is required
// for correctness; pong only refreshes diagnostics.
func (m *Manager) startHeartbeat() {
	m.stopHeartbeatLoop()

	stop := make(chan struct{})
	m.mu.Lock()
	m.stopHeartbeat = stop
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := m.Emit(EventPing, nil); err != nil {
					return
				}
			}
		}
	}()
}

func (m *Manager) stopHeartbeatLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopHeartbeat != nil {
		close(m.stopHeartbeat)
		m.stopHeartbeat = nil
	}
}

func (m *Manager) notifyStateChange(state State) {
	m.mu.Lock()
	subs := make([]func(State), 0, len(m.stateSubs))
	for _, fn := range m.stateSubs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
