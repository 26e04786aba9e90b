package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/buslinehq/realtime/bridge"
)

type readResult struct {
	frame Frame
	err   error
}

// fakeTransport is an in-memory Transport that records dials and writes and
// lets tests inject inbound frames and read failures.
type fakeTransport struct {
	mu        sync.Mutex
	dials     int
	auths     []AuthPayload
	written   []Frame
	dialErr   error
	connected bool
	done      chan struct{}
	inbound   chan readResult
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan readResult, 16)}
}

func (f *fakeTransport) Dial(ctx context.Context, serverURL string, auth AuthPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	f.auths = append(f.auths, auth)
	if f.dialErr != nil {
		return f.dialErr
	}
	f.connected = true
	f.done = make(chan struct{})
	return nil
}

func (f *fakeTransport) ReadFrame() (Frame, error) {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()
	if done == nil {
		return Frame{}, ErrTransportClosed
	}
	select {
	case r := <-f.inbound:
		return r.frame, r.err
	case <-done:
		return Frame{}, ErrTransportClosed
	}
}

func (f *fakeTransport) WriteFrame(frame Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return ErrTransportClosed
	}
	f.written = append(f.written, frame)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
	return nil
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) push(event string, data string) {
	f.inbound <- readResult{frame: Frame{Event: event, Data: []byte(data)}}
}

func (f *fakeTransport) fail(err error) {
	f.inbound <- readResult{err: err}
}

func (f *fakeTransport) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

func (f *fakeTransport) setDialErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialErr = err
}

func (f *fakeTransport) writtenEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]string, 0, len(f.written))
	for _, frame := range f.written {
		events = append(events, frame.Event)
	}
	return events
}

func (f *fakeTransport) dropConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func testConfig() Config {
	return Config{
		ServerURL:             "ws://test.invalid/ws",
		ReconnectAttempts:     3,
		ReconnectDelay:        20 * time.Millisecond,
		ServerDisconnectDelay: 60 * time.Millisecond,
		HeartbeatInterval:     time.Hour, // disabled unless a test shortens it
		DialTimeout:           time.Second,
	}
}

func TestConnectIdempotent(t *testing.T) {
	ft := newFakeTransport()
	m := NewManager(testConfig(), ft, bridge.New())

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := m.Connect(); err != nil {
		t.Fatalf("Re-entrant Connect failed: %v", err)
	}

	if ft.dialCount() != 1 {
		t.Errorf("Expected exactly 1 dial, got %d", ft.dialCount())
	}
	if m.State() != StateConnected {
		t.Errorf("Expected Connected, got %s", m.State())
	}

	m.Disconnect()
}

func TestConnectSendsSanitizedAuth(t *testing.T) {
	ft := newFakeTransport()
	cfg := testConfig()
	cfg.Credentials = Credentials{UserID: "user-1", Token: "undefined"}
	m := NewManager(cfg, ft, bridge.New())

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer m.Disconnect()

	if got := ft.auths[0]; got.UserID != "" || got.Token != "" {
		t.Errorf("Expected empty auth payload for sentinel token, got %+v", got)
	}
}

func TestDisconnectSafeWhenDisconnected(t *testing.T) {
	ft := newFakeTransport()
	m := NewManager(testConfig(), ft, bridge.New())

	// Must not panic without a prior Connect and must be repeatable.
	m.Disconnect()
	m.Disconnect()

	if m.State() != StateDisconnected {
		t.Errorf("Expected Disconnected, got %s", m.State())
	}
}

func TestEmitRequiresConnection(t *testing.T) {
	ft := newFakeTransport()
	m := NewManager(testConfig(), ft, bridge.New())

	if err := m.Emit(EventJoinTrip, "trip-1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestHeartbeat(t *testing.T) {
	ft := newFakeTransport()
	cfg := testConfig()
	cfg.HeartbeatInterval = 20 * time.Millisecond
	m := NewManager(cfg, ft, bridge.New())

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	time.Sleep(70 * time.Millisecond)
	m.Disconnect()

	pings := 0
	for _, event := range ft.writtenEvents() {
		if event == EventPing {
			pings++
		}
	}
	if pings < 2 {
		t.Errorf("Expected at least 2 heartbeat pings, got %d", pings)
	}

	// No further pings after teardown.
	before := len(ft.writtenEvents())
	time.Sleep(50 * time.Millisecond)
	if after := len(ft.writtenEvents()); after != before {
		t.Errorf("Heartbeat kept running after Disconnect: %d -> %d writes", before, after)
	}
}

func TestServerDisconnectDamping(t *testing.T) {
	ft := newFakeTransport()
	m := NewManager(testConfig(), ft, bridge.New())

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ft.fail(fmt.Errorf("%w: going away", ErrServerClosed))
	time.Sleep(10 * time.Millisecond)

	// No reconnect within the same tick; the attempt is scheduled out.
	if ft.dialCount() != 1 {
		t.Fatalf("Expected no immediate reconnect, got %d dials", ft.dialCount())
	}
	if m.State() != StateReconnecting {
		t.Errorf("Expected Reconnecting, got %s", m.State())
	}

	time.Sleep(100 * time.Millisecond)
	if ft.dialCount() != 2 {
		t.Errorf("Expected exactly one delayed reconnect, got %d dials", ft.dialCount())
	}
	if m.State() != StateConnected {
		t.Errorf("Expected Connected after damped reconnect, got %s", m.State())
	}

	m.Disconnect()
}

func TestNetworkFaultBoundedRetries(t *testing.T) {
	ft := newFakeTransport()
	b := bridge.New()

	var failures []bridge.Signal
	var mu sync.Mutex
	b.Subscribe(bridge.CategoryError, func(s bridge.Signal) {
		mu.Lock()
		failures = append(failures, s)
		mu.Unlock()
	})

	m := NewManager(testConfig(), ft, b)
	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ft.setDialErr(errors.New("connection refused"))
	ft.fail(errors.New("connection reset"))

	time.Sleep(200 * time.Millisecond)

	// Initial dial plus the bounded retry budget, then give up.
	if ft.dialCount() != 4 {
		t.Errorf("Expected 4 dials (1 connect + 3 retries), got %d", ft.dialCount())
	}
	if m.State() != StateDisconnected {
		t.Errorf("Expected Disconnected after exhausted retries, got %s", m.State())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failures) != 1 || failures[0].Type != "reconnect-failed" {
		t.Errorf("Expected one reconnect-failed error signal, got %+v", failures)
	}
}

func TestUserBlockedIsTerminal(t *testing.T) {
	ft := newFakeTransport()
	b := bridge.New()

	var blocked []bridge.Signal
	var mu sync.Mutex
	b.Subscribe(bridge.CategoryBlocked, func(s bridge.Signal) {
		mu.Lock()
		blocked = append(blocked, s)
		mu.Unlock()
	})

	m := NewManager(testConfig(), ft, b)
	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ft.push(EventUserBlocked, `{"message":"blocked","reason":"abuse","remainingTime":600}`)
	time.Sleep(30 * time.Millisecond)

	if m.State() != StateBlocked {
		t.Fatalf("Expected Blocked, got %s", m.State())
	}
	if m.BlockedReason() != "abuse" {
		t.Errorf("Expected reason 'abuse', got '%s'", m.BlockedReason())
	}
	if err := m.Emit(EventJoinTrip, "trip-1"); !errors.Is(err, ErrBlocked) {
		t.Errorf("Expected ErrBlocked from Emit, got %v", err)
	}
	if err := m.Connect(); !errors.Is(err, ErrBlocked) {
		t.Errorf("Expected ErrBlocked from Connect, got %v", err)
	}

	// No self-driven reconnect out of Blocked.
	time.Sleep(150 * time.Millisecond)
	if ft.dialCount() != 1 {
		t.Errorf("Expected no reconnect while blocked, got %d dials", ft.dialCount())
	}

	mu.Lock()
	if len(blocked) != 1 {
		t.Fatalf("Expected one blocked signal, got %d", len(blocked))
	}
	if blocked[0].Data["remainingTime"] != 600 {
		t.Errorf("Expected remainingTime 600, got %v", blocked[0].Data["remainingTime"])
	}
	if blocked[0].Data["sessionId"] != m.ID().String() {
		t.Errorf("Expected session id %s in blocked signal, got %v", m.ID(), blocked[0].Data["sessionId"])
	}
	mu.Unlock()

	// External intervention releases the state.
	m.ClearBlock()
	if m.State() != StateDisconnected {
		t.Errorf("Expected Disconnected after ClearBlock, got %s", m.State())
	}
	if err := m.Connect(); err != nil {
		t.Errorf("Expected Connect to succeed after ClearBlock: %v", err)
	}
	m.Disconnect()
}

func TestStatusCorrectsTowardTransport(t *testing.T) {
	ft := newFakeTransport()
	m := NewManager(testConfig(), ft, bridge.New())

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !m.Status() {
		t.Fatal("Expected Status true after connect")
	}

	// The transport dies underneath without a read error reaching the
	// manager yet; the cached flag must be corrected toward the transport.
	ft.dropConnection()

	if m.Status() {
		t.Error("Expected Status false when the transport is down")
	}
	if m.State() != StateDisconnected {
		t.Errorf("Expected cached state corrected to Disconnected, got %s", m.State())
	}
}

func TestListenerReplacement(t *testing.T) {
	ft := newFakeTransport()
	m := NewManager(testConfig(), ft, bridge.New())

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer m.Disconnect()

	var mu sync.Mutex
	firstCalls := 0
	secondCalls := 0

	// Registering a second handler must replace the first, never stack.
	m.OnBookingUpdated(func(BookingUpdate) {
		mu.Lock()
		firstCalls++
		mu.Unlock()
	})
	m.OnBookingUpdated(func(BookingUpdate) {
		mu.Lock()
		secondCalls++
		mu.Unlock()
	})

	ft.push(EventBookingUpdated, `{"tripId":"trip-1","seatsAvailable":5}`)
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if firstCalls != 0 {
		t.Errorf("Replaced handler still fired %d times", firstCalls)
	}
	if secondCalls != 1 {
		t.Errorf("Expected exactly 1 delivery to the current handler, got %d", secondCalls)
	}
}

func TestInboundWarningsReachBridge(t *testing.T) {
	ft := newFakeTransport()
	b := bridge.New()

	var mu sync.Mutex
	var warnings []bridge.Signal
	b.Subscribe(bridge.CategoryWarning, func(s bridge.Signal) {
		mu.Lock()
		warnings = append(warnings, s)
		mu.Unlock()
	})
	var infos []bridge.Signal
	b.Subscribe(bridge.CategoryInfo, func(s bridge.Signal) {
		mu.Lock()
		infos = append(infos, s)
		mu.Unlock()
	})

	m := NewManager(testConfig(), ft, b)
	if err := m.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer m.Disconnect()

	ft.push(EventConnectionWarning, `{"message":"too many connections"}`)
	ft.push(EventRoomWarning, `{"message":"room is full"}`)
	ft.push(EventRoomJoined, `{"tripId":"trip-1","timeoutMinutes":10}`)
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %d", len(warnings))
	}
	if warnings[0].Type != EventConnectionWarning || warnings[0].Message != "too many connections" {
		t.Errorf("Unexpected first warning: %+v", warnings[0])
	}
	if warnings[1].Type != EventRoomWarning {
		t.Errorf("Unexpected second warning: %+v", warnings[1])
	}
	if len(infos) != 1 || infos[0].Type != EventRoomJoined {
		t.Errorf("Expected one room-joined info signal, got %+v", infos)
	}
}
