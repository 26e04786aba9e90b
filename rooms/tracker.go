package rooms

import (
	"sync"
	"time"

	"github.com/buslinehq/realtime/bridge"
	"github.com/buslinehq/realtime/socket"
)

// Conn is the slice of the connection manager the tracker needs.
type Conn interface {
	Emit(event string, data any) error
	Status() bool
}

// Events is the subscription surface the tracker binds to for join
// acknowledgments and connection-loss resets.
type Events interface {
	On(event string, h socket.Handler)
	OnStateChange(fn func(socket.State)) func()
}

// subscription is one tracked trip room.
type subscription struct {
	joinedAt       time.Time
	timeoutMinutes int
	warningFired   bool
	timer          *time.Timer
}

// Tracker owns the active-subscription set. External collaborators only read
// derived output (Joined, Count); the set itself is never exposed.
type Tracker struct {
	conn   Conn
	bridge *bridge.Bridge

	mu     sync.Mutex
	joined map[string]*subscription

	// minute is scaled down in tests to exercise the warning timer.
	minute time.Duration
}

// NewTracker creates a tracker over an established connection.
func NewTracker(conn Conn, b *bridge.Bridge) *Tracker {
	return &Tracker{
		conn:   conn,
		bridge: b,
		joined: make(map[string]*subscription),
		minute: time.Minute,
	}
}

// Bind hooks the tracker into the manager's event dispatch: join
// acknowledgments arm the warning timer, and any transition away from
// Connected invalidates every subscription.
func (t *Tracker) Bind(events Events) {
	events.On(socket.EventRoomJoined, func(data []byte) {
		joined := socket.DecodeRoomJoined(data)
		t.HandleJoined(joined.TripID, joined.TimeoutMinutes)
	})
	events.OnStateChange(func(state socket.State) {
		if state != socket.StateConnected {
			t.Reset()
		}
	})
}

// Enter joins the trip room. It emits a join signal only when connected and
// the trip is not already tracked; the id is added optimistically, before
// any acknowledgment, so rapid repeated calls stay idempotent.
func (t *Tracker) Enter(tripID string) bool {
	if tripID == "" || !t.conn.Status() {
		return false
	}

	t.mu.Lock()
	if _, tracked := t.joined[tripID]; tracked {
		t.mu.Unlock()
		return false
	}
	t.joined[tripID] = &subscription{joinedAt: time.Now()}
	t.mu.Unlock()

	if err := t.conn.Emit(socket.EventJoinTrip, tripID); err != nil {
		t.mu.Lock()
		delete(t.joined, tripID)
		t.mu.Unlock()
		return false
	}
	return true
}

// Leave exits the trip room. It emits a leave signal only when connected and
// the trip is currently tracked.
func (t *Tracker) Leave(tripID string) bool {
	if !t.conn.Status() {
		return false
	}

	t.mu.Lock()
	sub, tracked := t.joined[tripID]
	if !tracked {
		t.mu.Unlock()
		return false
	}
	if sub.timer != nil {
		sub.timer.Stop()
	}
	delete(t.joined, tripID)
	t.mu.Unlock()

	t.conn.Emit(socket.EventLeaveTrip, tripID)
	return true
}

// HandleJoined processes a join acknowledgment carrying the room's idle
// timeout. The warning timer fires one minute before eviction; re-arming
// cancels any previous timer for the trip. An acknowledgment for a trip that
// is no longer tracked (a late ack after Leave) is a no-op.
func (t *Tracker) HandleJoined(tripID string, timeoutMinutes int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tripID == "" && len(t.joined) == 1 {
		// Older servers omit the trip id; with exactly one live
		// subscription the ack is unambiguous.
		for id := range t.joined {
			tripID = id
		}
	}

	sub, tracked := t.joined[tripID]
	if !tracked {
		return
	}

	sub.timeoutMinutes = timeoutMinutes
	sub.warningFired = false
	if sub.timer != nil {
		sub.timer.Stop()
	}

	lead := time.Duration(timeoutMinutes-1) * t.minute
	if lead < 0 {
		lead = 0
	}
	sub.timer = time.AfterFunc(lead, func() {
		t.fireWarning(tripID, timeoutMinutes)
	})
}

// Reset drops every subscription and cancels all pending warning timers.
// Rejoining after a reconnect is the caller's responsibility.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sub := range t.joined {
		if sub.timer != nil {
			sub.timer.Stop()
		}
	}
	t.joined = make(map[string]*subscription)
}

// Joined reports whether the trip is currently tracked.
func (t *Tracker) Joined(tripID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, tracked := t.joined[tripID]
	return tracked
}

// Count returns the number of active subscriptions.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.joined)
}

func (t *Tracker) fireWarning(tripID string, timeoutMinutes int) {
	t.mu.Lock()
	sub, tracked := t.joined[tripID]
	if !tracked || sub.warningFired {
		t.mu.Unlock()
		return
	}
	sub.warningFired = true
	t.mu.Unlock()

	t.bridge.Publish(bridge.Warning("room-timeout-warning",
		"you will be disconnected from the trip room in 1 minute due to inactivity",
		map[string]any{
			"tripId":         tripID,
			"timeoutMinutes": timeoutMinutes,
		}))
}
