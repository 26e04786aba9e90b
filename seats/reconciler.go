package seats

import (
	"fmt"
	"sync"
	"time"
)

// recentLimit caps the per-trip recent-activity list.
const recentLimit = 5

// Update is one authoritative seat-availability event for a trip.
type Update struct {
	TripID         string
	SeatsAvailable int
	AssignedSeats  []int
	BookingID      string
	Timestamp      time.Time
}

// Activity is one entry of the recent-activity list, most recent first.
type Activity struct {
	Key       string
	Seats     []int
	Timestamp time.Time
}

// Reconciler merges a snapshot baseline with inbound updates for one trip.
type Reconciler struct {
	mu         sync.Mutex
	tripID     string
	totalSeats int
	available  int
	eventSeen  bool
	processed  map[string]struct{}
	recent     []Activity
	onChange   func(seatsAvailable int)
}

// NewReconciler seeds a reconciler for tripID from a REST snapshot. onChange
// is invoked exactly once per actual change of the available count; it may
// be nil.
func NewReconciler(tripID string, totalSeats, initialAvailable int, onChange func(int)) *Reconciler {
	return &Reconciler{
		tripID:     tripID,
		totalSeats: totalSeats,
		available:  clamp(initialAvailable, totalSeats),
		processed:  make(map[string]struct{}),
		onChange:   onChange,
	}
}

// Apply merges one inbound update. It reports whether the available count
// changed. Updates for other trips and replays of already-processed updates
// change nothing.
func (r *Reconciler) Apply(update Update) bool {
	if update.TripID != r.tripID {
		return false
	}

	key := compositeKey(update)

	r.mu.Lock()
	if _, done := r.processed[key]; done {
		r.mu.Unlock()
		return false
	}
	r.processed[key] = struct{}{}
	r.eventSeen = true

	next := clamp(update.SeatsAvailable, r.totalSeats)
	changed := next != r.available
	r.available = next

	r.recent = append([]Activity{{
		Key:       key,
		Seats:     append([]int(nil), update.AssignedSeats...),
		Timestamp: update.Timestamp,
	}}, r.recent...)
	if len(r.recent) > recentLimit {
		r.recent = r.recent[:recentLimit]
	}

	notify := r.onChange
	r.mu.Unlock()

	if changed && notify != nil {
		notify(next)
	}
	return changed
}

// SetBaseline applies a fresh snapshot value. It is accepted only while no
// authoritative event has been processed; afterwards the event stream owns
// the count and a stale snapshot must not fight it.
func (r *Reconciler) SetBaseline(seatsAvailable int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.eventSeen {
		return false
	}
	next := clamp(seatsAvailable, r.totalSeats)
	if next == r.available {
		return false
	}
	r.available = next
	return true
}

// SeatsAvailable returns the current available count.
func (r *Reconciler) SeatsAvailable() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.available
}

// TotalSeats returns the trip's seat capacity.
func (r *Reconciler) TotalSeats() int {
	return r.totalSeats
}

// TripID returns the observed trip.
func (r *Reconciler) TripID() string {
	return r.tripID
}

// AvailableSeatNumbers derives the seat numbers still open: the numbers
// 1..totalSeats above the implied taken count. It is recomputed fresh on
// every call, never patched incrementally.
func (r *Reconciler) AvailableSeatNumbers() []int {
	r.mu.Lock()
	available := r.available
	r.mu.Unlock()

	taken := r.totalSeats - available
	numbers := make([]int, 0, available)
	for i := 1; i <= r.totalSeats; i++ {
		if i > taken {
			numbers = append(numbers, i)
		}
	}
	return numbers
}

// Recent returns a copy of the recent-activity list, most recent first.
func (r *Reconciler) Recent() []Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Activity(nil), r.recent...)
}

func compositeKey(update Update) string {
	return fmt.Sprintf("%s-%d", update.BookingID, update.Timestamp.UnixMilli())
}

func clamp(seats, total int) int {
	if seats < 0 {
		return 0
	}
	if total > 0 && seats > total {
		return total
	}
	return seats
}
