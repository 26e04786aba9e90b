package seats

import (
	"sync"
	"time"
)

// feedLimit caps the cross-trip activity feed.
const feedLimit = 20

// Entry is one booking shown on the activity feed.
type Entry struct {
	BookingID string
	TripID    string
	UserEmail string
	Amount    float64
	Timestamp time.Time
}

// Feed is the session-scoped booking-activity list the dashboards render.
type Feed struct {
	mu      sync.Mutex
	entries []Entry
	seen    map[string]struct{}
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{seen: make(map[string]struct{})}
}

// Add prepends an entry. A booking id that was already added is ignored, so
// redelivered new-booking events do not duplicate rows.
func (f *Feed) Add(entry Entry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen[entry.BookingID]; dup {
		return false
	}
	f.seen[entry.BookingID] = struct{}{}

	f.entries = append([]Entry{entry}, f.entries...)
	if len(f.entries) > feedLimit {
		f.entries = f.entries[:feedLimit]
	}
	return true
}

// Entries returns a copy of the feed, most recent first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.entries...)
}

// Len returns the number of feed rows.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
